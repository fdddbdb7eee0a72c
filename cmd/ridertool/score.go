package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/peloton/internal/adapters/report"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/filter"
)

// filterFlags mirror the query parameters of GET /riders.
type filterFlags struct {
	Search     string  `help:"Case-insensitive match on name, team, position or nationality." short:"s"`
	Team       string  `help:"Exact team, case-insensitive."`
	Position   string  `help:"Exact position, case-insensitive."`
	MinStars   float64 `help:"Lowest cost in stars, inclusive. Negative disables." default:"-1"`
	MaxStars   float64 `help:"Highest cost in stars, inclusive. Negative disables." default:"-1"`
	WithPoints bool    `help:"Only riders with fantasy or UCI points."`
	HighValue  bool    `help:"Only riders at or above the mean points per star."`
}

func (f filterFlags) criteria() filter.Criteria {
	c := filter.Criteria{
		Search:     f.Search,
		Team:       f.Team,
		Position:   f.Position,
		WithPoints: f.WithPoints,
		HighValue:  f.HighValue,
	}
	if f.MinStars >= 0 {
		c.MinStars = &f.MinStars
	}
	if f.MaxStars >= 0 {
		c.MaxStars = &f.MaxStars
	}
	return c
}

type scoreCmd struct {
	filterFlags

	Sort  string `help:"Sort column: value, points, uci_points, stars, consistency, trend, name, team, position, results, z_score." default:"value"`
	Asc   bool   `help:"Sort ascending."`
	Limit int    `help:"Print at most this many riders; 0 prints all." short:"n"`
}

func (c *scoreCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, stop, err := startService(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()
	return c.run(ctx, svc, os.Stdout)
}

func (c *scoreCmd) run(ctx context.Context, svc *service.Service, w io.Writer) error {
	key, err := filter.ParseSortKey(c.Sort)
	if err != nil {
		return err
	}
	riders, err := svc.Riders(ctx, service.Query{
		Criteria:  c.criteria(),
		Sort:      key,
		Ascending: c.Asc,
		Limit:     c.Limit,
	})
	if err != nil {
		return err
	}
	report.WriteTable(w, riders)
	return nil
}

type insightsCmd struct {
	filterFlags
}

func (c *insightsCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, stop, err := startService(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()
	return c.run(ctx, svc, os.Stdout)
}

func (c *insightsCmd) run(ctx context.Context, svc *service.Service, w io.Writer) error {
	rep, err := svc.Insights(ctx, c.criteria())
	if err != nil {
		return err
	}
	report.WriteInsights(w, rep)
	return nil
}

type exportCmd struct {
	filterFlags

	Out string `help:"Workbook to write." short:"o" default:"riders.xlsx" type:"path"`
}

func (c *exportCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, stop, err := startService(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := c.run(ctx, svc, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", c.Out)
	return nil
}

func (c *exportCmd) run(ctx context.Context, svc *service.Service, w io.Writer) error {
	riders, err := svc.Riders(ctx, service.Query{Criteria: c.criteria(), Sort: filter.SortValue})
	if err != nil {
		return err
	}
	rep, err := svc.Insights(ctx, c.criteria())
	if err != nil {
		return err
	}
	return report.WriteXLSX(w, riders, rep)
}
