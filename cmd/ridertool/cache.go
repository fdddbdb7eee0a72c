package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"

	"github.com/okian/peloton/internal/adapters/cache"
)

type cacheInfoCmd struct{}

func (c *cacheInfoCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rc, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	info, err := rc.Info(ctx)
	if err != nil {
		return err
	}
	writeCacheInfo(os.Stdout, info)
	return nil
}

func writeCacheInfo(w io.Writer, info cache.Info) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Race-result cache")
	t.AppendRows([]table.Row{
		{"Path", info.Path},
		{"Entries", info.Entries},
		{"Stale", info.Stale},
		{"TTL", info.TTL.String()},
		{"Oldest", formatTime(info.Oldest)},
		{"Newest", formatTime(info.Newest)},
	})
	t.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

type cacheClearCmd struct {
	Yes bool `help:"Do not ask for confirmation." short:"y"`
}

// confirm asks a yes/no question on the terminal.
var confirm = func(msg string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: msg, Default: false}, &ok)
	return ok, err
}

func (c *cacheClearCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rc, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer rc.Close()
	return c.run(ctx, rc, os.Stdout)
}

func (c *cacheClearCmd) run(ctx context.Context, rc cache.Cache, w io.Writer) error {
	if !c.Yes {
		info, err := rc.Info(ctx)
		if err != nil {
			return err
		}
		ok, err := confirm(fmt.Sprintf("Remove %d cached race results?", info.Entries))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "cache left untouched")
			return nil
		}
	}
	n, err := rc.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "removed %d entries\n", n)
	return nil
}

type cacheRefreshCmd struct {
	NoProgress bool `help:"Do not display a progress bar."`
}

func (c *cacheRefreshCmd) Run(g *globalCmd) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if cfg.FetchBaseURL == "" {
		return errors.New("fetch_base_url is not configured; nothing to refresh from")
	}
	ctx := context.Background()
	rc, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	var bar *progressbar.ProgressBar
	riders, err := newLoader(cfg, rc).Refresh(ctx, func(done, total int, name string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetVisibility(!c.NoProgress),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		bar.Describe(name)
		_ = bar.Set(done)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nrefreshed %d riders\n", len(riders))
	return nil
}
