// Command ridertool scores the fantasy rider population from the terminal,
// exports reports and manages the race-result cache.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/okian/peloton/internal/adapters/cache"
	"github.com/okian/peloton/internal/adapters/source"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
)

type globalCmd struct {
	Config   string `help:"YAML configuration file." env:"PELOTON_CONFIG" type:"path"`
	DataFile string `help:"Fantasy data file; overrides data_file." short:"d" type:"path"`
	CacheDB  string `help:"Race-result cache; overrides cache_path." name:"cache-db" type:"path"`
	Verbose  bool   `help:"Log at debug level." short:"v"`
}

var CLI struct {
	globalCmd

	Score    scoreCmd    `cmd:"" help:"Score riders and print them as a table."`
	Insights insightsCmd `cmd:"" help:"Print population insights."`
	Export   exportCmd   `cmd:"" help:"Write scored riders and insights to an Excel workbook."`
	Metrics  metricsCmd  `cmd:"" help:"Scrape a running server's metrics endpoint."`

	Cache struct {
		Info    cacheInfoCmd    `cmd:"" help:"Show cache statistics."`
		Clear   cacheClearCmd   `cmd:"" help:"Remove every cached race result."`
		Refresh cacheRefreshCmd `cmd:"" help:"Refetch race results for every rider."`
	} `cmd:"" name:"cache"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ridertool"),
		kong.Description("Fantasy cycling rider scoring."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&CLI.globalCmd)
	ctx.FatalIfErrorf(err)
}

// load reads configuration the same way the server does, then applies the
// command-line overrides.
func (g *globalCmd) load() (*config.Config, error) {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if g.Config != "" {
		if err := os.Setenv("PELOTON_CONFIG", g.Config); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(context.Background())
	if err != nil {
		return nil, err
	}
	if g.DataFile != "" {
		cfg.DataFile = g.DataFile
	}
	if g.CacheDB != "" {
		cfg.CachePath = g.CacheDB
	}

	level := cfg.LogLevel
	if g.Verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// openCache opens the configured SQLite cache.
func openCache(ctx context.Context, cfg *config.Config) (*cache.SQLiteCache, error) {
	c, err := cache.Open(ctx, cfg.CachePath, cache.WithTTL(time.Duration(cfg.CacheTTLDays)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.CachePath, err)
	}
	return c, nil
}

func newLoader(cfg *config.Config, c cache.Cache) *source.Loader {
	opts := []source.LoaderOption{
		source.WithCache(c),
		source.WithRacePrefix(cfg.RacePrefix),
		source.WithResultsLimit(cfg.ResultsLimit),
		source.WithLogger(logger.Named("loader")),
	}
	if cfg.FetchBaseURL != "" {
		opts = append(opts, source.WithFetcher(source.NewHTTPFetcher(cfg.FetchBaseURL,
			source.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.FetchTimeoutMS) * time.Millisecond}),
			source.WithRequestDelay(time.Duration(cfg.FetchDelayMS)*time.Millisecond),
		)))
	}
	if cfg.StartlistFile != "" {
		opts = append(opts, source.WithStartlist(cfg.StartlistFile))
	}
	return source.NewLoader(cfg.DataFile, opts...)
}

// startService loads the population into a service without the data file
// watcher. The returned stop function also closes the cache.
func startService(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	c, err := openCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	insights := analytics.DefaultOptions()
	insights.ValueMinPoints = cfg.Scoring.ValueMinPoints
	insights.ValueMaxStars = cfg.Scoring.ValueMaxStars

	svc := service.New(
		service.WithLogger(logger.Named("service")),
		service.WithLoader(newLoader(cfg, c)),
		service.WithEngine(scoring.NewEngine(
			scoring.WithTierThresholds(cfg.Scoring.EliteZ, cfg.Scoring.StrongZ, cfg.Scoring.AverageZ),
			scoring.WithOutlierThreshold(cfg.Scoring.OutlierZ),
		)),
		service.WithInsightOptions(insights),
		service.WithMaxRidersLimit(cfg.MaxRidersLimit),
		service.WithWatchDataFile(false),
	)
	if err := svc.Start(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return svc, func() {
		svc.Stop()
		_ = c.Close()
	}, nil
}
