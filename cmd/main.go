package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/peloton/internal/adapters/cache"
	"github.com/okian/peloton/internal/adapters/http/api"
	"github.com/okian/peloton/internal/adapters/http/site"
	"github.com/okian/peloton/internal/adapters/http/swagger"
	"github.com/okian/peloton/internal/adapters/source"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Custom system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "server exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	resultCache, err := cache.Open(ctx, cfg.CachePath, cache.WithTTL(time.Duration(cfg.CacheTTLDays)*24*time.Hour))
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			log.Warn(ctx, "closing cache failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, resultCache, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.RequestIDMiddleware(newMux(ctx, svc), log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService wires the rider loader, the scoring engine and the insight
// thresholds from cfg.
func newService(cfg *config.Config, resultCache cache.Cache, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithLoader(newLoader(cfg, resultCache, log)),
		service.WithEngine(newEngine(cfg)),
		service.WithInsightOptions(insightOptions(cfg)),
		service.WithMaxRidersLimit(cfg.MaxRidersLimit),
		service.WithReloadQueueSize(cfg.ReloadQueueSize),
		service.WithWatchDataFile(cfg.WatchDataFile),
	)
}

func newLoader(cfg *config.Config, resultCache cache.Cache, log logger.Logger) *source.Loader {
	opts := []source.LoaderOption{
		source.WithRacePrefix(cfg.RacePrefix),
		source.WithResultsLimit(cfg.ResultsLimit),
		source.WithLogger(log.Named("loader")),
	}
	if resultCache != nil {
		opts = append(opts, source.WithCache(resultCache))
	}
	if cfg.FetchBaseURL != "" {
		fetcher := source.NewHTTPFetcher(cfg.FetchBaseURL,
			source.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.FetchTimeoutMS) * time.Millisecond}),
			source.WithRequestDelay(time.Duration(cfg.FetchDelayMS)*time.Millisecond),
		)
		opts = append(opts, source.WithFetcher(fetcher))
	}
	if cfg.StartlistFile != "" {
		opts = append(opts, source.WithStartlist(cfg.StartlistFile))
	}
	return source.NewLoader(cfg.DataFile, opts...)
}

func newEngine(cfg *config.Config) *scoring.Engine {
	return scoring.NewEngine(
		scoring.WithTierThresholds(cfg.Scoring.EliteZ, cfg.Scoring.StrongZ, cfg.Scoring.AverageZ),
		scoring.WithOutlierThreshold(cfg.Scoring.OutlierZ),
	)
}

func insightOptions(cfg *config.Config) analytics.Options {
	opts := analytics.DefaultOptions()
	opts.ValueMinPoints = cfg.Scoring.ValueMinPoints
	opts.ValueMaxStars = cfg.Scoring.ValueMaxStars
	return opts
}

// newMux registers the API, the API reference and the landing page.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// updateServiceMetrics refreshes the population and reload queue gauges
// through GetStats.
func updateServiceMetrics(svc *service.Service) {
	_ = svc.GetStats()
}
