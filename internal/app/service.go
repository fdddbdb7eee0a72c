// Package service holds the rider population and answers the queries made
// by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/peloton/internal/adapters/mq/queue"
	"github.com/okian/peloton/internal/adapters/mq/worker"
	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/adapters/source"
	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/filter"
	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

const (
	defaultMaxLimit  = 500
	defaultQueueSize = 4
	shutdownTimeout  = 5 * time.Second
)

// Loader builds the rider population.
type Loader interface {
	Load(ctx context.Context) ([]rider.Record, error)
	Refresh(ctx context.Context, progress source.Progress) ([]rider.Record, error)
	DataFile() string
}

// Query selects, orders and truncates scored riders.
type Query struct {
	Criteria  filter.Criteria
	Sort      filter.SortKey
	Ascending bool
	// Limit of 0 returns every match.
	Limit int
}

// ReloadResult describes the population after a reload.
type ReloadResult struct {
	Riders   int       `json:"riders"`
	Version  uint64    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Service owns the population and its reload pipeline.
type Service struct {
	mu       sync.RWMutex
	reloadMu sync.Mutex
	statsMu  sync.RWMutex

	loader   Loader
	store    repository.Store
	engine   *scoring.Engine
	insights analytics.Options

	maxLimit  int
	queueSize int
	watch     bool

	queue   *queue.InMemoryQueue
	worker  *worker.Worker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	reloads     int
	lastTrigger string
	lastReload  time.Time
	lastErr     error

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:     repository.NewMemoryStore(),
		engine:    scoring.NewEngine(),
		insights:  analytics.DefaultOptions(),
		maxLimit:  defaultMaxLimit,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the population, then starts the reload worker and, when
// enabled, the data file watcher. A failing first load fails Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.loader == nil {
		return ErrNoLoader
	}

	s.logger.Info(ctx, "starting rider service...", logger.String("data_file", s.loader.DataFile()))
	if err := s.Reload(ctx, queue.Request{Trigger: queue.TriggerStartup, At: time.Now()}); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.New(s.queue, s, worker.WithLogger(s.logger.Named("reload")))
	go s.worker.Run(runCtx)

	if s.watch {
		if err := s.watchDataFile(runCtx, s.loader.DataFile()); err != nil {
			s.logger.Warn(ctx, "data file watch disabled", logger.Error(err))
		}
	}

	s.cancel = cancel
	s.started = true
	s.logger.Info(ctx, "rider service started",
		logger.Int("riders", s.store.Count(ctx)),
		logger.Bool("watching", s.watch),
		logger.Int("reloadQueueSize", s.queueSize),
	)
	return nil
}

// Stop shuts down the watcher and the reload worker.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	q, w, cancel := s.queue, s.worker, s.cancel
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rider service...")

	_ = q.Close()
	sctx, done := context.WithTimeout(ctx, shutdownTimeout)
	defer done()
	if err := w.Shutdown(sctx); err != nil {
		s.logger.Warn(ctx, "reload worker did not stop in time", logger.Error(err))
	}
	cancel()
	s.wg.Wait()

	s.logger.Info(ctx, "rider service stopped")
}

// Reload rebuilds the population. Force refetches every rider's results.
// Reloads never overlap. On failure the previous population stays served.
func (s *Service) Reload(ctx context.Context, r queue.Request) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var (
		records []rider.Record
		err     error
	)
	if r.Force {
		records, err = s.loader.Refresh(ctx, nil)
	} else {
		records, err = s.loader.Load(ctx)
	}
	if err != nil {
		err = fmt.Errorf("load population: %w", err)
		s.recordReload(r, err)
		return err
	}

	snap, err := s.store.Replace(ctx, records)
	if err != nil {
		s.recordReload(r, err)
		return err
	}

	scored, err := s.score(snap.Records)
	if err != nil {
		s.recordReload(r, err)
		return err
	}
	tiers, outliers := scoring.Counts(scored)
	metrics.UpdateTierCounts(labelCounts(tiers))
	metrics.UpdateOutlierCounts(labelCounts(outliers))

	s.recordReload(r, nil)
	s.log().Info(ctx, "population reloaded",
		logger.String("trigger", r.Trigger),
		logger.Int("riders", len(snap.Records)),
		logger.Any("version", snap.Version),
	)
	return nil
}

// ReloadNow reloads synchronously and reports the new population.
func (s *Service) ReloadNow(ctx context.Context, trigger string, force bool) (ReloadResult, error) {
	if s.loader == nil {
		return ReloadResult{}, ErrNoLoader
	}
	if err := s.Reload(ctx, queue.Request{Trigger: trigger, Force: force, At: time.Now()}); err != nil {
		return ReloadResult{}, err
	}
	snap := s.store.Snapshot(ctx)
	return ReloadResult{Riders: len(snap.Records), Version: snap.Version, LoadedAt: snap.LoadedAt}, nil
}

// RequestReload queues an asynchronous reload. It returns false when the
// service is not running or a reload is already pending.
func (s *Service) RequestReload(ctx context.Context, trigger string, force bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	return s.queue.Enqueue(ctx, queue.Request{Trigger: trigger, Force: force, At: time.Now()})
}

// Riders scores the riders matching q.Criteria and returns them sorted.
// Scores are relative to the filtered population.
func (s *Service) Riders(ctx context.Context, q Query) ([]scoring.ScoredRider, error) {
	if err := q.Criteria.Validate(); err != nil {
		return nil, err
	}
	if q.Limit < 0 || q.Limit > s.maxLimit {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrLimitExceeded, q.Limit, s.maxLimit)
	}
	if q.Sort == "" {
		q.Sort = filter.SortValue
	}

	snap := s.store.Snapshot(ctx)
	scored, err := s.score(filter.Apply(snap.Records, q.Criteria))
	if err != nil {
		return nil, err
	}
	filter.Sort(scored, q.Sort, q.Ascending)
	if q.Limit > 0 && len(scored) > q.Limit {
		scored = scored[:q.Limit]
	}
	return scored, nil
}

// Rider returns one rider scored within the full population. Returns
// repository.ErrNotFound for unknown names.
func (s *Service) Rider(ctx context.Context, name string) (scoring.ScoredRider, error) {
	rec, err := s.store.Get(ctx, name)
	if err != nil {
		return scoring.ScoredRider{}, err
	}
	scored, err := s.score(s.store.Snapshot(ctx).Records)
	if err != nil {
		return scoring.ScoredRider{}, err
	}
	for _, r := range scored {
		if r.Name == rec.Name {
			return r, nil
		}
	}
	return scoring.ScoredRider{}, fmt.Errorf("%w: %q", repository.ErrNotFound, name)
}

// Insights builds the analytics report for the riders matching c.
func (s *Service) Insights(ctx context.Context, c filter.Criteria) (analytics.Report, error) {
	if err := c.Validate(); err != nil {
		return analytics.Report{}, err
	}
	records := filter.Apply(s.store.Snapshot(ctx).Records, c)
	scored, err := s.score(records)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Build(records, scored, s.insights), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	snap := s.store.Snapshot(ctx)
	stats := map[string]interface{}{
		"started":  s.started,
		"riders":   len(snap.Records),
		"version":  snap.Version,
		"watching": s.started && s.watch,
		"maxLimit": s.maxLimit,
	}
	if !snap.LoadedAt.IsZero() {
		stats["loadedAt"] = snap.LoadedAt.Format(time.RFC3339)
	}
	if s.loader != nil {
		stats["dataFile"] = s.loader.DataFile()
	}
	if s.started {
		stats["pendingReloads"] = s.queue.Len(ctx)
	}

	s.statsMu.RLock()
	stats["reloads"] = s.reloads
	stats["lastReloadTrigger"] = s.lastTrigger
	if !s.lastReload.IsZero() {
		stats["lastReloadAt"] = s.lastReload.Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["lastReloadError"] = s.lastErr.Error()
	}
	s.statsMu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	metrics.UpdatePopulationSize(len(snap.Records))

	return stats
}

func (s *Service) score(records []rider.Record) ([]scoring.ScoredRider, error) {
	start := time.Now()
	scored, err := s.engine.Score(records)
	if err != nil {
		metrics.RecordValidationError()
		return nil, err
	}
	metrics.RecordScoring(len(scored), float64(time.Since(start).Microseconds())/1000)
	return scored, nil
}

func (s *Service) recordReload(r queue.Request, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.reloads++
	s.lastTrigger = r.Trigger
	s.lastReload = time.Now()
	s.lastErr = err
}

// log returns the configured logger, falling back to the global one for
// services used without Start.
func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Named("service")
}

func labelCounts[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, n := range m {
		out[string(k)] = n
	}
	return out
}
