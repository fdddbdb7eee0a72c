package service

import (
	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLoader sets the population source.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithStore replaces the in-memory population store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine sets the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithInsightOptions sets the analytics thresholds.
func WithInsightOptions(opts analytics.Options) Option {
	return func(s *Service) { s.insights = opts }
}

// WithMaxRidersLimit caps the limit accepted by Riders.
func WithMaxRidersLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithReloadQueueSize bounds the number of pending reload requests.
func WithReloadQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWatchDataFile reloads the population when the data file changes.
func WithWatchDataFile(enabled bool) Option {
	return func(s *Service) { s.watch = enabled }
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
