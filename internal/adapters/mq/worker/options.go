package worker

import (
	"github.com/okian/peloton/internal/adapters/mq/queue"
	"github.com/okian/peloton/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.logger = log
		}
	}
}

// WithOnDone registers a callback run after every request.
func WithOnDone(fn func(queue.Request, error)) Option {
	return func(w *Worker) { w.onDone = fn }
}
