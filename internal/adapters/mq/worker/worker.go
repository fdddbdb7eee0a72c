// Package worker applies queued reload requests one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/peloton/internal/adapters/mq/queue"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// Reloader rebuilds the population for a request.
type Reloader interface {
	Reload(ctx context.Context, r queue.Request) error
}

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker drains the queue until ctx is cancelled, Shutdown is called or the
// queue is closed.
type Worker struct {
	queue    Queue
	reloader Reloader
	name     string

	// called after each request with its outcome
	onDone func(queue.Request, error)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker reading from q.
func New(q Queue, reloader Reloader, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		reloader: reloader,
		name:     "reload-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run processes requests until stopped. It is meant to run in its own
// goroutine.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			err := w.process(ctx, r)
			if w.onDone != nil {
				w.onDone(r, err)
			}
		}
	}
}

// Shutdown stops the worker and waits for the current reload to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, r queue.Request) error {
	start := time.Now()
	err := w.reloader.Reload(ctx, r)
	ms := float64(time.Since(start).Milliseconds())

	if err != nil {
		metrics.RecordReload(r.Trigger, "error", ms)
		w.logger.Error(ctx, "reload failed",
			logger.String("trigger", r.Trigger),
			logger.Bool("force", r.Force),
			logger.Error(err),
		)
		return fmt.Errorf("reload (%s): %w", r.Trigger, err)
	}

	metrics.RecordReload(r.Trigger, "ok", ms)
	w.logger.Debug(ctx, "reload applied",
		logger.String("trigger", r.Trigger),
		logger.Duration("waited", start.Sub(r.At)),
		logger.Float64("duration_ms", ms),
	)
	return nil
}
