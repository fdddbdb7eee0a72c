package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/peloton/internal/adapters/mq/queue"
	"github.com/okian/peloton/pkg/logger"
)

// watchDataFile queues a reload whenever path is written or recreated. The
// parent directory is watched so atomic saves that swap the file are seen.
// The watcher stops when ctx is cancelled.
func (s *Service) watchDataFile(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	log := s.logger.With(logger.String("path", target))
	log.Info(ctx, "watching data file for changes")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if s.RequestReload(ctx, queue.TriggerWatch, false) {
					log.Info(ctx, "data file changed, reload queued", logger.String("op", event.Op.String()))
				} else {
					log.Debug(ctx, "data file changed, reload already pending")
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error(ctx, "watcher error", logger.Error(err))
			}
		}
	}()
	return nil
}
