package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"scanmark/internal/assessment"
)

// defaultDebounce gives the scanner time to finish writing a file before we
// pick it up; scanners create the file first and stream into it.
const defaultDebounce = 2 * time.Second

// Watch processes new scans as they land in dir. Each settled batch of new
// files runs through the normal pipeline (same ordering guarantees, files
// sorted within the batch) and the resulting Assessment is handed to
// handle. Watch returns when ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context, dir string, handle func(*assessment.Assessment) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(p.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !supported(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(p.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			p.logger.Info("processing watched batch", zap.Int("files", len(batch)))
			result, err := p.Run(ctx, batch)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				// Files can vanish between the event and the debounce (temp
				// files, renames); skip the batch and keep watching.
				p.logger.Warn("skipping failed batch", zap.Error(err), zap.Strings("files", batch))
				continue
			}
			if err := handle(result); err != nil {
				return err
			}
		}
	}
}
