// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	logger     arbor.ILogger
}

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)

// NewFSNotifyWatcher creates a watcher that reports files with one of
// extensions (compared case-insensitively).
func NewFSNotifyWatcher(extensions []string, logger arbor.ILogger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	lowered := make([]string, len(extensions))
	for i, e := range extensions {
		lowered[i] = strings.ToLower(e)
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: lowered,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir and emits events until ctx is done or Stop is called.
// A rename away from the directory is reported as a deletion.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn().Err(err).Str("dir", dir).Msg("File watcher error")
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}
