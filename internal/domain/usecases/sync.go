package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// DefaultSettle is how long a burst of file events must be quiet before it is processed.
const DefaultSettle = 500 * time.Millisecond

// SyncUseCase keeps the index in step with a watched directory.
type SyncUseCase struct {
	ingest  *IngestUseCase
	loader  ports.SourceLoader
	watcher ports.FileWatcher
	settle  time.Duration
	logger  arbor.ILogger
}

// NewSyncUseCase creates a SyncUseCase. A non-positive settle selects DefaultSettle.
func NewSyncUseCase(
	ingest *IngestUseCase,
	loader ports.SourceLoader,
	watcher ports.FileWatcher,
	settle time.Duration,
	logger arbor.ILogger,
) *SyncUseCase {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &SyncUseCase{
		ingest:  ingest,
		loader:  loader,
		watcher: watcher,
		settle:  settle,
		logger:  logger,
	}
}

// Run consumes watcher events until ctx is done. Events are coalesced per
// path: a file written in several steps is re-ingested once.
func (uc *SyncUseCase) Run(ctx context.Context, dir string) error {
	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	uc.logger.Info().Str("dir", dir).Msg("Watching directory for documents")

	pending := make(map[string]ports.FileOperation)
	timer := time.NewTimer(uc.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				uc.apply(ctx, pending)
				return nil
			}
			pending[ev.Path] = ev.Operation
			timer.Reset(uc.settle)
		case <-timer.C:
			uc.apply(ctx, pending)
			pending = make(map[string]ports.FileOperation)
		}
	}
}

func (uc *SyncUseCase) apply(ctx context.Context, pending map[string]ports.FileOperation) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		op := pending[path]
		uc.logger.Debug().Str("path", path).Str("op", op.String()).Msg("File change")

		var err error
		if op == ports.FileDeleted {
			err = uc.remove(ctx, path)
		} else {
			err = uc.Reindex(ctx, path)
		}
		if err != nil {
			uc.logger.Error().Err(err).Str("path", path).Msg("Failed to sync file")
		}
	}
}

func (uc *SyncUseCase) remove(ctx context.Context, path string) error {
	n, err := uc.ingest.DeleteByFilename(ctx, filepath.Base(path))
	if err != nil {
		return err
	}
	if n > 0 {
		uc.logger.Info().Str("path", path).Int("documents", n).Msg("Removed documents for deleted file")
	}
	return nil
}

// Reindex loads path and replaces any documents previously ingested from it.
// Earlier versions are removed only after the new one is stored, so a failed
// ingest leaves them searchable.
func (uc *SyncUseCase) Reindex(ctx context.Context, path string) error {
	src, err := uc.loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	doc, err := uc.ingest.Ingest(ctx, *src)
	if err != nil {
		return err
	}

	existing, err := uc.ingest.FindByFilename(ctx, src.Filename)
	if err != nil {
		return err
	}
	for _, old := range existing {
		if old.ID == doc.ID {
			continue
		}
		if err := uc.ingest.Delete(ctx, old.ID); err != nil {
			return err
		}
	}
	return nil
}

// Rescan ingests supported files in dir that have no document yet and
// returns how many were ingested.
func (uc *SyncUseCase) Rescan(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	ingested := 0
	for _, e := range entries {
		if e.IsDir() || !uc.ingest.Supports(e.Name()) {
			continue
		}
		existing, err := uc.ingest.FindByFilename(ctx, e.Name())
		if err != nil {
			return ingested, err
		}
		if len(existing) > 0 {
			continue
		}

		path := filepath.Join(dir, e.Name())
		src, err := uc.loader.Load(ctx, path)
		if err != nil {
			uc.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable file")
			continue
		}
		if _, err := uc.ingest.Ingest(ctx, *src); err != nil {
			uc.logger.Warn().Err(err).Str("path", path).Msg("Skipping file that failed to ingest")
			continue
		}
		ingested++
	}

	uc.logger.Debug().Str("dir", dir).Int("ingested", ingested).Msg("Rescan complete")
	return ingested, nil
}
