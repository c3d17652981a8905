package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

func TestFSNotifyWatcher_DefaultExtensions(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, arbor.NewLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Len(t, watcher.extensions, 3)
}

func TestFSNotifyWatcher_ExtensionFilterIgnoresCase(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{".MD"}, arbor.NewLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.isWatchedExtension("/tmp/README.md"))
	assert.False(t, watcher.isWatchedExtension("/tmp/image.png"))
}

func waitFor(t *testing.T, events <-chan ports.FileEvent, op ports.FileOperation, name string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Operation == op && filepath.Base(ev.Path) == name {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s of %s", op, name)
		}
	}
}

func TestFSNotifyWatcher_ReportsCreateAndDelete(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFSNotifyWatcher([]string{".txt"}, arbor.NewLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))
	waitFor(t, events, ports.FileCreated, "test.txt")

	require.NoError(t, os.Remove(path))
	waitFor(t, events, ports.FileDeleted, "test.txt")
}

func TestFSNotifyWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFSNotifyWatcher([]string{".txt"}, arbor.NewLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := watcher.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	ev := <-events
	assert.Equal(t, "keep.txt", filepath.Base(ev.Path))
}

func TestFSNotifyWatcher_ClosesOnCancel(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil, arbor.NewLogger())
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := watcher.Watch(ctx, t.TempDir())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}
