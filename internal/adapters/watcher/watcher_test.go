package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/watcher"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func nextEvent(t *testing.T, events <-chan ports.WatchEvent, match func(ports.WatchEvent) bool) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for watch event")
		}
	}
}

func startWatcher(t *testing.T, root string, skip ...string) (*watcher.Watcher, <-chan ports.WatchEvent) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx, root, skip))

	ch := make(chan ports.WatchEvent, 16)
	go func() {
		defer close(ch)
		for ev := range w.Events() {
			ch <- ev
		}
	}()
	return w, ch
}

func TestWatcher_ReportsWritesInNestedDirectories(t *testing.T) {
	root := t.TempDir()
	jsDir := filepath.Join(root, "assets", "js")
	require.NoError(t, os.MkdirAll(jsDir, 0o750))

	_, events := startWatcher(t, root)

	target := filepath.Join(jsDir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("var a;"), 0o600))

	ev := nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == target })
	assert.Contains(t, []domain.ChangeKind{domain.ChangeAdd, domain.ChangeModify}, ev.Kind)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, events := startWatcher(t, root)

	dir := filepath.Join(root, "imgs")
	require.NoError(t, os.Mkdir(dir, 0o750))

	// Give the watcher a moment to register the new directory.
	deadline := time.Now().Add(5 * time.Second)
	target := filepath.Join(dir, "logo.svg")
	for {
		require.NoError(t, os.WriteFile(target, []byte("<svg/>"), 0o600))
		select {
		case ev := <-events:
			if ev.Path == target {
				return
			}
		case <-time.After(100 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no event for file in new directory")
		}
	}
}

func TestWatcher_SkipsToolDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, "node_modules", "pkg")
	require.NoError(t, os.MkdirAll(hidden, 0o750))
	visible := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(visible, 0o750))

	_, events := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "index.js"), []byte("x"), 0o600))
	marker := filepath.Join(visible, "marker.js")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o600))

	// Every event before the marker must not come from node_modules.
	nextEvent(t, events, func(ev ports.WatchEvent) bool {
		assert.NotContains(t, ev.Path, "node_modules")
		return ev.Path == marker
	})
}

func TestWatcher_SkipsGivenDirectories(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "public_html", "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "css"), 0o750))
	src := filepath.Join(root, "public_html", "assets")
	require.NoError(t, os.MkdirAll(src, 0o750))

	_, events := startWatcher(t, root, dist)

	require.NoError(t, os.WriteFile(filepath.Join(dist, "css", "main.css"), []byte("a{}"), 0o600))
	marker := filepath.Join(src, "marker.scss")
	require.NoError(t, os.WriteFile(marker, []byte("a{}"), 0o600))

	nextEvent(t, events, func(ev ports.WatchEvent) bool {
		assert.NotContains(t, ev.Path, "dist")
		return ev.Path == marker
	})
}

func TestWatcher_ReportsRemovalAsUnlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))

	_, events := startWatcher(t, root)

	require.NoError(t, os.Remove(target))

	ev := nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == target })
	assert.Equal(t, domain.ChangeUnlink, ev.Kind)
}
