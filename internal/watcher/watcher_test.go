package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, dir string, reloads *atomic.Int32) {
	t.Helper()
	w, err := New(Config{
		Dir:      dir,
		Match:    func(name string) bool { return strings.HasSuffix(name, ".txt") },
		Reload:   func(context.Context) error { reloads.Add(1); return nil },
		Debounce: 50 * time.Millisecond,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
}

func TestWatcher_DebouncesBurstIntoOneReload(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	startWatcher(t, dir, &reloads)

	path := filepath.Join(dir, "nav.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("NAV is net asset value."), 0o644))
	}

	assert.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 1, reloads.Load())
}

func TestWatcher_IgnoresUnmatchedFiles(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32
	startWatcher(t, dir, &reloads)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir()})
	assert.Error(t, err)

	_, err = New(Config{
		Dir:    filepath.Join(t.TempDir(), "missing"),
		Reload: func(context.Context) error { return nil },
	})
	assert.Error(t, err)
}
