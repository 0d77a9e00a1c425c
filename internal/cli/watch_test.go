package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/logging"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.hfstol")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloads := make(chan struct{}, 8)
	w, err := NewWatcher([]string{path}, func() error {
		reloads <- struct{}{}
		return nil
	}, logging.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// Give the watcher a beat to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after file change")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.hfstol")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloads := make(chan struct{}, 8)
	w, err := NewWatcher([]string{path}, func() error {
		reloads <- struct{}{}
		return nil
	}, logging.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-reloads:
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherSurvivesFailingReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.hfstol")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	reloads := make(chan error, 8)
	calls := 0
	w, err := NewWatcher([]string{path}, func() error {
		calls++
		if calls == 1 {
			reloads <- os.ErrInvalid
			return os.ErrInvalid
		}
		reloads <- nil
		return nil
	}, logging.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after first change")
	}

	// A second change still reaches the callback after the failure.
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v3"), 0o644))

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after second change")
	}
}
