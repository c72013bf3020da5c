package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAnExistingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, ".cypher", time.Millisecond)
	assert.Error(t, err)
}

func TestNew_SkipsMissingDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir, filepath.Join(dir, "missing")}, ".cypher", time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{dir}, w.Dirs())
}

func TestRelevant(t *testing.T) {
	w := &Watcher{extension: ".cypher"}

	assert.True(t, w.relevant(fsnotify.Event{Name: "symbols/v.cypher", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "symbols/v.cypher", Op: fsnotify.Remove}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "symbols/v.cypher", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "symbols/notes.md", Op: fsnotify.Write}))
}

func TestRun_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, ".cypher", 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			batches <- changed
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cypher"), []byte("CREATE (:Symbol {name: \"b\"})"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cypher"), []byte("CREATE (:Symbol {name: \"a\"})"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{filepath.Join(dir, "a.cypher"), filepath.Join(dir, "b.cypher")}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
