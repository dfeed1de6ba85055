// # internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, excludeFiles []string) chan []string {
	t.Helper()

	changed := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{".godot"}, excludeFiles, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Watch([]string{dir}))
	return changed
}

func waitForChange(t *testing.T, changed chan []string) []string {
	t.Helper()
	select {
	case paths := <-changed:
		return paths
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
		return nil
	}
}

func TestWatcherReportsScriptWrites(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, nil)

	script := filepath.Join(dir, "player.gd")
	require.NoError(t, os.WriteFile(script, []byte("class_name Player\n"), 0o644))

	paths := waitForChange(t, changed)
	assert.Contains(t, paths, script)
}

func TestWatcherIgnoresNonScripts(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.tscn"), []byte("[node]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	select {
	case paths := <-changed:
		t.Fatalf("unexpected callback for %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherFileGlobExcludes(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, []string{"*.tmp.gd"})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.tmp.gd"), []byte("class_name Scratch\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enemy.gd"), []byte("class_name Enemy\n"), 0o644))

	paths := waitForChange(t, changed)
	assert.Contains(t, paths, filepath.Join(dir, "enemy.gd"))
	assert.NotContains(t, paths, filepath.Join(dir, "scratch.tmp.gd"))
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, nil)

	a := filepath.Join(dir, "a.gd")
	b := filepath.Join(dir, "b.gd")
	require.NoError(t, os.WriteFile(a, []byte("class_name A\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("class_name B\n"), 0o644))

	paths := waitForChange(t, changed)
	assert.Contains(t, paths, a)
	assert.Contains(t, paths, b)
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()
	changed := startWatcher(t, dir, nil)

	sub := filepath.Join(dir, "enemies")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	script := filepath.Join(sub, "slime.gd")
	require.NoError(t, os.WriteFile(script, []byte("class_name Slime\n"), 0o644))

	paths := waitForChange(t, changed)
	assert.Contains(t, paths, script)
}
