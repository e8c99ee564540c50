package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRunner blocks every run until it is released.
type gatedRunner struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (r *gatedRunner) Run(context.Context) (*Report, error) {
	r.runs.Add(1)
	r.started <- struct{}{}
	<-r.release
	return &Report{RunID: "test"}, nil
}

func (r *gatedRunner) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
}

func (r *gatedRunner) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case <-r.started:
		t.Fatal("unexpected run")
	case <-time.After(100 * time.Millisecond):
	}
}

func writeEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}

func startLoop(t *testing.T, w *Watcher) (chan fsnotify.Event, context.CancelFunc, <-chan error) {
	t.Helper()
	events := make(chan fsnotify.Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.loop(ctx, events, make(chan error)) }()
	return events, cancel, done
}

func TestWatcherFollowUpRun(t *testing.T) {
	r := newGatedRunner()
	w := NewWatcher(r, []string{"schema/*.graphql"}, 10*time.Millisecond, nil)
	events, cancel, done := startLoop(t, w)

	r.waitStarted(t)
	for range 3 {
		events <- writeEvent("schema/games.graphql")
	}
	// Let the debounce expire while the first run is still going.
	time.Sleep(50 * time.Millisecond)
	r.release <- struct{}{}

	r.waitStarted(t)
	r.release <- struct{}{}
	r.assertIdle(t)
	assert.Equal(t, int32(2), r.runs.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherDebounce(t *testing.T) {
	r := newGatedRunner()
	w := NewWatcher(r, []string{"schema/*.graphql"}, 20*time.Millisecond, nil)
	events, cancel, done := startLoop(t, w)

	r.waitStarted(t)
	r.release <- struct{}{}

	for range 5 {
		events <- writeEvent("schema/games.graphql")
	}
	r.waitStarted(t)
	r.release <- struct{}{}
	r.assertIdle(t)
	assert.Equal(t, int32(2), r.runs.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherIgnoresUnrelatedEvents(t *testing.T) {
	r := newGatedRunner()
	w := NewWatcher(r, []string{"schema/*.graphql"}, 10*time.Millisecond, nil)
	events, cancel, done := startLoop(t, w)

	r.waitStarted(t)
	r.release <- struct{}{}

	events <- writeEvent("graph/generated.go")
	events <- fsnotify.Event{Name: "schema/games.graphql", Op: fsnotify.Chmod}
	r.assertIdle(t)
	assert.Equal(t, int32(1), r.runs.Load())

	cancel()
	require.NoError(t, <-done)
}

type failingRunner struct{ runs atomic.Int32 }

func (r *failingRunner) Run(context.Context) (*Report, error) {
	r.runs.Add(1)
	return nil, errors.New("broken schema")
}

func TestWatcherKeepsRunningAfterFailure(t *testing.T) {
	r := &failingRunner{}
	w := NewWatcher(r, []string{"schema/*.graphql"}, 10*time.Millisecond, nil)
	events, cancel, done := startLoop(t, w)

	require.Eventually(t, func() bool { return r.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	events <- writeEvent("schema/games.graphql")
	require.Eventually(t, func() bool { return r.runs.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherFileSystem(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.graphql")
	require.NoError(t, os.WriteFile(schema, []byte("type Query { a: Int }\n"), 0o644))

	r := &failingRunner{}
	w := NewWatcher(r, []string{filepath.Join(dir, "*.graphql")}, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	require.Eventually(t, func() bool { return r.runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is set up and has seen a change.
		_ = os.WriteFile(schema, []byte("type Query { b: Int }\n"), 0o644)
		return r.runs.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherDirs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "schema", sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "schema", sub, "x.graphql"), nil, 0o644))
	}
	w := NewWatcher(nil, []string{
		filepath.Join(dir, "root.graphql"),
		filepath.Join(dir, "schema", "*", "*.graphql"),
		filepath.Join(dir, "queries", "*.graphql"),
		filepath.Join(dir, "queries", "more.graphql"),
	}, 0, nil)
	assert.Equal(t, DefaultDebounce, w.debounce)

	dirs, err := w.dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		dir,
		filepath.Join(dir, "queries"),
		filepath.Join(dir, "schema", "a"),
		filepath.Join(dir, "schema", "b"),
	}, dirs)
}

func TestWatcherRelevant(t *testing.T) {
	w := NewWatcher(nil, []string{"schema/**/*.graphql", "queries/*.graphql"}, 0, nil)
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{writeEvent("schema/games.graphql"), true},
		{writeEvent("schema/admin/users.graphql"), true},
		{fsnotify.Event{Name: "queries/games.graphql", Op: fsnotify.Remove}, true},
		{writeEvent("queries/nested/games.graphql"), false},
		{writeEvent("schema/games.go"), false},
		{fsnotify.Event{Name: "schema/games.graphql", Op: fsnotify.Chmod}, false},
	}
	for _, tt := range tests {
		t.Run(tt.ev.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}
