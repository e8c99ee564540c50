package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultDebounce is the quiet period after a change before a run starts.
const DefaultDebounce = 200 * time.Millisecond

// Runner runs a full generation.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Watcher re-runs the generation whenever an input file changes. Runs never
// overlap: changes seen while a run is in flight schedule exactly one
// follow-up run.
type Watcher struct {
	runner   Runner
	patterns []string
	debounce time.Duration
	logger   log.Logger
}

type runResult struct {
	report *Report
	err    error
}

// NewWatcher returns a watcher for the files matching patterns. A
// non-positive debounce selects DefaultDebounce.
func NewWatcher(r Runner, patterns []string, debounce time.Duration, logger log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	clean := make([]string, 0, len(patterns))
	for _, p := range patterns {
		clean = append(clean, filepath.Clean(p))
	}
	return &Watcher{runner: r, patterns: clean, debounce: debounce, logger: logger}
}

// Watch runs once and then after every change until ctx is done. Failed
// runs are logged and do not stop the watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	dirs, err := w.dirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	level.Info(w.logger).Log("msg", "watching for changes", "dirs", strings.Join(dirs, ","))
	return w.loop(ctx, fw.Events, fw.Errors)
}

func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	var (
		fire    <-chan time.Time
		pending bool
	)
	running := w.start(ctx)
	for {
		select {
		case <-ctx.Done():
			if running != nil {
				<-running
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			level.Debug(w.logger).Log("msg", "change detected", "path", ev.Name, "op", ev.Op.String())
			fire = time.After(w.debounce)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			level.Warn(w.logger).Log("msg", "watch error", "err", err)
		case <-fire:
			fire = nil
			if running != nil {
				pending = true
				continue
			}
			running = w.start(ctx)
		case res := <-running:
			running = nil
			w.report(res)
			if pending {
				pending = false
				running = w.start(ctx)
			}
		}
	}
}

// start runs the generation in the background. The loop starts a run only
// when none is in flight.
func (w *Watcher) start(ctx context.Context) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		r, err := w.runner.Run(ctx)
		done <- runResult{report: r, err: err}
	}()
	return done
}

func (w *Watcher) report(res runResult) {
	if res.err != nil {
		level.Error(w.logger).Log("msg", "generation failed", "err", res.err)
		return
	}
	if r := res.report; r != nil {
		level.Info(w.logger).Log("msg", "regenerated", "run_id", r.RunID, "files", len(r.Files)+len(r.Written))
	}
}

// relevant reports whether ev changes a watched file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	for _, p := range w.patterns {
		if ok, _ := doublestar.PathMatch(p, name); ok {
			return true
		}
	}
	return false
}

// dirs returns the directories to watch. Editors replace files on save, so
// directories are watched instead of the files themselves.
func (w *Watcher) dirs() ([]string, error) {
	var dirs []string
	for _, p := range w.patterns {
		dir := filepath.Dir(p)
		if !strings.ContainsAny(dir, "*?[") {
			dirs = append(dirs, dir)
			continue
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("watch: bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			dirs = append(dirs, filepath.Dir(m))
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}
