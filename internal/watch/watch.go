// Package watch re-runs the index pipeline when the tree changes. It
// keeps a recursive fsnotify watch over the in-scope directories and
// coalesces bursts of events into a single rebuild.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/carto-dev/carto/internal/logging"
	"github.com/carto-dev/carto/internal/scanner"
)

// DefaultDebounce is how long the tree must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Func rebuilds the index after a quiet period. Errors are logged and
// watching continues.
type Func func(ctx context.Context) error

// Options tune a watch session.
type Options struct {
	Debounce time.Duration
	Rules    *scanner.Rules // exclusion decisions; defaults to LoadRules(root, nil, ...)
	Logger   logging.Logger
}

type watcher struct {
	root  string
	rules *scanner.Rules
	fw    *fsnotify.Watcher
	log   logging.Logger
}

// Watch blocks until ctx is cancelled, invoking fn once per settled batch
// of changes under root. Excluded directories are never watched, so
// artifact writes do not retrigger the pipeline.
func Watch(ctx context.Context, root string, opts Options, fn Func) error {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", absRoot)
	}

	rules := opts.Rules
	if rules == nil {
		rules = scanner.LoadRules(absRoot, nil, log)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	w := &watcher{root: absRoot, rules: rules, fw: fw, log: log}
	watched := w.addTree(absRoot, "")
	log.Info("watching %d directories under %s (debounce %s)", watched, absRoot, debounce)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		changes int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rel, inside := w.relative(event.Name)
			if !inside || w.ignored(rel, event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchDir(event.Name, rel)
			}
			changes++
			log.Debug("change detected: %s %s", event.Op, rel)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			log.Info("%d changes settled, rebuilding index", changes)
			changes = 0
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("rebuild failed: %v", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error: %v", err)
		}
	}
}

// addTree watches dir and every in-scope directory below it. Failures
// are logged and skipped so one unreadable directory does not stop the
// session. Returns the number of directories watched.
func (w *watcher) addTree(dir, rel string) int {
	if err := w.fw.Add(dir); err != nil {
		w.log.Warn("cannot watch %s: %v", dir, err)
		return 0
	}
	watched := 1
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Warn("cannot read directory %s: %v", dir, err)
		return watched
	}
	for _, entry := range entries {
		// Symlinked directories are not followed, matching the scan
		// default.
		if !entry.IsDir() {
			continue
		}
		childRel := joinRel(rel, entry.Name())
		if w.rules.SkipDir(childRel) {
			continue
		}
		watched += w.addTree(filepath.Join(dir, entry.Name()), childRel)
	}
	return watched
}

// relative maps an event path to the repo-relative slash form. Events
// outside the root are reported as not inside.
func (w *watcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *watcher) ignored(rel string, event fsnotify.Event) bool {
	if rel == "." {
		return true
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return w.rules.SkipDir(rel)
	}
	// Removed paths cannot be stat'ed; file rules cover both cases.
	return w.rules.SkipFile(rel)
}

// maybeWatchDir extends the watch when a directory appears, including a
// whole tree moved into place as one create event.
func (w *watcher) maybeWatchDir(abs, rel string) {
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return
	}
	if w.rules.SkipDir(rel) {
		return
	}
	w.addTree(abs, rel)
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
