// Package watch reports edits to project.pbxproj and scheme files of loaded
// Xcode projects so the snapshot can be regenerated.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// schemeDirs are the directories inside a bundle that hold .xcscheme files.
var schemeDirs = []string{
	"xcshareddata/xcschemes",
	"xcuserdata/*/xcschemes",
}

// OnChange receives the changed files of one debounced batch, sorted.
type OnChange func(ctx context.Context, changed []string)

// Watcher watches .xcodeproj bundles. Events are batched until no relevant
// event arrived for the debounce interval.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange OnChange
}

// New creates a Watcher. Call Add for each bundle, then Run.
func New(debounce time.Duration, onChange OnChange) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{fsw: fsw, debounce: debounce, onChange: onChange}, nil
}

// Add watches the bundle directory and its scheme directories. Adding a
// bundle twice is a no-op.
func (w *Watcher) Add(xcodeprojPath string) error {
	if err := w.fsw.Add(xcodeprojPath); err != nil {
		return fmt.Errorf("watching %s: %w", xcodeprojPath, err)
	}
	fsys := os.DirFS(xcodeprojPath)
	for _, pattern := range schemeDirs {
		dirs, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("globbing %s: %w", pattern, err)
		}
		for _, d := range dirs {
			full := filepath.Join(xcodeprojPath, filepath.FromSlash(d))
			if info, err := os.Stat(full); err != nil || !info.IsDir() {
				continue
			}
			if err := w.fsw.Add(full); err != nil {
				log.Printf("[watch] cannot watch %s: %v", full, err)
			}
		}
	}
	return nil
}

// Run delivers debounced batches to the callback until ctx is cancelled.
// The callback runs on Run's goroutine, so batches never overlap. Run
// closes the underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
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

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			pending[ev.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] error: %v", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)
			log.Printf("[watch] %d project file(s) changed", len(changed))
			w.onChange(ctx, changed)
		}
	}
}

// Close stops watching without running. It is safe to call after Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// relevant reports whether ev touches a file that Load reads. Xcode saves
// by writing a temporary file and renaming it, so Create counts.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return base == xcode.PBXProjName || filepath.Ext(base) == ".xcscheme"
}
