// Package workspace keeps the Xcode projects under a directory loaded and
// reloads them when their project.pbxproj or schemes change.
package workspace

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// DefaultConcurrency bounds parallel project loads when none is configured.
const DefaultConcurrency = 4

type entry struct {
	project *xcode.Project
	hash    uint64
}

// Workspace is a cache of loaded projects keyed by .xcodeproj path.
type Workspace struct {
	root        string
	ignore      []string
	concurrency int

	mu      sync.RWMutex
	entries map[string]*entry
}

// Stats summarises a Sync.
type Stats struct {
	Loaded    int `json:"loaded"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
}

// New creates an empty workspace rooted at root.
func New(root string, ignore []string, concurrency int) *Workspace {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Workspace{
		root:        root,
		ignore:      ignore,
		concurrency: concurrency,
		entries:     make(map[string]*entry),
	}
}

// Root returns the directory the workspace discovers projects under.
func (w *Workspace) Root() string { return w.root }

// Sync discovers projects under the root, loads new or changed ones in
// parallel and drops projects that disappeared. A project that fails to load
// is logged and skipped; its previous version, if any, is kept.
func (w *Workspace) Sync(ctx context.Context) (Stats, error) {
	paths, err := xcode.Discover(w.root, w.ignore...)
	if err != nil {
		return Stats{}, fmt.Errorf("discovering projects: %w", err)
	}

	var (
		stats   Stats
		statsMu sync.Mutex
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := w.reload(path)
			statsMu.Lock()
			defer statsMu.Unlock()
			switch {
			case err != nil:
				log.Printf("[workspace] skipping %s: %v", path, err)
				stats.Failed++
			case changed:
				stats.Loaded++
			default:
				stats.Unchanged++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	w.mu.Lock()
	for path := range w.entries {
		if !keep[path] {
			delete(w.entries, path)
			stats.Removed++
		}
	}
	w.mu.Unlock()

	log.Printf("[workspace] %s: %d loaded, %d unchanged, %d failed, %d removed",
		w.root, stats.Loaded, stats.Unchanged, stats.Failed, stats.Removed)
	return stats, nil
}

// reload loads path when its digest differs from the cached one and
// reports whether it did.
func (w *Workspace) reload(path string) (bool, error) {
	hash, err := xcode.Digest(path)
	if err != nil {
		return false, err
	}

	w.mu.RLock()
	prev, ok := w.entries[path]
	w.mu.RUnlock()
	if ok && prev.hash == hash {
		return false, nil
	}

	p, err := xcode.Load(path)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	w.entries[path] = &entry{project: p, hash: hash}
	w.mu.Unlock()
	return true, nil
}

// Projects returns the loaded projects sorted by path.
func (w *Workspace) Projects() []*xcode.Project {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.entries))
	for p := range w.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*xcode.Project, 0, len(paths))
	for _, p := range paths {
		out = append(out, w.entries[p].project)
	}
	return out
}

// Paths returns the .xcodeproj paths of the loaded projects, sorted.
func (w *Workspace) Paths() []string {
	projects := w.Projects()
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Path
	}
	return out
}

// Project finds a loaded project by name or by .xcodeproj path. An empty
// name selects the only project when exactly one is loaded.
func (w *Workspace) Project(name string) (*xcode.Project, bool) {
	projects := w.Projects()
	if name == "" {
		if len(projects) == 1 {
			return projects[0], true
		}
		return nil, false
	}
	for _, p := range projects {
		if p.Name == name || p.Path == name {
			return p, true
		}
	}
	return nil, false
}

// Hash returns the xcode.Digest the project was loaded with.
func (w *Workspace) Hash(xcodeprojPath string) (uint64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entries[xcodeprojPath]
	if !ok {
		return 0, false
	}
	return e.hash, true
}
