package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dejo1307/xcodemcp/internal/config"
	"github.com/dejo1307/xcodemcp/internal/explainers"
	"github.com/dejo1307/xcodemcp/internal/extractors"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/renderers"
	"github.com/dejo1307/xcodemcp/internal/workspace"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// Engine orchestrates the snapshot generation pipeline.
type Engine struct {
	cfg        *config.Config
	extractors *extractors.Registry
	explainers *explainers.Registry
	renderers  *renderers.Registry
	store      *facts.Store

	// genMu serializes GenerateSnapshot; mu guards the fields below.
	genMu      sync.Mutex
	mu         sync.RWMutex
	ws         *workspace.Workspace
	snapshot   *facts.Snapshot
	prevHashes map[string]string // project path -> hash from previous run
}

// New creates a new Engine with the given config.
// Extractors, explainers, and renderers must be registered after creation.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return &Engine{
		cfg:        cfg,
		extractors: extractors.NewRegistry(),
		explainers: explainers.NewRegistry(),
		renderers:  renderers.NewRegistry(),
		store:      facts.NewStore(),
	}, nil
}

// RegisterExtractor adds an extractor to the engine.
func (e *Engine) RegisterExtractor(ext extractors.Extractor) {
	e.extractors.Register(ext)
}

// RegisterExplainer adds an explainer to the engine.
func (e *Engine) RegisterExplainer(exp explainers.Explainer) {
	e.explainers.Register(exp)
}

// RegisterRenderer adds a renderer to the engine.
func (e *Engine) RegisterRenderer(rnd renderers.Renderer) {
	e.renderers.Register(rnd)
}

// Store returns the fact store.
func (e *Engine) Store() *facts.Store {
	return e.store
}

// Snapshot returns the last generated snapshot, or nil.
func (e *Engine) Snapshot() *facts.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// SetSnapshot replaces the current snapshot, e.g. after loading cached
// facts at startup.
func (e *Engine) SetSnapshot(s *facts.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = s
}

// Config returns the engine config.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Workspace returns the workspace of the last generation, or nil.
func (e *Engine) Workspace() *workspace.Workspace {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ws
}

// workspaceFor returns the workspace rooted at root, replacing the current
// one when the root changed.
func (e *Engine) workspaceFor(root string) *workspace.Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ws == nil || e.ws.Root() != root {
		e.ws = workspace.New(root, e.cfg.Ignore, e.cfg.Workspace.Concurrency)
	}
	return e.ws
}

// GenerateSnapshot runs the full pipeline: discover -> extract -> explain -> render.
// When no project changed since the previous run, facts are reloaded from
// the facts.jsonl cache instead of being extracted again.
func (e *Engine) GenerateSnapshot(ctx context.Context, repoPath string) (*facts.Snapshot, error) {
	e.genMu.Lock()
	defer e.genMu.Unlock()

	start := time.Now()

	if repoPath == "" {
		repoPath = e.cfg.Repo
	}

	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}
	if info, err := os.Stat(absRepo); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repo path %s is not a directory", absRepo)
	}

	// Load previous hashes for incremental support
	e.loadPreviousHashes(absRepo)

	// 1. Discover and (re)load projects
	ws := e.workspaceFor(absRepo)
	if _, err := ws.Sync(ctx); err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	projects := ws.Projects()
	log.Printf("[engine] found %d projects in %s", len(projects), absRepo)

	// 2. Hash projects and compare with the previous run
	hashes := e.hashProjects(ws, projects)
	changed := e.changedProjects(hashes)
	log.Printf("[engine] %d of %d projects changed since last run", len(changed), len(hashes))

	e.store.Clear()

	// 3. Extract, unless nothing changed and the cache is readable
	var usedExtractors []string
	reused := false
	if len(e.prevHashes) > 0 && len(changed) == 0 {
		prevFactsPath := filepath.Join(absRepo, e.cfg.Output.Dir, "facts.jsonl")
		if err := e.store.ReadJSONLFile(prevFactsPath); err == nil {
			log.Printf("[engine] no changes detected, reloaded %d facts from cache", e.store.Count())
			reused = true
		} else {
			// Cache miss, extract everything
			e.store.Clear()
		}
	}
	if !reused {
		usedExtractors, err = e.runExtractors(ctx, absRepo, projects)
		if err != nil {
			return nil, fmt.Errorf("extraction: %w", err)
		}
		log.Printf("[engine] extracted %d facts using %d extractors", e.store.Count(), len(usedExtractors))
	}
	e.store.BuildGraph()

	// 4. Run explainers
	allInsights, usedExplainers, err := e.runExplainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("explanation: %w", err)
	}
	log.Printf("[engine] produced %d insights using %d explainers", len(allInsights), len(usedExplainers))

	// 5. Build snapshot
	duration := time.Since(start)
	snapshot := &facts.Snapshot{
		Meta: facts.SnapshotMeta{
			Root:         absRepo,
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
			Duration:     duration.String(),
			Extractors:   usedExtractors,
			Explainers:   usedExplainers,
			Renderers:    []string{},
			Projects:     hashes,
			FactCount:    e.store.Count(),
			InsightCount: len(allInsights),
		},
		Facts:    e.store.All(),
		Insights: allInsights,
	}

	// 6. Run renderers
	usedRenderers, err := e.runRenderers(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}
	snapshot.Meta.Renderers = usedRenderers
	log.Printf("[engine] produced %d artifacts using %d renderers", len(snapshot.Artifacts), len(usedRenderers))

	e.SetSnapshot(snapshot)
	log.Printf("[engine] snapshot generated in %s", duration)
	return snapshot, nil
}

// hashProjects records the digest each project was loaded with.
func (e *Engine) hashProjects(ws *workspace.Workspace, projects []*xcode.Project) []facts.ProjectHash {
	out := make([]facts.ProjectHash, 0, len(projects))
	for _, p := range projects {
		h, ok := ws.Hash(p.Path)
		if !ok {
			continue
		}
		out = append(out, facts.ProjectHash{
			Path:    extractors.RelPath(ws.Root(), p.Path),
			Hash:    strconv.FormatUint(h, 16),
			ModTime: fileModTime(filepath.Join(p.Path, xcode.PBXProjName)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// changedProjects lists projects that are new or whose hash differs. A
// project that disappeared also counts as a change.
func (e *Engine) changedProjects(hashes []facts.ProjectHash) []string {
	var changed []string
	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		seen[h.Path] = true
		if prev, ok := e.prevHashes[h.Path]; !ok || prev != h.Hash {
			changed = append(changed, h.Path)
		}
	}
	for path := range e.prevHashes {
		if !seen[path] {
			changed = append(changed, path)
		}
	}
	return changed
}

// stage is one named step of the pipeline.
type stage interface {
	Name() string
}

// runStage calls run for every stage in order and collects the output. A
// failing stage is logged and skipped unless ctx is done.
func runStage[S stage, T any](ctx context.Context, kind string, stages []S, run func(S) ([]T, error)) ([]T, []string, error) {
	var (
		out  []T
		used []string
	)
	for _, st := range stages {
		log.Printf("[engine] running %s: %s", kind, st.Name())
		produced, err := run(st)
		if err != nil {
			if ctx.Err() != nil {
				return out, used, ctx.Err()
			}
			log.Printf("[engine] %s %s error: %v", kind, st.Name(), err)
			continue
		}
		out = append(out, produced...)
		used = append(used, st.Name())
		log.Printf("[engine] %s %s: %d results", kind, st.Name(), len(produced))
	}
	return out, used, nil
}

func (e *Engine) runExtractors(ctx context.Context, root string, projects []*xcode.Project) ([]string, error) {
	var enabled []extractors.Extractor
	for _, ext := range e.extractors.DetectAll(projects) {
		if e.cfg.IsExtractorEnabled(ext.Name()) {
			enabled = append(enabled, ext)
		}
	}
	extracted, used, err := runStage(ctx, "extractor", enabled, func(ext extractors.Extractor) ([]facts.Fact, error) {
		return ext.Extract(ctx, root, projects)
	})
	e.store.Add(extracted...)
	return used, err
}

func (e *Engine) runExplainers(ctx context.Context) ([]facts.Insight, []string, error) {
	return runStage(ctx, "explainer", e.explainers.Select(e.cfg.IsExplainerEnabled), func(exp explainers.Explainer) ([]facts.Insight, error) {
		return exp.Explain(ctx, e.store)
	})
}

// runRenderers appends artifacts to snapshot. Renderer failures never abort
// generation.
func (e *Engine) runRenderers(ctx context.Context, snapshot *facts.Snapshot) ([]string, error) {
	artifacts, used, _ := runStage(ctx, "renderer", e.renderers.Select(e.cfg.IsRendererEnabled), func(rnd renderers.Renderer) ([]facts.Artifact, error) {
		return rnd.Render(ctx, snapshot)
	})
	snapshot.Artifacts = append(snapshot.Artifacts, artifacts...)
	return used, nil
}

// WriteArtifacts writes all snapshot artifacts to the output directory,
// including facts.jsonl, insights.json, and snapshot.meta.json.
func (e *Engine) WriteArtifacts(repoPath string) error {
	snapshot := e.Snapshot()
	if snapshot == nil {
		return fmt.Errorf("no snapshot generated")
	}

	outDir := filepath.Join(repoPath, e.cfg.Output.Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	// Write renderer artifacts (e.g. llm_context.md)
	for _, a := range snapshot.Artifacts {
		path := filepath.Join(outDir, a.Name)
		if err := os.WriteFile(path, a.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.Name, err)
		}
		log.Printf("[engine] wrote %s (%d bytes)", path, len(a.Content))
	}

	factsPath := filepath.Join(outDir, "facts.jsonl")
	if err := e.store.WriteJSONLFile(factsPath); err != nil {
		return fmt.Errorf("writing facts.jsonl: %w", err)
	}
	log.Printf("[engine] wrote %s", factsPath)

	for name, v := range map[string]any{
		"insights.json":      snapshot.Insights,
		"snapshot.meta.json": snapshot.Meta,
	} {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", name, err)
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("[engine] wrote %s (%d bytes)", path, len(data))
	}

	return nil
}

// GetArtifact returns the content of a named artifact, or the generated JSONL/JSON files.
func (e *Engine) GetArtifact(name string) ([]byte, error) {
	snapshot := e.Snapshot()
	if snapshot == nil {
		return nil, fmt.Errorf("no snapshot generated")
	}

	switch name {
	case "facts.jsonl":
		var buf bytes.Buffer
		if err := e.store.WriteJSONL(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "insights.json":
		return json.MarshalIndent(snapshot.Insights, "", "  ")
	case "snapshot.meta.json":
		return json.MarshalIndent(snapshot.Meta, "", "  ")
	default:
		for _, a := range snapshot.Artifacts {
			if a.Name == name {
				return a.Content, nil
			}
		}
		return nil, fmt.Errorf("artifact %q not found", name)
	}
}

// loadPreviousHashes reads project hashes from the previous snapshot.meta.json.
func (e *Engine) loadPreviousHashes(repoPath string) {
	metaPath := filepath.Join(repoPath, e.cfg.Output.Dir, "snapshot.meta.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		e.prevHashes = nil
		return
	}

	var meta facts.SnapshotMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		e.prevHashes = nil
		return
	}

	e.prevHashes = make(map[string]string, len(meta.Projects))
	for _, ph := range meta.Projects {
		e.prevHashes[ph.Path] = ph.Hash
	}
	log.Printf("[engine] loaded %d project hashes from previous snapshot", len(e.prevHashes))
}

// fileModTime returns the modification time of a file as an RFC3339 string.
func fileModTime(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}
