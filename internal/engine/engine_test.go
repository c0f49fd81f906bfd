package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dejo1307/xcodemcp/internal/config"
	"github.com/dejo1307/xcodemcp/internal/explainers/cycles"
	"github.com/dejo1307/xcodemcp/internal/extractors/projectextractor"
	"github.com/dejo1307/xcodemcp/internal/extractors/schemeextractor"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// --- helpers ---

func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "pbxproj", "testdata", "minimal.pbxproj"))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// newRepo lays out App/App.xcodeproj under a temp dir.
func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "App", "App.xcodeproj", xcode.PBXProjName), fixture(t))
	return root
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.RegisterExtractor(projectextractor.New())
	eng.RegisterExtractor(schemeextractor.New())
	eng.RegisterExplainer(cycles.New())
	return eng
}

// --- tests ---

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestGenerateSnapshot(t *testing.T) {
	root := newRepo(t)
	eng := newEngine(t)

	snap, err := eng.GenerateSnapshot(context.Background(), root)
	if err != nil {
		t.Fatalf("GenerateSnapshot: %v", err)
	}
	if snap.Meta.FactCount == 0 || snap.Meta.FactCount != eng.Store().Count() {
		t.Errorf("FactCount = %d, store = %d", snap.Meta.FactCount, eng.Store().Count())
	}
	if len(snap.Meta.Extractors) != 1 || snap.Meta.Extractors[0] != "xcodeproj" {
		t.Errorf("extractors = %v (xcscheme has nothing to detect)", snap.Meta.Extractors)
	}
	if len(snap.Meta.Projects) != 1 || snap.Meta.Projects[0].Path != "App/App.xcodeproj" {
		t.Fatalf("projects = %+v", snap.Meta.Projects)
	}
	if snap.Meta.Projects[0].Hash == "" {
		t.Error("project hash should be set")
	}
	if eng.Store().Graph() == nil {
		t.Error("graph should be built after generation")
	}
	if eng.Workspace() == nil || len(eng.Workspace().Projects()) != 1 {
		t.Error("workspace should hold the loaded project")
	}
}

func TestGenerateSnapshot_ReusesCacheWhenUnchanged(t *testing.T) {
	root := newRepo(t)
	eng := newEngine(t)
	ctx := context.Background()

	first, err := eng.GenerateSnapshot(ctx, root)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := eng.WriteArtifacts(root); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	second, err := eng.GenerateSnapshot(ctx, root)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Meta.Extractors) != 0 {
		t.Errorf("unchanged run should reuse the cache, ran %v", second.Meta.Extractors)
	}
	if second.Meta.FactCount != first.Meta.FactCount {
		t.Errorf("cached facts = %d, want %d", second.Meta.FactCount, first.Meta.FactCount)
	}

	// A new scheme changes the project digest.
	scheme := `<Scheme><BuildAction></BuildAction></Scheme>`
	writeFile(t, filepath.Join(root, "App", "App.xcodeproj", "xcshareddata", "xcschemes", "App.xcscheme"), []byte(scheme))
	third, err := eng.GenerateSnapshot(ctx, root)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if len(third.Meta.Extractors) != 2 {
		t.Errorf("changed run should extract again, ran %v", third.Meta.Extractors)
	}
}

func TestGenerateSnapshot_NotADirectory(t *testing.T) {
	eng := newEngine(t)
	if _, err := eng.GenerateSnapshot(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing repo")
	}
}

func TestWriteArtifactsAndGetArtifact(t *testing.T) {
	root := newRepo(t)
	eng := newEngine(t)

	if err := eng.WriteArtifacts(root); err == nil {
		t.Error("WriteArtifacts before generation should fail")
	}
	if _, err := eng.GenerateSnapshot(context.Background(), root); err != nil {
		t.Fatalf("GenerateSnapshot: %v", err)
	}
	if err := eng.WriteArtifacts(root); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}
	for _, name := range []string{"facts.jsonl", "insights.json", "snapshot.meta.json"} {
		if _, err := os.Stat(filepath.Join(root, ".xcodemcp", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	data, err := eng.GetArtifact("facts.jsonl")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if !strings.Contains(string(data), `"App/App"`) {
		t.Error("facts.jsonl should contain the App target")
	}
	if _, err := eng.GetArtifact("nope.md"); err == nil {
		t.Error("expected error for unknown artifact")
	}
}

// TestGenerateSnapshot_ConcurrentCallsSerialized verifies that concurrent
// GenerateSnapshot calls do not corrupt shared state.
func TestGenerateSnapshot_ConcurrentCallsSerialized(t *testing.T) {
	root := newRepo(t)
	eng := newEngine(t)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range 3 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = eng.GenerateSnapshot(context.Background(), root)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	if got := len(eng.Store().Targets()); got != 2 {
		t.Errorf("targets = %d, want 2", got)
	}
}
