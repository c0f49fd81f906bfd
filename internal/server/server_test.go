package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/goleak"

	"github.com/dejo1307/xcodemcp/internal/config"
	"github.com/dejo1307/xcodemcp/internal/engine"
	"github.com/dejo1307/xcodemcp/internal/explainers/cycles"
	"github.com/dejo1307/xcodemcp/internal/explainers/orphans"
	"github.com/dejo1307/xcodemcp/internal/explainers/platforms"
	"github.com/dejo1307/xcodemcp/internal/extractors/projectextractor"
	"github.com/dejo1307/xcodemcp/internal/extractors/schemeextractor"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/renderers/llmcontext"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// --- helpers ---

const appScheme = `<?xml version="1.0" encoding="UTF-8"?>
<Scheme LastUpgradeVersion = "1500" version = "1.7">
   <BuildAction parallelizeBuildables = "YES">
      <BuildActionEntries>
         <BuildActionEntry buildForRunning = "YES">
            <BuildableReference BuildableIdentifier = "primary" BlueprintIdentifier = "000000000000000000000010" BlueprintName = "App" ReferencedContainer = "container:App.xcodeproj">
            </BuildableReference>
         </BuildActionEntry>
      </BuildActionEntries>
   </BuildAction>
</Scheme>
`

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
	data, err := os.ReadFile(filepath.Join("..", "pbxproj", "testdata", "minimal.pbxproj"))
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "App", "App.xcodeproj", xcode.PBXProjName), data)
	return root
}

func newServer(t *testing.T, root string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Repo = root
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	eng.RegisterExtractor(projectextractor.New())
	eng.RegisterExtractor(schemeextractor.New())
	eng.RegisterExplainer(cycles.New())
	eng.RegisterExplainer(orphans.New())
	eng.RegisterExplainer(platforms.New())
	eng.RegisterRenderer(llmcontext.New(cfg.Output.MaxContextTokens))

	s, err := New(eng, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// generated returns a server whose snapshot has been generated through the
// generate_snapshot tool.
func generated(t *testing.T) (*Server, string) {
	t.Helper()
	root := newRepo(t)
	s := newServer(t, root)
	res, _, err := s.generateSnapshot(context.Background(), nil, generateSnapshotArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("generate_snapshot failed: %s", text(t, res))
	}
	return s, root
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected error result: %s", text(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(text(t, res)), &v); err != nil {
		t.Fatalf("decoding %s: %v", text(t, res), err)
	}
	return v
}

func wantError(t *testing.T, res *mcp.CallToolResult, substr string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected error result, got: %s", text(t, res))
	}
	if got := text(t, res); !strings.Contains(got, substr) {
		t.Errorf("error %q does not contain %q", got, substr)
	}
}

// --- tests ---

func TestNew_RequiresEngineAndConfig(t *testing.T) {
	if _, err := New(nil, config.Default()); err == nil {
		t.Error("expected error for nil engine")
	}
	eng, _ := engine.New(config.Default())
	if _, err := New(eng, nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestGenerateSnapshot_WritesArtifacts(t *testing.T) {
	s, root := generated(t)

	res, _, _ := s.generateSnapshot(context.Background(), nil, generateSnapshotArgs{RepoPath: root})
	summary := text(t, res)
	for _, want := range []string{"Projects: 1", "xcode://snapshot/context"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	for _, name := range []string{"llm_context.md", "facts.jsonl", "insights.json", "snapshot.meta.json"} {
		if _, err := os.Stat(filepath.Join(root, ".xcodemcp", name)); err != nil {
			t.Errorf("artifact %s: %v", name, err)
		}
	}
}

func TestGenerateSnapshot_BadRepo(t *testing.T) {
	s := newServer(t, t.TempDir())
	res, _, _ := s.generateSnapshot(context.Background(), nil, generateSnapshotArgs{RepoPath: filepath.Join(t.TempDir(), "missing")})
	wantError(t, res, "snapshot generation failed")
}

func TestQueryFacts_NoSnapshot(t *testing.T) {
	s := newServer(t, t.TempDir())
	res, _, _ := s.queryFacts(context.Background(), nil, queryFactsArgs{Kind: facts.KindTarget})
	wantError(t, res, "generate_snapshot")
}

func TestQueryFacts(t *testing.T) {
	s, _ := generated(t)

	type page struct {
		Total int          `json:"total"`
		Facts []facts.Fact `json:"facts"`
	}

	got := decode[page](t, mustCall(s.queryFacts(context.Background(), nil, queryFactsArgs{Kind: facts.KindTarget})))
	if got.Total != 2 || len(got.Facts) != 2 {
		t.Fatalf("targets: total=%d facts=%d", got.Total, len(got.Facts))
	}

	got = decode[page](t, mustCall(s.queryFacts(context.Background(), nil, queryFactsArgs{
		Kind: facts.KindTarget, Relation: facts.RelDependsOn,
	})))
	if got.Total != 1 || got.Facts[0].Name != "App/App" {
		t.Errorf("depends_on filter = %+v", got.Facts)
	}

	got = decode[page](t, mustCall(s.queryFacts(context.Background(), nil, queryFactsArgs{
		Kind: facts.KindFile, FilePrefix: "App/Source", Limit: 1,
	})))
	if got.Total != 2 || len(got.Facts) != 1 {
		t.Errorf("file prefix paging: total=%d facts=%d", got.Total, len(got.Facts))
	}
}

func mustCall(res *mcp.CallToolResult, _ any, err error) *mcp.CallToolResult {
	if err != nil {
		panic(err)
	}
	return res
}

func TestListTargets(t *testing.T) {
	s, _ := generated(t)

	out := text(t, mustCall(s.listTargets(context.Background(), nil, listTargetsArgs{})))
	if !strings.HasPrefix(out, "2 target(s)") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "| App/App | iOS | application | native | Debug, Release |") {
		t.Errorf("missing App row:\n%s", out)
	}

	out = text(t, mustCall(s.listTargets(context.Background(), nil, listTargetsArgs{Platform: "macos"})))
	if out != "No targets match." {
		t.Errorf("platform filter: %q", out)
	}

	res := mustCall(s.listTargets(context.Background(), nil, listTargetsArgs{Project: "Ap"}))
	wantError(t, res, `Did you mean: App?`)
}

func TestTargetInfo(t *testing.T) {
	s, _ := generated(t)

	d := decode[targetDetail](t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "App"})))
	if d.Project != "App" || d.Platform != "iOS" || d.ProductType != "com.apple.product-type.application" {
		t.Errorf("detail = %+v", d)
	}
	if strings.Join(d.Configurations, ",") != "Debug,Release" {
		t.Errorf("configurations = %v", d.Configurations)
	}
	if strings.Join(d.Sources, ",") != "App/Source/Log.swift,App/Source/Views/ContentView.swift" {
		t.Errorf("sources = %v", d.Sources)
	}
	if len(d.Dependencies) != 1 || d.Dependencies[0] != "Lint" {
		t.Errorf("dependencies = %v", d.Dependencies)
	}
	if len(d.Packages) != 1 || d.Packages[0] != "Logging" {
		t.Errorf("packages = %v", d.Packages)
	}
	var phases []string
	for _, p := range d.Phases {
		phases = append(phases, p.Name)
	}
	if strings.Join(phases, ",") != "Sources,Frameworks,SwiftLint" {
		t.Errorf("phases = %v", phases)
	}

	lint := decode[targetDetail](t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "App/Lint"})))
	if lint.BuildTool != "/usr/bin/make $(ACTION)" {
		t.Errorf("build tool = %q", lint.BuildTool)
	}
}

func TestTargetInfo_Schemes(t *testing.T) {
	root := newRepo(t)
	writeFile(t, filepath.Join(root, "App", "App.xcodeproj", "xcshareddata", "xcschemes", "App.xcscheme"), []byte(appScheme))
	s := newServer(t, root)

	d := decode[targetDetail](t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "App"})))
	if len(d.Schemes) != 1 || d.Schemes[0] != "App" {
		t.Errorf("schemes = %v", d.Schemes)
	}
	lint := decode[targetDetail](t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "Lint"})))
	if len(lint.Schemes) != 0 {
		t.Errorf("lint schemes = %v", lint.Schemes)
	}
}

func TestTargetInfo_NotFound(t *testing.T) {
	s, _ := generated(t)

	wantError(t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "Lnt"})), "Did you mean: Lint?")
	wantError(t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Project: "Other", Target: "App"})), `project "Other" not found`)
	wantError(t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{})), "target is required")
}

func TestTargetInfo_LoadsWorkspaceLazily(t *testing.T) {
	root := newRepo(t)
	s := newServer(t, root)

	d := decode[targetDetail](t, mustCall(s.targetInfo(context.Background(), nil, targetInfoArgs{Target: "Lint"})))
	if d.Kind != "PBXLegacyTarget" {
		t.Errorf("kind = %q", d.Kind)
	}
	if s.eng.Snapshot() == nil {
		t.Error("expected a snapshot after lazy load")
	}
}

func TestResolvePath(t *testing.T) {
	s, root := generated(t)

	refs := decode[[]resolvedRef](t, mustCall(s.resolvePath(context.Background(), nil, resolvePathArgs{File: "ContentView.swift"})))
	if len(refs) != 1 {
		t.Fatalf("refs = %+v", refs)
	}
	want := filepath.Join(root, "App", "Source", "Views", "ContentView.swift")
	if refs[0].FullPath != want {
		t.Errorf("full path = %q, want %q", refs[0].FullPath, want)
	}

	refs = decode[[]resolvedRef](t, mustCall(s.resolvePath(context.Background(), nil, resolvePathArgs{File: "App.app"})))
	if len(refs) != 1 || refs[0].FullPath != "" || refs[0].Error == "" {
		t.Errorf("built product should not resolve: %+v", refs)
	}

	wantError(t, mustCall(s.resolvePath(context.Background(), nil, resolvePathArgs{File: "Logg.swift"})), "Did you mean: Log.swift")
}

func TestFindGroup(t *testing.T) {
	s, root := generated(t)

	type group struct {
		resolvedRef
		Children []resolvedRef `json:"children"`
	}
	g := decode[group](t, mustCall(s.findGroup(context.Background(), nil, findGroupArgs{Group: "Source"})))
	if g.FullPath != filepath.Join(root, "App", "Source") {
		t.Errorf("full path = %q", g.FullPath)
	}
	var names []string
	for _, c := range g.Children {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Log.swift,Views" {
		t.Errorf("children = %v", names)
	}

	wantError(t, mustCall(s.findGroup(context.Background(), nil, findGroupArgs{Group: "View"})), "Did you mean: Views")
}

func TestGraphTools(t *testing.T) {
	s, _ := generated(t)
	ctx := context.Background()

	tr := decode[facts.TraversalResult](t, mustCall(s.traverse(ctx, nil, traverseArgs{
		Start: "App/App", Relations: []string{facts.RelDependsOn},
	})))
	found := false
	for _, n := range tr.Nodes {
		found = found || n.Name == "App/Lint"
	}
	if !found {
		t.Errorf("traverse did not reach App/Lint: %+v", tr.Nodes)
	}

	p := decode[facts.PathResult](t, mustCall(s.findPath(ctx, nil, findPathArgs{From: "App/App", To: "App/Source/Log.swift"})))
	if !p.Found {
		t.Error("expected a path from the target to its source file")
	}

	im := decode[facts.ImpactResult](t, mustCall(s.impact(ctx, nil, impactArgs{Target: "App/Source/Log.swift"})))
	affected := false
	for _, nodes := range im.ByDepth {
		for _, n := range nodes {
			affected = affected || n.Name == "App/App"
		}
	}
	if !affected {
		t.Errorf("App/App should be affected by Log.swift: %+v", im.ByDepth)
	}

	wantError(t, mustCall(s.traverse(ctx, nil, traverseArgs{Start: "App/App", Direction: "sideways"})), "direction")
	wantError(t, mustCall(s.impact(ctx, nil, impactArgs{Target: "App/Lnt"})), "Did you mean: App/Lint")
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Lint", "App", "AppTests", "App", "Networking"}

	if got := suggest("app", candidates, 3); len(got) == 0 || got[0] != "App" {
		t.Errorf("suggest(app) = %v", got)
	}
	if got := suggest("zzz", candidates, 3); len(got) != 0 {
		t.Errorf("suggest(zzz) = %v", got)
	}
	if got := suggest("App", candidates, 1); len(got) != 1 {
		t.Errorf("limit not applied: %v", got)
	}
	if msg := notFoundMessage("target", "zzz", candidates); msg != `target "zzz" not found` {
		t.Errorf("message = %q", msg)
	}
}

func TestStartWatcher_RegeneratesOnSchemeChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := newRepo(t)
	schemes := filepath.Join(root, "App", "App.xcodeproj", "xcshareddata", "xcschemes")
	if err := os.MkdirAll(schemes, 0o755); err != nil {
		t.Fatal(err)
	}
	s := newServer(t, root)
	s.cfg.Watch.DebounceMS = 50

	stop, err := s.startWatcher(context.Background())
	if err != nil {
		t.Fatalf("startWatcher: %v", err)
	}
	defer stop()

	if n := len(s.eng.Store().ByKind(facts.KindScheme)); n != 0 {
		t.Fatalf("expected no schemes before the edit, got %d", n)
	}
	writeFile(t, filepath.Join(schemes, "App.xcscheme"), []byte(appScheme))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.eng.Store().LookupByExactName("scheme:App/App")) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("snapshot was not regenerated after adding a scheme")
}
