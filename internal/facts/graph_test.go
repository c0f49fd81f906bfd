package facts

import (
	"testing"
)

// buildTestGraph creates a graph from a small workspace:
//
//	App --depends_on--> Kit --depends_on--> Core --uses_package--> product:Logging
//	App --uses_package--> product:Analytics --provided_by--> package:analytics
//	Lint (disconnected)
func buildTestGraph() (*Graph, *Store) {
	s := NewStore()
	s.Add(
		Fact{Kind: KindTarget, Name: "App", Project: "App", Relations: []Relation{
			{Kind: RelDependsOn, Target: "Kit"},
			{Kind: RelUsesPackage, Target: "product:Analytics"},
		}},
		Fact{Kind: KindTarget, Name: "Kit", Project: "App", Relations: []Relation{
			{Kind: RelDependsOn, Target: "Core"},
		}},
		Fact{Kind: KindTarget, Name: "Core", Project: "App", Relations: []Relation{
			{Kind: RelUsesPackage, Target: "product:Logging"},
		}},
		Fact{Kind: KindPackageProduct, Name: "product:Logging"},
		Fact{Kind: KindPackageProduct, Name: "product:Analytics", Relations: []Relation{
			{Kind: RelProvidedBy, Target: "package:analytics"},
		}},
		Fact{Kind: KindPackage, Name: "package:analytics"},
		Fact{Kind: KindTarget, Name: "Lint", Project: "App"},
	)
	s.BuildGraph()
	return s.Graph(), s
}

// buildCyclicGraph creates a dependency cycle: A -> B -> C -> A
func buildCyclicGraph() (*Graph, *Store) {
	s := NewStore()
	s.Add(
		makeFact(KindTarget, "A", "", Relation{Kind: RelDependsOn, Target: "B"}),
		makeFact(KindTarget, "B", "", Relation{Kind: RelDependsOn, Target: "C"}),
		makeFact(KindTarget, "C", "", Relation{Kind: RelDependsOn, Target: "A"}),
	)
	s.BuildGraph()
	return s.Graph(), s
}

func TestNewGraph_BuildsAdjacencyLists(t *testing.T) {
	g, _ := buildTestGraph()

	if g.NodeCount() != 7 {
		t.Errorf("NodeCount = %d, want 7", g.NodeCount())
	}
	if g.EdgeCount() != 5 {
		t.Errorf("EdgeCount = %d, want 5", g.EdgeCount())
	}
	if got := len(g.Forward()["App"]); got != 2 {
		t.Errorf("App forward edges = %d, want 2", got)
	}
	if got := g.Reverse()["Kit"]; len(got) != 1 || got[0].Target != "App" {
		t.Errorf("Kit reverse edges = %v, want [App]", got)
	}
}

func TestNewGraph_DanglingTargetKeptAsEdge(t *testing.T) {
	g := NewGraph([]Fact{
		makeFact(KindTarget, "App", "", Relation{Kind: RelDependsOn, Target: "Missing"}),
	})
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	res := g.Traverse("App", "forward", nil, nil, 1, 10)
	names := nodeNames(res.Nodes)
	if !contains(names, "Missing") {
		t.Errorf("traverse should reach bare node; got %v", names)
	}
	for _, n := range res.Nodes {
		if n.Name == "Missing" && n.Kind != "" {
			t.Errorf("bare node kind = %q, want empty", n.Kind)
		}
	}
}

func TestTraverse_Forward(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", nil, nil, 10, 100)

	if result.Stats.NodesVisited != 6 {
		t.Errorf("NodesVisited = %d, want 6", result.Stats.NodesVisited)
	}
	names := nodeNames(result.Nodes)
	for _, want := range []string{"App", "Kit", "Core", "product:Logging", "product:Analytics", "package:analytics"} {
		if !contains(names, want) {
			t.Errorf("missing node %q in traverse result", want)
		}
	}
	if contains(names, "Lint") {
		t.Error("Lint should not be reachable from App")
	}
	if result.Nodes[0].Project != "App" || result.Nodes[0].Kind != KindTarget {
		t.Errorf("start node metadata = %+v", result.Nodes[0])
	}
}

func TestTraverse_Reverse(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("product:Logging", "reverse", nil, nil, 10, 100)

	names := nodeNames(result.Nodes)
	for _, want := range []string{"product:Logging", "Core", "Kit", "App"} {
		if !contains(names, want) {
			t.Errorf("missing node %q in reverse traverse", want)
		}
	}
	for _, e := range result.Edges {
		if e.Source == "product:Logging" {
			t.Errorf("reverse edges should point at the visited node, got %+v", e)
		}
	}
}

func TestTraverse_DepthLimit(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", nil, nil, 1, 100)

	names := nodeNames(result.Nodes)
	if len(names) != 3 || !contains(names, "Kit") || !contains(names, "product:Analytics") {
		t.Errorf("depth-1 should include App, Kit, product:Analytics; got %v", names)
	}
	if result.Stats.MaxDepthReached != 1 {
		t.Errorf("MaxDepthReached = %d, want 1", result.Stats.MaxDepthReached)
	}
}

func TestTraverse_MaxNodesLimit(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", nil, nil, 10, 3)

	if len(result.Nodes) > 3 {
		t.Errorf("maxNodes=3 but got %d nodes", len(result.Nodes))
	}
	if !result.Stats.Truncated {
		t.Error("should be truncated with maxNodes=3")
	}
}

func TestTraverse_RelationKindFilter(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", []string{RelDependsOn}, nil, 10, 100)

	names := nodeNames(result.Nodes)
	for _, want := range []string{"App", "Kit", "Core"} {
		if !contains(names, want) {
			t.Errorf("depends_on-only traverse missing %q", want)
		}
	}
	if contains(names, "product:Logging") || contains(names, "product:Analytics") {
		t.Errorf("package products should not be reachable via depends_on only; got %v", names)
	}
}

func TestTraverse_NodeKindFilter(t *testing.T) {
	g, _ := buildTestGraph()

	// Walks through targets but reports only package products.
	result := g.Traverse("App", "forward", nil, []string{KindPackageProduct}, 10, 100)

	names := nodeNames(result.Nodes)
	if !contains(names, "product:Logging") || !contains(names, "product:Analytics") {
		t.Errorf("kind filter should include both products; got %v", names)
	}
	if contains(names, "Kit") || contains(names, "Core") {
		t.Errorf("kind filter should drop targets; got %v", names)
	}
	if !contains(names, "App") {
		t.Errorf("start node should always be included; got %v", names)
	}
}

func TestTraverse_CycleHandling(t *testing.T) {
	g, _ := buildCyclicGraph()

	result := g.Traverse("A", "forward", nil, nil, 20, 100)

	if result.Stats.NodesVisited != 3 {
		t.Errorf("NodesVisited = %d, want 3", result.Stats.NodesVisited)
	}
}

func TestTraverse_DisconnectedAndMissingStart(t *testing.T) {
	g, _ := buildTestGraph()

	for _, start := range []string{"Lint", "NONEXISTENT"} {
		result := g.Traverse(start, "forward", nil, nil, 10, 100)
		if len(result.Nodes) != 1 || result.Nodes[0].Name != start {
			t.Errorf("traverse from %s: got %v, want only the start", start, nodeNames(result.Nodes))
		}
	}
}

func TestTraverse_DefaultParameters(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", nil, nil, 0, 0)
	if len(result.Nodes) != 6 {
		t.Errorf("default params should find all reachable nodes; got %d", len(result.Nodes))
	}
}

func TestTraverse_EdgesAreRecorded(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.Traverse("App", "forward", []string{RelDependsOn}, nil, 1, 100)

	if len(result.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(result.Edges))
	}
	e := result.Edges[0]
	if e.Source != "App" || e.Target != "Kit" || e.Kind != RelDependsOn {
		t.Errorf("edge = %+v, want App->Kit depends_on", e)
	}
}

func TestFindPath_MultiHop(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.FindPath("App", "product:Logging", nil, 10)

	if !result.Found {
		t.Fatal("path App->product:Logging should be found")
	}
	want := []string{"App", "Kit", "Core", "product:Logging"}
	got := pathNames(result.Path)
	if len(got) != len(want) {
		t.Fatalf("path = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, got[i], want[i])
		}
		if result.Path[i].Depth != i {
			t.Errorf("path[%d].Depth = %d, want %d", i, result.Path[i].Depth, i)
		}
	}
	if len(result.Edges) != 3 || result.Edges[2].Kind != RelUsesPackage {
		t.Errorf("edges = %+v, want 3 ending in uses_package", result.Edges)
	}
}

func TestFindPath_NoPath(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.FindPath("App", "Lint", nil, 10)
	if result.Found || len(result.Path) != 0 {
		t.Errorf("path App->Lint should not exist; got %v", pathNames(result.Path))
	}

	// Edges are directed.
	if g.FindPath("Kit", "App", nil, 10).Found {
		t.Error("path Kit->App should not exist")
	}
}

func TestFindPath_SameNode(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.FindPath("App", "App", nil, 10)
	if !result.Found || len(result.Path) != 1 {
		t.Errorf("trivial path = %+v, want found with 1 node", result)
	}
}

func TestFindPath_DepthLimit(t *testing.T) {
	g, _ := buildTestGraph()

	if g.FindPath("App", "product:Logging", nil, 2).Found {
		t.Error("3-hop path should not be found with maxDepth=2")
	}
	if !g.FindPath("App", "product:Logging", nil, 0).Found {
		t.Error("default maxDepth should find the 3-hop path")
	}
}

func TestFindPath_RelationKindFilter(t *testing.T) {
	g, _ := buildTestGraph()

	if g.FindPath("App", "product:Logging", []string{RelDependsOn}, 10).Found {
		t.Error("depends_on alone cannot reach a package product")
	}
	if !g.FindPath("App", "Core", []string{RelDependsOn}, 10).Found {
		t.Error("App->Core via depends_on should be found")
	}
}

func TestFindPath_WithCycle(t *testing.T) {
	g, _ := buildCyclicGraph()

	result := g.FindPath("A", "C", nil, 10)
	if !result.Found || len(result.Path) != 3 {
		t.Errorf("path = %v, want [A B C]", pathNames(result.Path))
	}
}

func TestImpactSet_ByDepth(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.ImpactSet("product:Logging", 10, 100, false)

	if result.Target != "product:Logging" {
		t.Errorf("Target = %q", result.Target)
	}
	for depth, want := range map[int]string{1: "Core", 2: "Kit", 3: "App"} {
		nodes := result.ByDepth[depth]
		if len(nodes) != 1 || nodes[0].Name != want {
			t.Errorf("depth %d = %v, want [%s]", depth, pathNames(nodes), want)
		}
	}
	want := "3 dependents: depth 1: 1 target; depth 2: 1 target; depth 3: 1 target"
	if result.Summary != want {
		t.Errorf("Summary = %q, want %q", result.Summary, want)
	}
	if result.Forward != nil {
		t.Error("forward should be nil unless requested")
	}
}

func TestImpactSet_SummaryGroupsKinds(t *testing.T) {
	g := NewGraph([]Fact{
		makeFact(KindTarget, "App", "", Relation{Kind: RelUsesPackage, Target: "product:Logging"}),
		makeFact(KindTarget, "Kit", "", Relation{Kind: RelUsesPackage, Target: "product:Logging"}),
		makeFact(KindScheme, "scheme:Logging", "", Relation{Kind: RelBuilds, Target: "product:Logging"}),
		makeFact(KindPackageProduct, "product:Logging", ""),
	})

	result := g.ImpactSet("product:Logging", 0, 0, false)
	want := "3 dependents: depth 1: 1 scheme, 2 targets"
	if result.Summary != want {
		t.Errorf("Summary = %q, want %q", result.Summary, want)
	}
	if len(result.Targets) != 2 || result.Targets[0] != "App" || result.Targets[1] != "Kit" {
		t.Errorf("Targets = %v, want [App Kit]", result.Targets)
	}
	if len(result.Schemes) != 1 || result.Schemes[0] != "scheme:Logging" {
		t.Errorf("Schemes = %v", result.Schemes)
	}
}

func TestImpactSet_WithForward(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.ImpactSet("Kit", 10, 100, true)

	if result.Forward == nil {
		t.Fatal("forward dependencies should be included")
	}
	if names := nodeNames(result.Forward.Nodes); !contains(names, "Core") {
		t.Errorf("forward from Kit should include Core; got %v", names)
	}
}

func TestImpactSet_NoDependents(t *testing.T) {
	g, _ := buildTestGraph()

	result := g.ImpactSet("App", 10, 100, false)
	if len(result.ByDepth) != 0 {
		t.Errorf("App should have no dependents, got %v", result.ByDepth)
	}
	if result.Summary != "No dependents found." {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestImpactSet_CycleHandling(t *testing.T) {
	g, _ := buildCyclicGraph()

	result := g.ImpactSet("A", 20, 100, false)

	total := 0
	for _, nodes := range result.ByDepth {
		total += len(nodes)
	}
	if total != 2 {
		t.Errorf("cycle impact should have 2 dependents (B, C), got %d", total)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Forward, "forward": Forward, "reverse": Reverse} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestBuildGraph_ViaStore(t *testing.T) {
	s := NewStore()
	s.Add(
		makeFact(KindTarget, "X", "", Relation{Kind: RelDependsOn, Target: "Y"}),
		makeFact(KindTarget, "Y", ""),
	)

	if s.Graph() != nil {
		t.Error("Graph should be nil before BuildGraph")
	}

	s.BuildGraph()

	g := s.Graph()
	if g == nil {
		t.Fatal("Graph should not be nil after BuildGraph")
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("nodes/edges = %d/%d, want 2/1", g.NodeCount(), g.EdgeCount())
	}
}

// --- helpers ---

func nodeNames(nodes []TraversalNode) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

func pathNames(nodes []TraversalNode) []string {
	return nodeNames(nodes)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
