package orphans

import (
	"context"
	"testing"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// --- helpers ---

func sourceFile(project, name string, source bool) facts.Fact {
	return facts.Fact{
		Kind:    facts.KindFile,
		Name:    name,
		File:    name,
		Project: project,
		Props:   map[string]any{"source": source},
	}
}

func phase(name string, files ...string) facts.Fact {
	f := facts.Fact{Kind: facts.KindBuildPhase, Name: name}
	for _, file := range files {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelBuilds, Target: file})
	}
	return f
}

func explain(t *testing.T, s *facts.Store) []facts.Insight {
	t.Helper()
	insights, err := New().Explain(context.Background(), s)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	return insights
}

// --- tests ---

func TestExplain_NoOrphans(t *testing.T) {
	s := facts.NewStore()
	s.Add(
		sourceFile("App", "App/Source/Log.swift", true),
		sourceFile("App", "App/Info.plist", false),
		phase("App/App/Sources", "App/Source/Log.swift"),
	)
	if insights := explain(t, s); len(insights) != 0 {
		t.Errorf("expected no insights, got %+v", insights)
	}
}

func TestExplain_UnbuiltSourcesGroupedByProject(t *testing.T) {
	s := facts.NewStore()
	s.Add(
		sourceFile("App", "App/Source/Log.swift", true),
		sourceFile("App", "App/Source/Old.swift", true),
		sourceFile("App", "App/Source/Dead.m", true),
		sourceFile("Kit", "Kit/Kit.swift", true),
		phase("App/App/Sources", "App/Source/Log.swift"),
	)

	insights := explain(t, s)
	if len(insights) != 2 {
		t.Fatalf("insights = %d, want 2", len(insights))
	}
	if insights[0].Title != "2 source file(s) in App are not compiled" {
		t.Errorf("title = %q", insights[0].Title)
	}
	if insights[0].Evidence[0].File != "App/Source/Dead.m" {
		t.Errorf("evidence not sorted: %+v", insights[0].Evidence)
	}
	if insights[1].Evidence[0].File != "Kit/Kit.swift" {
		t.Errorf("second insight = %+v", insights[1])
	}
}

func TestExplain_UnusedPackages(t *testing.T) {
	s := facts.NewStore()
	s.Add(
		facts.Fact{Kind: facts.KindPackage, Name: "package:swift-log"},
		facts.Fact{Kind: facts.KindPackage, Name: "package:swift-nio"},
		facts.Fact{
			Kind:      facts.KindPackageProduct,
			Name:      "product:Logging",
			Relations: []facts.Relation{{Kind: facts.RelProvidedBy, Target: "package:swift-log"}},
		},
		facts.Fact{
			Kind:      facts.KindTarget,
			Name:      "App/App",
			Relations: []facts.Relation{{Kind: facts.RelUsesPackage, Target: "product:Logging"}},
		},
		// A project reference alone does not count as a use.
		facts.Fact{
			Kind:      facts.KindProject,
			Name:      "App",
			Relations: []facts.Relation{{Kind: facts.RelUsesPackage, Target: "package:swift-nio"}},
		},
	)

	insights := explain(t, s)
	if len(insights) != 1 {
		t.Fatalf("insights = %d, want 1", len(insights))
	}
	ev := insights[0].Evidence
	if len(ev) != 1 || ev[0].Fact != "package:swift-nio" {
		t.Errorf("evidence = %+v", ev)
	}
}

func TestExplain_Cancelled(t *testing.T) {
	s := facts.NewStore()
	s.Add(sourceFile("App", "App/A.swift", true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Explain(ctx, s); err == nil {
		t.Error("expected context error")
	}
}
