package explainers

import (
	"context"
	"testing"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

type stubExplainer struct {
	name  string
	title string
}

func (s stubExplainer) Name() string { return s.name }

func (s stubExplainer) Explain(context.Context, *facts.Store) ([]facts.Insight, error) {
	return []facts.Insight{{Title: s.title}}, nil
}

func TestRegistry_RegisterReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExplainer{"cycles", "old"})
	r.Register(stubExplainer{"orphans", "orphans"})
	r.Register(stubExplainer{"cycles", "new"})

	all := r.Select(func(string) bool { return true })
	if len(all) != 2 {
		t.Fatalf("got %d explainers, want 2", len(all))
	}
	if all[0].Name() != "cycles" || all[1].Name() != "orphans" {
		t.Errorf("order = %s, %s", all[0].Name(), all[1].Name())
	}
	insights, _ := all[0].Explain(context.Background(), facts.NewStore())
	if insights[0].Title != "new" {
		t.Errorf("replacement not kept: %q", insights[0].Title)
	}
}

func TestRegistry_Select(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExplainer{name: "cycles"})
	r.Register(stubExplainer{name: "orphans"})
	r.Register(stubExplainer{name: "platforms"})

	got := r.Select(func(name string) bool { return name != "orphans" })
	if len(got) != 2 || got[0].Name() != "cycles" || got[1].Name() != "platforms" {
		t.Errorf("Select = %v", got)
	}
	if got := r.Select(func(string) bool { return false }); len(got) != 0 {
		t.Errorf("expected nothing selected, got %v", got)
	}
}
