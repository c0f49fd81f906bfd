package renderers

import (
	"context"
	"testing"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

type stubRenderer string

func (s stubRenderer) Name() string { return string(s) }

func (s stubRenderer) Render(context.Context, *facts.Snapshot) ([]facts.Artifact, error) {
	return []facts.Artifact{{Name: string(s) + ".md"}}, nil
}

func TestRegistry_Select(t *testing.T) {
	r := NewRegistry()
	r.Register(stubRenderer("llm_context"))
	r.Register(stubRenderer("graph"))
	r.Register(stubRenderer("llm_context"))

	all := r.Select(func(string) bool { return true })
	if len(all) != 2 {
		t.Fatalf("duplicate name should replace, got %d renderers", len(all))
	}

	got := r.Select(func(name string) bool { return name == "graph" })
	if len(got) != 1 || got[0].Name() != "graph" {
		t.Errorf("Select = %v", got)
	}
}
