package renderers

import (
	"context"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// Renderer turns a snapshot into artifacts written to the output directory
// and served as MCP resources.
type Renderer interface {
	// Name returns the renderer identifier (e.g. "llm_context").
	Name() string
	// Render produces artifacts from the given snapshot. Artifact names must
	// be unique across renderers.
	Render(ctx context.Context, snapshot *facts.Snapshot) ([]facts.Artifact, error)
}

// Registry holds renderers by name.
type Registry struct {
	renderers []Renderer
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds rnd, replacing a renderer with the same name.
func (r *Registry) Register(rnd Renderer) {
	for i, old := range r.renderers {
		if old.Name() == rnd.Name() {
			r.renderers[i] = rnd
			return
		}
	}
	r.renderers = append(r.renderers, rnd)
}

// Select returns the renderers for which enabled reports true, in
// registration order.
func (r *Registry) Select(enabled func(name string) bool) []Renderer {
	var out []Renderer
	for _, rnd := range r.renderers {
		if enabled(rnd.Name()) {
			out = append(out, rnd)
		}
	}
	return out
}
