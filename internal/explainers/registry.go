package explainers

import (
	"context"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// Explainer analyzes facts and produces insights about the project graph.
type Explainer interface {
	// Name returns the explainer identifier (e.g. "cycles", "orphans").
	Name() string
	// Explain analyzes the fact store and returns insights. Insights and
	// their evidence must come out in a stable order.
	Explain(ctx context.Context, store *facts.Store) ([]facts.Insight, error)
}

// Registry holds explainers by name, in registration order.
type Registry struct {
	explainers []Explainer
}

// NewRegistry creates a new explainer registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds e, replacing an explainer already registered under the same
// name in place.
func (r *Registry) Register(e Explainer) {
	for i, old := range r.explainers {
		if old.Name() == e.Name() {
			r.explainers[i] = e
			return
		}
	}
	r.explainers = append(r.explainers, e)
}

// Select returns the explainers for which enabled reports true.
func (r *Registry) Select(enabled func(name string) bool) []Explainer {
	var out []Explainer
	for _, e := range r.explainers {
		if enabled(e.Name()) {
			out = append(out, e)
		}
	}
	return out
}
