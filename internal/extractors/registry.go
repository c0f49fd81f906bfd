package extractors

import (
	"context"
	"path/filepath"

	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// Extractor turns loaded Xcode projects into facts.
type Extractor interface {
	// Name returns the extractor identifier (e.g. "xcodeproj", "xcscheme").
	Name() string
	// Detect returns true if this extractor has anything to say about projects.
	Detect(projects []*xcode.Project) bool
	// Extract emits facts for projects. File paths are made relative to root.
	Extract(ctx context.Context, root string, projects []*xcode.Project) ([]facts.Fact, error)
}

// Registry holds registered extractors.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds e, replacing an extractor with the same name.
func (r *Registry) Register(e Extractor) {
	for i, old := range r.extractors {
		if old.Name() == e.Name() {
			r.extractors[i] = e
			return
		}
	}
	r.extractors = append(r.extractors, e)
}

// DetectAll returns the extractors that apply to projects, in registration
// order.
func (r *Registry) DetectAll(projects []*xcode.Project) []Extractor {
	var matched []Extractor
	for _, e := range r.extractors {
		if e.Detect(projects) {
			matched = append(matched, e)
		}
	}
	return matched
}

// RelPath makes path relative to root with forward slashes. Paths outside
// root, or that cannot be made relative, are returned cleaned.
func RelPath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}
