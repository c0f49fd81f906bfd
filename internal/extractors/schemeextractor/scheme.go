// Package schemeextractor emits facts for the .xcscheme files of each
// project, linking every scheme to the targets it builds.
package schemeextractor

import (
	"context"
	"log"

	"github.com/dejo1307/xcodemcp/internal/extractors"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// SchemeExtractor emits one fact per scheme.
type SchemeExtractor struct{}

// New creates a new SchemeExtractor.
func New() *SchemeExtractor {
	return &SchemeExtractor{}
}

func (e *SchemeExtractor) Name() string {
	return "xcscheme"
}

// Detect returns true if any project carries a scheme.
func (e *SchemeExtractor) Detect(projects []*xcode.Project) bool {
	for _, p := range projects {
		if len(p.Schemes) > 0 {
			return true
		}
	}
	return false
}

func (e *SchemeExtractor) Extract(ctx context.Context, root string, projects []*xcode.Project) ([]facts.Fact, error) {
	var out []facts.Fact
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		targets := make(map[string]string)
		for _, t := range p.Targets() {
			targets[t.ID] = facts.TargetName(p.Name, t.Name)
		}

		for _, s := range p.Schemes {
			f := facts.Fact{
				Kind:    facts.KindScheme,
				Name:    facts.SchemeName(p.Name, s.Name),
				File:    extractors.RelPath(root, s.Path),
				Project: p.Name,
				Props: map[string]any{
					"scheme":      s.Name,
					"shared":      s.Shared,
					"parallelize": s.Build.Parallelize == "YES",
				},
				Relations: []facts.Relation{
					{Kind: facts.RelBelongsTo, Target: facts.ProjectName(p.Name)},
				},
			}
			if s.Test.BuildConfiguration != "" {
				f.Props["test_configuration"] = s.Test.BuildConfiguration
			}
			if s.Launch.BuildConfiguration != "" {
				f.Props["launch_configuration"] = s.Launch.BuildConfiguration
			}
			if s.WasCreatedForAppExtension != nil {
				f.Props["app_extension"] = *s.WasCreatedForAppExtension
			}

			for _, id := range s.TargetIDs() {
				name, ok := targets[id]
				if !ok {
					// Buildables from other containers are not in this project.
					log.Printf("[xcscheme] %s: target %s not found in %s", s.Name, id, p.Name)
					continue
				}
				f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelBuilds, Target: name})
			}
			out = append(out, f)
		}
	}
	return out, nil
}
