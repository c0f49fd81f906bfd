package orphans

import (
	"context"
	"fmt"
	"sort"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// OrphanExplainer reports source files that no build phase compiles and
// Swift packages whose products no target links.
type OrphanExplainer struct{}

// New creates a new OrphanExplainer.
func New() *OrphanExplainer {
	return &OrphanExplainer{}
}

func (e *OrphanExplainer) Name() string {
	return "orphans"
}

// Explain produces at most one insight per project for unbuilt source files
// and one workspace-wide insight for unused packages.
func (e *OrphanExplainer) Explain(ctx context.Context, store *facts.Store) ([]facts.Insight, error) {
	var insights []facts.Insight

	built := make(map[string]bool)
	for _, f := range store.ByRelation(facts.RelBuilds) {
		for _, r := range f.Relations {
			if r.Kind == facts.RelBuilds {
				built[r.Target] = true
			}
		}
	}

	byProject := make(map[string][]string)
	for _, f := range store.Files() {
		if source, _ := f.Props["source"].(bool); !source || built[f.Name] {
			continue
		}
		byProject[f.Project] = append(byProject[f.Project], f.Name)
	}

	projects := make([]string, 0, len(byProject))
	for p := range byProject {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return insights, err
		}
		files := byProject[p]
		sort.Strings(files)
		evidence := make([]facts.Evidence, 0, len(files))
		for _, file := range files {
			evidence = append(evidence, facts.Evidence{
				File:   file,
				Fact:   file,
				Detail: "not a member of any Sources phase",
			})
		}
		insights = append(insights, facts.Insight{
			Title:       fmt.Sprintf("%d source file(s) in %s are not compiled", len(files), p),
			Description: fmt.Sprintf("These files appear in the %s file tree but no target builds them. They are either dead code or missing a target membership.", p),
			Confidence:  0.8,
			Evidence:    evidence,
			Actions: []string{
				"Add the file to the Sources phase of the target that should own it",
				"Delete the file if it is no longer used",
			},
		})
	}

	if in, ok := unusedPackages(store); ok {
		insights = append(insights, in)
	}
	return insights, nil
}

// unusedPackages finds packages none of whose products are used by a
// target or a build phase.
func unusedPackages(store *facts.Store) (facts.Insight, bool) {
	used := make(map[string]bool)
	for _, f := range store.ByRelation(facts.RelUsesPackage) {
		if f.Kind == facts.KindProject {
			continue
		}
		for _, r := range f.Relations {
			if r.Kind == facts.RelUsesPackage {
				used[r.Target] = true
			}
		}
	}

	provides := make(map[string]bool)
	for _, pp := range store.ByKind(facts.KindPackageProduct) {
		if !used[pp.Name] {
			continue
		}
		for _, r := range pp.Relations {
			if r.Kind == facts.RelProvidedBy {
				provides[r.Target] = true
			}
		}
	}

	var unused []string
	for _, pkg := range store.ByKind(facts.KindPackage) {
		if !provides[pkg.Name] {
			unused = append(unused, pkg.Name)
		}
	}
	if len(unused) == 0 {
		return facts.Insight{}, false
	}
	sort.Strings(unused)

	evidence := make([]facts.Evidence, 0, len(unused))
	for _, name := range unused {
		evidence = append(evidence, facts.Evidence{Fact: name, Detail: "no target links a product of this package"})
	}
	return facts.Insight{
		Title:       fmt.Sprintf("%d Swift package(s) are never linked", len(unused)),
		Description: "These package references are resolved by Xcode on every build but no target depends on their products.",
		Confidence:  0.7,
		Evidence:    evidence,
		Actions: []string{
			"Remove the package reference from the project",
		},
	}, true
}
