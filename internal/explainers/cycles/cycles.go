package cycles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// CycleExplainer detects cyclic target dependencies using Tarjan's SCC
// algorithm. Xcode refuses to build such a graph, so every cycle is reported
// with full confidence.
type CycleExplainer struct{}

// New creates a new CycleExplainer.
func New() *CycleExplainer {
	return &CycleExplainer{}
}

func (e *CycleExplainer) Name() string {
	return "cycles"
}

// Explain builds the target dependency graph and reports each cycle,
// including a target that depends on itself.
func (e *CycleExplainer) Explain(ctx context.Context, store *facts.Store) ([]facts.Insight, error) {
	graph := buildDependencyGraph(store)

	var insights []facts.Insight
	for _, scc := range tarjanSCC(graph) {
		if err := ctx.Err(); err != nil {
			return insights, err
		}
		if len(scc) == 1 && !selfLoop(graph, scc[0]) {
			continue
		}
		sort.Strings(scc)

		cyclePath := strings.Join(scc, " -> ") + " -> " + scc[0]
		evidence := make([]facts.Evidence, 0, len(scc))
		for _, target := range scc {
			evidence = append(evidence, facts.Evidence{
				Target: target,
				Fact:   target,
				Detail: fmt.Sprintf("target %q is part of the cycle", target),
			})
		}

		title := fmt.Sprintf("Cyclic target dependency (%d targets)", len(scc))
		if len(scc) == 1 {
			title = fmt.Sprintf("Target %s depends on itself", scc[0])
		}
		insights = append(insights, facts.Insight{
			Title:       title,
			Description: fmt.Sprintf("These targets form a dependency cycle: %s. Xcode cannot order their builds.", cyclePath),
			Confidence:  1.0,
			Evidence:    evidence,
			Actions: []string{
				"Remove one of the target dependencies in the cycle",
				"Move the shared code into a framework that both targets depend on",
			},
		})
	}

	sort.Slice(insights, func(i, j int) bool {
		return insights[i].Evidence[0].Target < insights[j].Evidence[0].Target
	})
	return insights, nil
}

// buildDependencyGraph collects depends_on edges between known targets.
// Dependencies on targets that were not extracted (other containers) are
// dropped.
func buildDependencyGraph(store *facts.Store) map[string][]string {
	graph := make(map[string][]string)
	targets := store.Targets()
	known := make(map[string]bool, len(targets))
	for _, t := range targets {
		known[t.Name] = true
		graph[t.Name] = nil
	}
	for _, t := range targets {
		for _, rel := range t.Relations {
			if rel.Kind == facts.RelDependsOn && known[rel.Target] {
				graph[t.Name] = append(graph[t.Name], rel.Target)
			}
		}
	}
	return graph
}

func selfLoop(graph map[string][]string, v string) bool {
	for _, w := range graph[v] {
		if w == v {
			return true
		}
	}
	return false
}

// tarjanSCC implements Tarjan's strongly connected components algorithm.
// Vertices are visited in sorted order so the output is stable.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		sccs     [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlinks[v] = min(lowlinks[v], lowlinks[w])
			} else if onStack[w] {
				lowlinks[v] = min(lowlinks[v], indices[w])
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	vertices := make([]string, 0, len(graph))
	for v := range graph {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)
	for _, v := range vertices {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	return sccs
}
