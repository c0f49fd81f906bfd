package facts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Direction selects which way relations are followed.
type Direction string

const (
	// Forward follows relations from source to target: what a fact uses,
	// contains or builds.
	Forward Direction = "forward"
	// Reverse follows relations backwards: what uses, contains or builds a
	// fact.
	Reverse Direction = "reverse"
)

// ParseDirection accepts "forward", "reverse" or "" (forward).
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Forward:
		return Forward, nil
	case Reverse:
		return Reverse, nil
	}
	return "", fmt.Errorf("direction must be forward or reverse, got %q", s)
}

// Walk limits: defaults apply to zero or negative values, caps to larger ones.
const (
	defaultTraverseDepth = 5
	defaultPathDepth     = 10
	defaultImpactDepth   = 3
	maxWalkDepth         = 20
	maxImpactDepth       = 10

	defaultTraverseNodes = 100
	defaultImpactNodes   = 200
	maxWalkNodes         = 500
)

func clamp(v, def, limit int) int {
	if v <= 0 {
		return def
	}
	return min(v, limit)
}

// Graph is the relation index over a snapshot's facts: forward and reverse
// adjacency keyed by fact name. It is rebuilt from the Store after each
// snapshot and never mutated afterwards.
type Graph struct {
	mu      sync.RWMutex
	forward map[string][]Edge
	reverse map[string][]Edge
	facts   []Fact
	factIdx map[string]int // fact name -> first fact with that name
}

// Edge is one adjacency entry. In the reverse index Target holds the
// relation's source.
type Edge struct {
	RelKind string // "has_target", "builds", "depends_on", ...
	Target  string
}

// TraversalResult holds the output of a graph traversal.
type TraversalResult struct {
	Nodes []TraversalNode `json:"nodes"`
	Edges []TraversalEdge `json:"edges"`
	Stats TraversalStats  `json:"stats"`
}

// TraversalNode is a fact reached by a walk. Kind, File and Project are
// empty for relation targets that name no fact.
type TraversalNode struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	File    string `json:"file,omitempty"`
	Project string `json:"project,omitempty"`
	Depth   int    `json:"depth"`
}

// TraversalEdge is a relation crossed by a walk, always in source -> target
// orientation.
type TraversalEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

type TraversalStats struct {
	NodesVisited    int  `json:"nodes_visited"`
	EdgesTraversed  int  `json:"edges_traversed"`
	MaxDepthReached int  `json:"max_depth_reached"`
	Truncated       bool `json:"truncated"`
}

// ImpactResult lists what depends on a fact, bucketed by distance. Targets
// and Schemes name the targets and schemes among the dependents, which is
// what has to be rebuilt when the fact changes.
type ImpactResult struct {
	Target  string                  `json:"target"`
	ByDepth map[int][]TraversalNode `json:"by_depth"`
	Edges   []TraversalEdge         `json:"edges"`
	Targets []string                `json:"affected_targets,omitempty"`
	Schemes []string                `json:"affected_schemes,omitempty"`
	Summary string                  `json:"summary"`
	Stats   TraversalStats          `json:"stats"`
	Forward *TraversalResult        `json:"forward_dependencies,omitempty"`
}

// PathResult holds a shortest-path result.
type PathResult struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Found bool            `json:"found"`
	Path  []TraversalNode `json:"path,omitempty"`
	Edges []TraversalEdge `json:"edges,omitempty"`
}

// NewGraph indexes the relations of ff. Relations whose target names no
// fact are kept, so the target shows up as a bare node.
func NewGraph(ff []Fact) *Graph {
	g := &Graph{
		forward: make(map[string][]Edge),
		reverse: make(map[string][]Edge),
		facts:   ff,
		factIdx: make(map[string]int, len(ff)),
	}
	for i, f := range ff {
		if f.Name == "" {
			continue
		}
		if _, seen := g.factIdx[f.Name]; !seen {
			g.factIdx[f.Name] = i
		}
		for _, rel := range f.Relations {
			g.forward[f.Name] = append(g.forward[f.Name], Edge{RelKind: rel.Kind, Target: rel.Target})
			g.reverse[rel.Target] = append(g.reverse[rel.Target], Edge{RelKind: rel.Kind, Target: f.Name})
		}
	}
	return g
}

// step is one edge crossed during a breadth-first walk.
type step struct {
	from  string
	edge  Edge
	depth int // depth of edge.Target
	first bool
}

// walk runs a breadth-first search from start, calling visit for every
// edge that passes relKinds and lies within maxDepth, including edges to
// nodes already seen (first is false for those). visit returns whether
// to expand the edge's target; returning stop ends the walk.
func (g *Graph) walk(start string, dir Direction, relKinds map[string]struct{}, maxDepth int, visit func(s step) (expand, stop bool)) map[string]bool {
	adj := g.forward
	if dir == Reverse {
		adj = g.reverse
	}

	type item struct {
		name  string
		depth int
	}
	seen := map[string]bool{start: true}
	queue := []item{{start, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range adj[cur.name] {
			if relKinds != nil {
				if _, ok := relKinds[e.RelKind]; !ok {
					continue
				}
			}
			first := !seen[e.Target]
			seen[e.Target] = true
			expand, stop := visit(step{from: cur.name, edge: e, depth: cur.depth + 1, first: first})
			if stop {
				return seen
			}
			if first && expand {
				queue = append(queue, item{e.Target, cur.depth + 1})
			}
		}
	}
	return seen
}

// oriented returns the edge crossed in s as a source -> target relation.
func oriented(s step, dir Direction) TraversalEdge {
	if dir == Reverse {
		return TraversalEdge{Source: s.edge.Target, Target: s.from, Kind: s.edge.RelKind}
	}
	return TraversalEdge{Source: s.from, Target: s.edge.Target, Kind: s.edge.RelKind}
}

// Traverse walks breadth-first from start. relKinds restricts the relations
// followed and nodeKinds the fact kinds reported; nodes of other kinds are
// still walked through. The start node is always reported. maxDepth
// defaults to 5 and maxNodes to 100.
func (g *Graph) Traverse(start string, dir Direction, relKinds, nodeKinds []string, maxDepth, maxNodes int) TraversalResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	maxDepth = clamp(maxDepth, defaultTraverseDepth, maxWalkDepth)
	maxNodes = clamp(maxNodes, defaultTraverseNodes, maxWalkNodes)
	kinds := toSet(nodeKinds)

	res := TraversalResult{Nodes: []TraversalNode{g.nodeFor(start, 0)}}
	seen := g.walk(start, dir, toSet(relKinds), maxDepth, func(s step) (bool, bool) {
		res.Stats.EdgesTraversed++
		res.Edges = append(res.Edges, oriented(s, dir))
		if !s.first {
			return false, false
		}
		res.Stats.MaxDepthReached = max(res.Stats.MaxDepthReached, s.depth)

		node := g.nodeFor(s.edge.Target, s.depth)
		if kinds != nil {
			if _, ok := kinds[node.Kind]; !ok {
				return true, false
			}
		}
		if len(res.Nodes) >= maxNodes {
			res.Stats.Truncated = true
			return false, false
		}
		res.Nodes = append(res.Nodes, node)
		return true, false
	})
	res.Stats.NodesVisited = len(seen)
	return res
}

// FindPath returns the shortest forward path from one fact to another,
// following only relKinds when given. maxDepth defaults to 10.
func (g *Graph) FindPath(from, to string, relKinds []string, maxDepth int) PathResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	res := PathResult{From: from, To: to}
	if from == to {
		res.Found = true
		res.Path = []TraversalNode{g.nodeFor(from, 0)}
		return res
	}

	via := make(map[string]step)
	g.walk(from, Forward, toSet(relKinds), clamp(maxDepth, defaultPathDepth, maxWalkDepth), func(s step) (bool, bool) {
		if !s.first {
			return false, false
		}
		via[s.edge.Target] = s
		if s.edge.Target == to {
			res.Found = true
			return false, true
		}
		return true, false
	})
	if !res.Found {
		return res
	}

	var hops []step
	for cur := to; cur != from; cur = via[cur].from {
		hops = append(hops, via[cur])
	}
	res.Path = append(res.Path, g.nodeFor(from, 0))
	for i := len(hops) - 1; i >= 0; i-- {
		s := hops[i]
		res.Path = append(res.Path, g.nodeFor(s.edge.Target, s.depth))
		res.Edges = append(res.Edges, oriented(s, Forward))
	}
	return res
}

// ImpactSet lists the facts that transitively depend on target, grouped by
// depth, together with the targets and schemes among them. maxDepth
// defaults to 3 and maxNodes to 200. With includeForward the result also
// carries what target itself depends on.
func (g *Graph) ImpactSet(target string, maxDepth, maxNodes int, includeForward bool) ImpactResult {
	maxDepth = clamp(maxDepth, defaultImpactDepth, maxImpactDepth)
	maxNodes = clamp(maxNodes, defaultImpactNodes, maxWalkNodes)

	rev := g.Traverse(target, Reverse, nil, nil, maxDepth, maxNodes)
	res := ImpactResult{
		Target:  target,
		ByDepth: make(map[int][]TraversalNode),
		Edges:   rev.Edges,
		Stats:   rev.Stats,
	}
	for _, n := range rev.Nodes[1:] {
		res.ByDepth[n.Depth] = append(res.ByDepth[n.Depth], n)
		switch n.Kind {
		case KindTarget:
			res.Targets = append(res.Targets, n.Name)
		case KindScheme:
			res.Schemes = append(res.Schemes, n.Name)
		}
	}
	sort.Strings(res.Targets)
	sort.Strings(res.Schemes)
	res.Summary = impactSummary(res.ByDepth)

	if includeForward {
		fwd := g.Traverse(target, Forward, nil, nil, maxDepth, maxNodes)
		res.Forward = &fwd
	}
	return res
}

// Forward returns the forward adjacency index. Callers must not modify it.
func (g *Graph) Forward() map[string][]Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.forward
}

// Reverse returns the reverse adjacency index. Callers must not modify it.
func (g *Graph) Reverse() map[string][]Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reverse
}

// NodeCount returns the number of distinct fact names.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.factIdx)
}

// EdgeCount returns the number of relations indexed.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, edges := range g.forward {
		n += len(edges)
	}
	return n
}

func (g *Graph) nodeFor(name string, depth int) TraversalNode {
	node := TraversalNode{Name: name, Depth: depth}
	if i, ok := g.factIdx[name]; ok {
		node.Kind = g.facts[i].Kind
		node.File = g.facts[i].File
		node.Project = g.facts[i].Project
	}
	return node
}

// impactSummary renders e.g. "3 dependents: depth 1: 1 scheme, 2 targets".
func impactSummary(byDepth map[int][]TraversalNode) string {
	if len(byDepth) == 0 {
		return "No dependents found."
	}

	depths := make([]int, 0, len(byDepth))
	total := 0
	for d, nodes := range byDepth {
		depths = append(depths, d)
		total += len(nodes)
	}
	sort.Ints(depths)

	parts := make([]string, 0, len(depths))
	for _, d := range depths {
		perKind := make(map[string]int)
		for _, n := range byDepth[d] {
			k := n.Kind
			if k == "" {
				k = "unknown"
			}
			perKind[k]++
		}
		kinds := make([]string, 0, len(perKind))
		for k := range perKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		counts := make([]string, len(kinds))
		for i, k := range kinds {
			counts[i] = plural(perKind[k], k)
		}
		parts = append(parts, fmt.Sprintf("depth %d: %s", d, strings.Join(counts, ", ")))
	}
	return fmt.Sprintf("%s: %s", plural(total, "dependent"), strings.Join(parts, "; "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func toSet(ss []string) map[string]struct{} {
	if len(ss) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return set
}
