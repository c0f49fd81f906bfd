package facts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// Query limits.
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 500
)

// index maps a key to positions in the fact slice, in insertion order.
type index map[string][]int

func (ix index) add(key string, pos int) {
	if key != "" {
		ix[key] = append(ix[key], pos)
	}
}

// Store holds the facts of one snapshot, indexed by kind, file, name,
// project and pbxproj object id. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	facts []Fact

	byKind    index
	byFile    index
	byName    index
	byProject index
	byID      index // ids repeat across projects

	graph *Graph
}

// NewStore creates an empty fact store.
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.facts = nil
	s.byKind = make(index)
	s.byFile = make(index)
	s.byName = make(index)
	s.byProject = make(index)
	s.byID = make(index)
	s.graph = nil
}

// Add appends facts. The graph is not updated; call BuildGraph once all
// facts are in.
func (s *Store) Add(ff ...Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range ff {
		pos := len(s.facts)
		s.facts = append(s.facts, f)
		s.byKind.add(f.Kind, pos)
		s.byFile.add(f.File, pos)
		s.byName.add(f.Name, pos)
		s.byProject.add(f.Project, pos)
		s.byID.add(f.ID, pos)
	}
}

// All returns a copy of every fact in insertion order.
func (s *Store) All() []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.facts)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}

func (s *Store) lookup(ix index, key string) []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(ix[key])
}

// ByKind returns all facts of the given kind.
func (s *Store) ByKind(kind string) []Fact { return s.lookup(s.byKind, kind) }

// ByFile returns the facts whose File is exactly file.
func (s *Store) ByFile(file string) []Fact { return s.lookup(s.byFile, file) }

// ByName returns the facts named name. Names are unique per kind, so a
// file and the group of the same path can both match.
func (s *Store) ByName(name string) []Fact { return s.lookup(s.byName, name) }

// LookupByExactName is ByName; it reads better at call sites that have a
// user-supplied name.
func (s *Store) LookupByExactName(name string) []Fact { return s.ByName(name) }

// ByProject returns all facts extracted from the named project.
func (s *Store) ByProject(project string) []Fact { return s.lookup(s.byProject, project) }

// ByID returns the facts carrying the given pbxproj object id. Ids are only
// unique within one project, so the result may span projects.
func (s *Store) ByID(id string) []Fact { return s.lookup(s.byID, id) }

// Targets returns all target facts.
func (s *Store) Targets() []Fact { return s.ByKind(KindTarget) }

// Files returns all file facts.
func (s *Store) Files() []Fact { return s.ByKind(KindFile) }

// ByRelation returns the facts with at least one relation of kind relKind.
func (s *Store) ByRelation(relKind string) []Fact {
	return s.Query("", "", "", relKind)
}

// ReverseLookup returns the facts with a relation pointing at targetName,
// restricted to relations of kind relKind when it is non-empty.
func (s *Store) ReverseLookup(targetName, relKind string) []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Fact
	for _, f := range s.facts {
		if slices.ContainsFunc(f.Relations, func(r Relation) bool {
			return r.Target == targetName && (relKind == "" || r.Kind == relKind)
		}) {
			out = append(out, f)
		}
	}
	return out
}

// Projects returns the distinct project labels in insertion order.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byProject))
	for p := range s.byProject {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b string) int { return s.byProject[a][0] - s.byProject[b][0] })
	return out
}

// QueryOpts filters QueryAdvanced. Values within one dimension are
// OR-combined, dimensions are AND-combined, and empty values match
// everything.
type QueryOpts struct {
	Kind       string
	Kinds      []string
	File       string   // exact path
	Files      []string // exact paths
	FilePrefix string   // e.g. "App/Sources"; OR-combined with File/Files
	Name       string   // substring
	Names      []string // exact names; OR-combined with Name
	Project    string
	RelKind    string // fact has at least one relation of this kind
	Prop       string // fact has this property
	PropValue  string // ... with this value, compared by fmt %v
	Offset     int
	Limit      int // 0 means DefaultQueryLimit; capped at MaxQueryLimit
}

// predicate builds the AND of every filter set in o.
func (o QueryOpts) predicate() func(Fact) bool {
	var checks []func(Fact) bool

	if kinds := setOf(o.Kind, o.Kinds); kinds != nil {
		checks = append(checks, func(f Fact) bool { _, ok := kinds[f.Kind]; return ok })
	}
	if o.Project != "" {
		checks = append(checks, func(f Fact) bool { return f.Project == o.Project })
	}
	if files := setOf(o.File, o.Files); files != nil || o.FilePrefix != "" {
		checks = append(checks, func(f Fact) bool {
			if _, ok := files[f.File]; ok {
				return true
			}
			return o.FilePrefix != "" && strings.HasPrefix(f.File, o.FilePrefix)
		})
	}
	if names := setOf("", o.Names); names != nil || o.Name != "" {
		checks = append(checks, func(f Fact) bool {
			if o.Name != "" && strings.Contains(f.Name, o.Name) {
				return true
			}
			_, ok := names[f.Name]
			return ok
		})
	}
	if o.RelKind != "" {
		checks = append(checks, func(f Fact) bool {
			return slices.ContainsFunc(f.Relations, func(r Relation) bool { return r.Kind == o.RelKind })
		})
	}
	if o.Prop != "" {
		checks = append(checks, func(f Fact) bool {
			v, ok := f.Props[o.Prop]
			return ok && (o.PropValue == "" || fmt.Sprint(v) == o.PropValue)
		})
	}

	return func(f Fact) bool {
		for _, check := range checks {
			if !check(f) {
				return false
			}
		}
		return true
	}
}

// candidates narrows the scan using the kind or project index when a
// single value is given. ok is false when every fact must be scanned.
func (s *Store) candidates(o QueryOpts) (positions []int, ok bool) {
	switch {
	case o.Kind != "" && len(o.Kinds) == 0:
		return s.byKind[o.Kind], true
	case o.Project != "":
		return s.byProject[o.Project], true
	}
	return nil, false
}

func (s *Store) filter(o QueryOpts) []Fact {
	match := o.predicate()
	var out []Fact
	if positions, ok := s.candidates(o); ok {
		for _, pos := range positions {
			if match(s.facts[pos]) {
				out = append(out, s.facts[pos])
			}
		}
		return out
	}
	for _, f := range s.facts {
		if match(f) {
			out = append(out, f)
		}
	}
	return out
}

// Query returns every fact matching kind, exact file, name substring and
// relation kind. Empty arguments match everything.
func (s *Store) Query(kind, file, name, relKind string) []Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(QueryOpts{Kind: kind, File: file, Name: name, RelKind: relKind})
}

// QueryAdvanced returns one page of the facts matching opts, in insertion
// order, and the number of matches before paging.
func (s *Store) QueryAdvanced(opts QueryOpts) ([]Fact, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(opts)
	total := len(matched)
	if opts.Offset >= total {
		return nil, total
	}
	matched = matched[max(opts.Offset, 0):]

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	limit = min(limit, MaxQueryLimit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total
}

// setOf merges single and multi into a set, ignoring empty strings. It
// returns nil when nothing remains.
func setOf(single string, multi []string) map[string]struct{} {
	set := make(map[string]struct{}, len(multi)+1)
	for _, v := range append([]string{single}, multi...) {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Clear removes all facts and the graph.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// BuildGraph rebuilds the relation graph from the current facts.
func (s *Store) BuildGraph() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = NewGraph(s.facts)
}

// Graph returns the graph from the last BuildGraph, or nil.
func (s *Store) Graph() *Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// WriteJSONL writes one JSON object per fact.
func (s *Store) WriteJSONL(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc := json.NewEncoder(w)
	for _, f := range s.facts {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encoding fact %q: %w", f.Name, err)
		}
	}
	return nil
}

// WriteJSONLFile writes the facts to path, replacing it.
func (s *Store) WriteJSONLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := s.WriteJSONL(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadJSONL adds the facts read from r. Blank lines are skipped. Nothing is
// added when any line fails to decode.
func (s *Store) ReadJSONL(r io.Reader) error {
	sc := bufio.NewScanner(r)
	// Facts for large groups carry long relation lists.
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var ff []Fact
	for line := 1; sc.Scan(); line++ {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var f Fact
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return fmt.Errorf("decoding fact on line %d: %w", line, err)
		}
		ff = append(ff, f)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading facts: %w", err)
	}
	s.Add(ff...)
	return nil
}

// ReadJSONLFile adds the facts stored at path.
func (s *Store) ReadJSONLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return s.ReadJSONL(f)
}

func (s *Store) collect(positions []int) []Fact {
	out := make([]Fact, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.facts[pos])
	}
	return out
}
