package pbxproj

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

var errCycle = errors.New("reference cycle")

// Collection is the object table of a pbxproj file: every object stored once,
// keyed by identifier. It is read-only after construction and safe for
// concurrent readers.
type Collection struct {
	objects    map[string]value.Map
	ids        []string          // sorted, drives all scans
	parents    map[string]string // child id -> group id
	mainGroups map[string]bool   // ids named by some PBXProject's mainGroup
}

// NewCollection builds a collection from the parsed `objects` map. Every
// entry must be an object carrying an isa field.
func NewCollection(objects value.Map) (*Collection, error) {
	c := &Collection{
		objects: make(map[string]value.Map, len(objects)),
		ids:     make([]string, 0, len(objects)),
		parents:    make(map[string]string),
		mainGroups: make(map[string]bool),
	}
	for id, v := range objects {
		obj, ok := v.AsObject()
		if !ok {
			return nil, pbxerr.TypeMismatch("objects", "object", v.Type().String()).WithObject(id, "")
		}
		if !obj.Has("isa") {
			return nil, pbxerr.MissingField("isa").WithObject(id, "")
		}
		c.objects[id] = obj
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	c.indexParents()
	return c, nil
}

// indexParents records the first group (in id order) listing each child,
// and the main group of every project.
func (c *Collection) indexParents() {
	for _, id := range c.ids {
		obj := c.objects[id]
		if obj.Isa() == kind.Project {
			if mg, ok := obj.String("mainGroup"); ok && mg != "" {
				c.mainGroups[mg] = true
			}
			continue
		}
		if !obj.Isa().IsGroup() {
			continue
		}
		children, _ := obj.Strings("children")
		for _, child := range children {
			if child == id {
				continue
			}
			if _, seen := c.parents[child]; !seen {
				c.parents[child] = id
			}
		}
	}
}

// Len returns the number of objects.
func (c *Collection) Len() int { return len(c.ids) }

// IDs returns all identifiers in sorted order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Raw returns the underlying map for id.
func (c *Collection) Raw(id string) (value.Map, bool) {
	obj, ok := c.objects[id]
	return obj, ok
}

// KindOf classifies the object at id.
func (c *Collection) KindOf(id string) (kind.Kind, bool) {
	obj, ok := c.objects[id]
	if !ok {
		return kind.Kind{}, false
	}
	return obj.Isa(), true
}

// Parent returns the id of the group that lists id among its children.
func (c *Collection) Parent(id string) (string, bool) {
	p, ok := c.parents[id]
	return p, ok
}

// IDsOfKind returns the sorted ids whose isa satisfies pred.
func (c *Collection) IDsOfKind(pred func(kind.Kind) bool) []string {
	var out []string
	for _, id := range c.ids {
		if pred(c.objects[id].Isa()) {
			out = append(out, id)
		}
	}
	return out
}

// CountByKind tallies objects per isa string.
func (c *Collection) CountByKind() map[string]int {
	counts := make(map[string]int)
	for _, id := range c.ids {
		counts[c.objects[id].Isa().String()]++
	}
	return counts
}

// object is implemented by every façade. accepts filters on isa, decode
// fills the façade from its raw map.
type object[T any] interface {
	*T
	accepts(k kind.Kind) bool
	decode(r *resolver, id string, obj value.Map) error
}

// resolver carries the ids currently being decoded so that cyclic
// references terminate. Façades whose decoding never hit a cycle do not
// depend on the path they were reached by and are shared through done.
type resolver struct {
	c        *Collection
	visiting map[string]bool
	done     map[string]any
	cycles   int // cycle hits so far
}

func (c *Collection) resolver() *resolver {
	return &resolver{c: c, visiting: make(map[string]bool), done: make(map[string]any)}
}

// Get builds the façade T for id. It returns false when id is absent, has a
// different kind, or fails to decode.
func Get[T any, P object[T]](c *Collection, id string) (*T, bool) {
	t, err := resolve[T, P](c.resolver(), id)
	return t, err == nil
}

// TryGet is Get with the failure reason.
func TryGet[T any, P object[T]](c *Collection, id string) (*T, error) {
	return resolve[T, P](c.resolver(), id)
}

// GetVec resolves ids in order, dropping any that fail to resolve.
func GetVec[T any, P object[T]](c *Collection, ids []string) []*T {
	return resolveAll[T, P](c.resolver(), ids)
}

// GetVecBy scans the table in id order and builds T for every object
// matching pred. Objects that fail to decode are skipped.
func GetVecBy[T any, P object[T]](c *Collection, pred func(id string, obj value.Map) bool) []*T {
	var out []*T
	r := c.resolver()
	for _, id := range c.ids {
		if !pred(id, c.objects[id]) {
			continue
		}
		if t, err := resolve[T, P](r, id); err == nil {
			out = append(out, t)
		}
	}
	return out
}

func resolve[T any, P object[T]](r *resolver, id string) (*T, error) {
	obj, ok := r.c.objects[id]
	if !ok {
		return nil, pbxerr.Dangling(id)
	}
	if r.visiting[id] {
		r.cycles++
		return nil, pbxerr.Dangling(id).Wrap(errCycle)
	}
	if t, ok := r.done[id].(*T); ok {
		return t, nil
	}

	t := new(T)
	p := P(t)
	isa := obj.Isa()
	if !p.accepts(isa) {
		return nil, pbxerr.TypeMismatch("isa", typeName(p), isa.String()).WithObject(id, isa.String())
	}

	r.visiting[id] = true
	defer delete(r.visiting, id)

	cycles := r.cycles
	if err := p.decode(r, id, obj); err != nil {
		var pe *pbxerr.Error
		if errors.As(err, &pe) {
			pe.WithObject(id, isa.String())
			return nil, err
		}
		return nil, fmt.Errorf("decoding %s %s: %w", isa, id, err)
	}
	if r.cycles == cycles {
		r.done[id] = t
	}
	return t, nil
}

func resolveAll[T any, P object[T]](r *resolver, ids []string) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if t, err := resolve[T, P](r, id); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// ref resolves an optional single reference; absent or dangling yields nil.
func ref[T any, P object[T]](r *resolver, obj value.Map, key string) *T {
	id, ok := obj.String(key)
	if !ok || id == "" {
		return nil
	}
	t, err := resolve[T, P](r, id)
	if err != nil {
		return nil
	}
	return t
}

// mustRef resolves a required single reference.
func mustRef[T any, P object[T]](r *resolver, obj value.Map, key string) (*T, error) {
	id, err := obj.TryString(key)
	if err != nil {
		return nil, err
	}
	t, err := resolve[T, P](r, id)
	if err != nil {
		if pe, ok := pbxerr.As(err); ok {
			pe.WithKey(key)
		}
		return nil, err
	}
	return t, nil
}

// refs resolves an optional list of references leniently.
func refs[T any, P object[T]](r *resolver, obj value.Map, key string) []*T {
	ids, ok := obj.Strings(key)
	if !ok {
		return nil
	}
	return resolveAll[T, P](r, ids)
}

// mustRefs requires the list itself but resolves its elements leniently.
func mustRefs[T any, P object[T]](r *resolver, obj value.Map, key string) ([]*T, error) {
	ids, err := obj.TryStrings(key)
	if err != nil {
		return nil, err
	}
	return resolveAll[T, P](r, ids), nil
}

func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*pbxproj.")
}
