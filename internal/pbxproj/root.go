// Package pbxproj models an Xcode project.pbxproj file: a table of objects
// keyed by identifier, typed views over them, and queries that need the
// whole table such as path resolution and platform inference.
package pbxproj

import (
	"fmt"
	"math"
	"os"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/grammar"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// Root is the top-level object of a pbxproj file.
type Root struct {
	ArchiveVersion uint8
	ObjectVersion  uint8
	Classes        value.Map
	RootObject     string
	Objects        *Collection
}

// Parse parses pbxproj source text.
func Parse(src []byte) (*Root, error) {
	m, err := grammar.Parse(src)
	if err != nil {
		return nil, err
	}
	return FromMap(m)
}

// ParseFile reads and parses the pbxproj file at path.
func ParseFile(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return root, nil
}

// FromMap builds a Root from an already parsed top-level map.
func FromMap(m value.Map) (*Root, error) {
	archive, err := version(m, "archiveVersion")
	if err != nil {
		return nil, err
	}
	object, err := version(m, "objectVersion")
	if err != nil {
		return nil, err
	}
	rootObject, err := m.TryString("rootObject")
	if err != nil {
		return nil, err
	}
	objects, err := m.TryObject("objects")
	if err != nil {
		return nil, err
	}
	coll, err := NewCollection(objects)
	if err != nil {
		return nil, err
	}
	classes, _ := m.Object("classes")
	return &Root{
		ArchiveVersion: archive,
		ObjectVersion:  object,
		Classes:        classes,
		RootObject:     rootObject,
		Objects:        coll,
	}, nil
}

func version(m value.Map, key string) (uint8, error) {
	n, err := m.TryNumber(key)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint8 {
		return 0, pbxerr.TypeMismatch(key, "uint8", fmt.Sprint(n))
	}
	return uint8(n), nil
}

// Project resolves the root object.
func (r *Root) Project() (*Project, error) {
	return TryGet[Project](r.Objects, r.RootObject)
}
