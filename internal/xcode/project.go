// Package xcode loads .xcodeproj bundles from disk: the pbxproj object graph,
// shared and per-user schemes, and discovery of projects under a directory.
package xcode

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/dejo1307/xcodemcp/internal/pbxproj"
)

// PBXProjName is the object graph file inside an .xcodeproj bundle.
const PBXProjName = "project.pbxproj"

var schemePatterns = []string{
	"xcshareddata/xcschemes/*.xcscheme",
	"xcuserdata/*/xcschemes/*.xcscheme",
}

// Project is a loaded .xcodeproj bundle.
type Project struct {
	Name    string // bundle name without extension
	Path    string // path of the .xcodeproj directory
	Root    string // directory containing the bundle; the project's source root
	PBX     *pbxproj.Root
	Schemes []*Scheme
}

// Load parses the bundle at xcodeprojPath.
func Load(xcodeprojPath string) (*Project, error) {
	abs, err := filepath.Abs(xcodeprojPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", xcodeprojPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not an .xcodeproj directory", abs)
	}

	root, err := pbxproj.ParseFile(filepath.Join(abs, PBXProjName))
	if err != nil {
		return nil, err
	}

	name, _, _ := strings.Cut(filepath.Base(abs), ".")
	p := &Project{
		Name: name,
		Path: abs,
		Root: filepath.Dir(abs),
		PBX:  root,
	}

	schemes, err := readSchemes(abs)
	if err != nil {
		return nil, err
	}
	p.Schemes = schemes
	return p, nil
}

// schemeFiles lists the scheme files of a bundle relative to it, shared
// schemes first.
func schemeFiles(bundle string) ([]string, error) {
	fsys := os.DirFS(bundle)
	var out []string
	for _, pattern := range schemePatterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("globbing schemes: %w", err)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

// readSchemes reads every scheme of the bundle. A scheme that cannot be read
// is logged and skipped; stale per-user schemes are common.
func readSchemes(bundle string) ([]*Scheme, error) {
	files, err := schemeFiles(bundle)
	if err != nil {
		return nil, err
	}
	var out []*Scheme
	for _, m := range files {
		s, err := ReadScheme(filepath.Join(bundle, filepath.FromSlash(m)))
		if err != nil {
			log.Printf("[xcode] skipping scheme %s: %v", m, err)
			continue
		}
		s.Shared = strings.HasPrefix(m, "xcshareddata/")
		out = append(out, s)
	}
	return out, nil
}

// Digest hashes the project.pbxproj and scheme files of the bundle at
// xcodeprojPath. It changes whenever Load would return a different project.
func Digest(xcodeprojPath string) (uint64, error) {
	d := xxhash.New()
	data, err := os.ReadFile(filepath.Join(xcodeprojPath, PBXProjName))
	if err != nil {
		return 0, fmt.Errorf("reading project: %w", err)
	}
	_, _ = d.Write(data)

	files, err := schemeFiles(xcodeprojPath)
	if err != nil {
		return 0, err
	}
	for _, m := range files {
		data, err := os.ReadFile(filepath.Join(xcodeprojPath, filepath.FromSlash(m)))
		if err != nil {
			return 0, fmt.Errorf("reading scheme %s: %w", m, err)
		}
		_, _ = d.WriteString(m)
		_, _ = d.Write(data)
	}
	return d.Sum64(), nil
}

// Objects is the project's object table.
func (p *Project) Objects() *pbxproj.Collection {
	return p.PBX.Objects
}

// Project resolves the PBXProject root object.
func (p *Project) Project() (*pbxproj.Project, error) {
	return p.PBX.Project()
}

// Targets returns every target in id order.
func (p *Project) Targets() []*pbxproj.Target {
	return p.PBX.Objects.Targets()
}

// FullPath resolves ref against the project's source root.
func (p *Project) FullPath(ref *pbxproj.FSReference) (string, error) {
	return p.PBX.Objects.FullPath(ref, p.Root)
}

// SchemesFor returns the schemes whose build action includes the target
// with the given object id.
func (p *Project) SchemesFor(targetID string) []*Scheme {
	var out []*Scheme
	for _, s := range p.Schemes {
		if slices.Contains(s.TargetIDs(), targetID) {
			out = append(out, s)
		}
	}
	return out
}
