package pbxproj

import (
	"path"
	"reflect"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// SourceTree is the base a reference's path is relative to.
type SourceTree string

const (
	SourceTreeNone             SourceTree = ""
	SourceTreeAbsolute         SourceTree = "<absolute>"
	SourceTreeGroup            SourceTree = "<group>"
	SourceTreeSourceRoot       SourceTree = "SOURCE_ROOT"
	SourceTreeBuildProductsDir SourceTree = "BUILT_PRODUCTS_DIR"
	SourceTreeSDKRoot          SourceTree = "SDKROOT"
	SourceTreeDeveloperDir     SourceTree = "DEVELOPER_DIR"
)

// IsCustom reports whether t is a custom build-setting based tree.
func (t SourceTree) IsCustom() bool {
	switch t {
	case SourceTreeNone, SourceTreeAbsolute, SourceTreeGroup, SourceTreeSourceRoot,
		SourceTreeBuildProductsDir, SourceTreeSDKRoot, SourceTreeDeveloperDir:
		return false
	}
	return true
}

// FSReference covers files, groups, variant groups and version groups.
// Group-only, file-only and version-group-only fields stay zero for the
// other kinds.
type FSReference struct {
	ID         string
	Kind       kind.Kind
	SourceTree SourceTree
	Path       string
	Name       string

	IncludeInIndex bool
	UsesTabs       bool
	IndentWidth    int64
	TabWidth       int64
	WrapsLines     bool

	// groups
	Children []*FSReference

	// files
	FileEncoding                       int64
	ExplicitFileType                   string
	LastKnownFileType                  string
	LineEnding                         int64
	LanguageSpecificationIdentifier    string
	XCLanguageSpecificationIdentifier  string
	PlistStructureDefinitionIdentifier string

	// version groups
	CurrentVersion   *FSReference
	VersionGroupType string
}

func (f *FSReference) accepts(k kind.Kind) bool { return k.IsFSReference() }

func (f *FSReference) decode(r *resolver, id string, obj value.Map) error {
	f.ID = id
	f.Kind = obj.Isa()
	f.SourceTree = SourceTree(obj.StringOr("sourceTree", ""))
	f.Path = obj.StringOr("path", "")
	f.Name = obj.StringOr("name", "")
	f.IncludeInIndex = obj.BoolOr("includeInIndex", false)
	f.UsesTabs = obj.BoolOr("usesTabs", false)
	f.IndentWidth = obj.NumberOr("indentWidth", 0)
	f.TabWidth = obj.NumberOr("tabWidth", 0)
	f.WrapsLines = obj.BoolOr("wrapsLines", false)

	if f.Kind.IsGroup() {
		f.Children = refs[FSReference](r, obj, "children")
	}
	if f.Kind.IsFile() {
		f.FileEncoding = obj.NumberOr("fileEncoding", 0)
		f.ExplicitFileType = obj.StringOr("explicitFileType", "")
		f.LastKnownFileType = obj.StringOr("lastKnownFileType", "")
		f.LineEnding = obj.NumberOr("lineEnding", 0)
		f.LanguageSpecificationIdentifier = obj.StringOr("languageSpecificationIdentifier", "")
		f.XCLanguageSpecificationIdentifier = obj.StringOr("xcLanguageSpecificationIdentifier", "")
		f.PlistStructureDefinitionIdentifier = obj.StringOr("plistStructureDefinitionIdentifier", "")
	}
	if f.Kind.IsVersionGroup() {
		f.CurrentVersion = ref[FSReference](r, obj, "currentVersion")
		f.VersionGroupType = obj.StringOr("versionGroupType", "")
	}
	return nil
}

// Equal is structural equality over every field, children included.
func (f *FSReference) Equal(o *FSReference) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.ID != o.ID {
		return false
	}
	return reflect.DeepEqual(f, o)
}

func (f *FSReference) IsGroup() bool { return f.Kind.IsGroup() }
func (f *FSReference) IsFile() bool  { return f.Kind.IsFile() }

// DisplayName is the name shown in Xcode's navigator: the name field, or
// the last path component.
func (f *FSReference) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Path != "" {
		return path.Base(f.Path)
	}
	return ""
}

// FileType is the explicit file type, else the last known one.
func (f *FSReference) FileType() string {
	if f.ExplicitFileType != "" {
		return f.ExplicitFileType
	}
	return f.LastKnownFileType
}

// Subgroup finds a direct child group by name, then by path.
func (f *FSReference) Subgroup(nameOrPath string) (*FSReference, bool) {
	for _, child := range f.Children {
		if child.IsGroup() && child.Name == nameOrPath {
			return child, true
		}
	}
	for _, child := range f.Children {
		if child.IsGroup() && child.Path == nameOrPath {
			return child, true
		}
	}
	return nil, false
}

// ChildFile finds a direct child file by name or path.
func (f *FSReference) ChildFile(name string) (*FSReference, bool) {
	for _, child := range f.Children {
		if child.IsFile() && (child.Name == name || child.Path == name) {
			return child, true
		}
	}
	return nil, false
}

// Files returns every file below f, depth first.
func (f *FSReference) Files() []*FSReference {
	var out []*FSReference
	f.Walk(func(ref *FSReference, _ int) bool {
		if ref.IsFile() {
			out = append(out, ref)
		}
		return true
	})
	return out
}

// Walk visits f and its descendants depth first. Returning false from fn
// skips the node's children.
func (f *FSReference) Walk(fn func(ref *FSReference, depth int) bool) {
	f.walk(fn, 0)
}

func (f *FSReference) walk(fn func(*FSReference, int) bool, depth int) {
	if !fn(f, depth) {
		return
	}
	for _, child := range f.Children {
		child.walk(fn, depth+1)
	}
}
