package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

func ofKind(pred func(kind.Kind) bool) func(string, value.Map) bool {
	return func(_ string, obj value.Map) bool { return pred(obj.Isa()) }
}

func is(k kind.Kind) func(kind.Kind) bool {
	return func(o kind.Kind) bool { return o == k }
}

func (c *Collection) Targets() []*Target {
	return GetVecBy[Target](c, ofKind(kind.Kind.IsTarget))
}

func (c *Collection) Projects() []*Project {
	return GetVecBy[Project](c, ofKind(is(kind.Project)))
}

func (c *Collection) BuildPhases() []*BuildPhase {
	return GetVecBy[BuildPhase](c, ofKind(kind.Kind.IsBuildPhase))
}

func (c *Collection) BuildConfigurations() []*BuildConfiguration {
	return GetVecBy[BuildConfiguration](c, ofKind(is(kind.BuildConfiguration)))
}

func (c *Collection) ConfigurationLists() []*ConfigurationList {
	return GetVecBy[ConfigurationList](c, ofKind(is(kind.ConfigurationList)))
}

func (c *Collection) BuildFiles() []*BuildFile {
	return GetVecBy[BuildFile](c, ofKind(is(kind.BuildFile)))
}

func (c *Collection) BuildRules() []*BuildRule {
	return GetVecBy[BuildRule](c, ofKind(is(kind.BuildRule)))
}

// Files returns every PBXFileReference.
func (c *Collection) Files() []*FSReference {
	return GetVecBy[FSReference](c, ofKind(kind.Kind.IsFile))
}

// Groups returns groups, variant groups and version groups.
func (c *Collection) Groups() []*FSReference {
	return GetVecBy[FSReference](c, ofKind(kind.Kind.IsGroup))
}

// FSReferences returns files and groups of every kind.
func (c *Collection) FSReferences() []*FSReference {
	return GetVecBy[FSReference](c, ofKind(kind.Kind.IsFSReference))
}

func (c *Collection) SwiftPackageProductDependencies() []*SwiftPackageProductDependency {
	return GetVecBy[SwiftPackageProductDependency](c, ofKind(is(kind.SwiftPackageProductDependency)))
}

func (c *Collection) SwiftPackageReferences() []*RemoteSwiftPackageReference {
	return GetVecBy[RemoteSwiftPackageReference](c, ofKind(is(kind.RemoteSwiftPackageReference)))
}

func (c *Collection) TargetDependencies() []*TargetDependency {
	return GetVecBy[TargetDependency](c, ofKind(is(kind.TargetDependency)))
}

func (c *Collection) ContainerItemProxies() []*ContainerItemProxy {
	return GetVecBy[ContainerItemProxy](c, ofKind(is(kind.ContainerItemProxy)))
}

// TargetByName returns the first target, in id order, called name.
func (c *Collection) TargetByName(name string) (*Target, bool) {
	for _, id := range c.ids {
		obj := c.objects[id]
		if !obj.Isa().IsTarget() || obj.StringOr("name", "") != name {
			continue
		}
		if t, ok := Get[Target](c, id); ok {
			return t, true
		}
	}
	return nil, false
}

// BuildConfigurationsByBaseID returns every configuration layered on the
// xcconfig file with the given id.
func (c *Collection) BuildConfigurationsByBaseID(id string) []*BuildConfiguration {
	return GetVecBy[BuildConfiguration](c, func(_ string, obj value.Map) bool {
		return obj.Isa() == kind.BuildConfiguration && obj.StringOr("baseConfigurationReference", "") == id
	})
}

// GroupByNameOrPath matches group names across the whole table before
// falling back to paths.
func (c *Collection) GroupByNameOrPath(s string) (*FSReference, bool) {
	for _, key := range []string{"name", "path"} {
		for _, id := range c.ids {
			obj := c.objects[id]
			if !obj.Isa().IsGroup() || obj.StringOr(key, "") != s {
				continue
			}
			if g, ok := Get[FSReference](c, id); ok {
				return g, true
			}
		}
	}
	return nil, false
}

// File returns the file reference with the given id.
func (c *Collection) File(id string) (*FSReference, bool) {
	if k, ok := c.KindOf(id); !ok || !k.IsFile() {
		return nil, false
	}
	return Get[FSReference](c, id)
}

// Group returns the group (of any group kind) with the given id.
func (c *Collection) Group(id string) (*FSReference, bool) {
	if k, ok := c.KindOf(id); !ok || !k.IsGroup() {
		return nil, false
	}
	return Get[FSReference](c, id)
}

// FSObject returns the file or group with the given id.
func (c *Collection) FSObject(id string) (*FSReference, bool) {
	return Get[FSReference](c, id)
}
