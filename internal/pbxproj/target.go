package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// Target is a native, legacy or aggregate target. Legacy-only fields and
// ProductInstallPath (native only) stay zero for the other kinds.
type Target struct {
	ID                         string
	Kind                       kind.Kind
	Name                       string
	HasName                    bool // name present, possibly empty
	ProductName                string
	ProductType                ProductType
	BuildConfigurationList     *ConfigurationList
	BuildPhases                []*BuildPhase
	BuildRules                 []*BuildRule
	Dependencies               []*TargetDependency
	Product                    *FSReference
	PackageProductDependencies []*SwiftPackageProductDependency

	ProductInstallPath string

	BuildToolPath                  string
	BuildArgumentsString           string
	PassBuildSettingsInEnvironment bool
	BuildWorkingDirectory          string
}

func (t *Target) accepts(k kind.Kind) bool { return k.IsTarget() }

func (t *Target) decode(r *resolver, id string, obj value.Map) error {
	t.ID = id
	t.Kind = obj.Isa()
	t.Name, t.HasName = obj.String("name")
	t.ProductName = obj.StringOr("productName", "")

	if t.Kind.IsNative() {
		pt, err := obj.TryString("productType")
		if err != nil {
			return err
		}
		t.ProductType = ProductType(pt)
		t.ProductInstallPath = obj.StringOr("productInstallPath", "")
	} else {
		t.ProductType = ProductType(obj.StringOr("productType", ""))
	}
	if t.Kind.IsLegacy() {
		t.BuildToolPath = obj.StringOr("buildToolPath", "")
		t.BuildArgumentsString = obj.StringOr("buildArgumentsString", "")
		t.PassBuildSettingsInEnvironment = obj.BoolOr("passBuildSettingsInEnvironment", false)
		t.BuildWorkingDirectory = obj.StringOr("buildWorkingDirectory", "")
	}

	t.BuildConfigurationList = ref[ConfigurationList](r, obj, "buildConfigurationList")
	t.BuildPhases = refs[BuildPhase](r, obj, "buildPhases")
	t.BuildRules = refs[BuildRule](r, obj, "buildRules")
	t.Dependencies = refs[TargetDependency](r, obj, "dependencies")
	t.Product = ref[FSReference](r, obj, "productReference")
	t.PackageProductDependencies = refs[SwiftPackageProductDependency](r, obj, "packageProductDependencies")
	return nil
}

// Phase returns the first build phase of kind k.
func (t *Target) Phase(k kind.Kind) (*BuildPhase, bool) {
	for _, p := range t.BuildPhases {
		if p.Kind == k {
			return p, true
		}
	}
	return nil, false
}

// SourceFiles returns the files compiled by the target's sources phases.
func (t *Target) SourceFiles() []*FSReference {
	var out []*FSReference
	for _, p := range t.BuildPhases {
		if p.Kind.IsSources() {
			out = append(out, p.FileRefs()...)
		}
	}
	return out
}

// Configurations returns the names of the target's configurations.
func (t *Target) Configurations() []string {
	if t.BuildConfigurationList == nil {
		return nil
	}
	return t.BuildConfigurationList.Names()
}
