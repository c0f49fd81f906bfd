package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// BuildFile is one entry of a build phase: a file reference or a Swift
// package product, plus per-file settings.
type BuildFile struct {
	ID             string
	Settings       value.Map
	PlatformFilter string
	File           *FSReference
	ProductRef     *SwiftPackageProductDependency
}

func (b *BuildFile) accepts(k kind.Kind) bool { return k == kind.BuildFile }

func (b *BuildFile) decode(r *resolver, id string, obj value.Map) error {
	b.ID = id
	b.Settings, _ = obj.Object("settings")
	b.PlatformFilter = obj.StringOr("platformFilter", "")
	b.File = ref[FSReference](r, obj, "fileRef")
	b.ProductRef = ref[SwiftPackageProductDependency](r, obj, "productRef")
	return nil
}

// Attributes returns settings.ATTRIBUTES, e.g. Weak or CodeSignOnCopy.
func (b *BuildFile) Attributes() []string {
	attrs, _ := b.Settings.Strings("ATTRIBUTES")
	return attrs
}
