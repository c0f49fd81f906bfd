// Package kind classifies pbxproj objects by their isa discriminator.
package kind

import "sort"

// Family groups related object kinds.
type Family uint8

const (
	FamilyOther Family = iota
	FamilyTarget
	FamilyBuildPhase
	FamilyFSReference
	FamilyUnknown
)

// TargetKind distinguishes the PBXTarget variants.
type TargetKind uint8

const (
	TargetNative TargetKind = iota + 1
	TargetLegacy
	TargetAggregate
)

// BuildPhaseKind distinguishes the PBXBuildPhase variants.
type BuildPhaseKind uint8

const (
	PhaseSources BuildPhaseKind = iota + 1
	PhaseFrameworks
	PhaseResources
	PhaseCopyFiles
	PhaseRunScript
	PhaseHeaders
	PhaseCarbonResources
)

// FSReferenceKind distinguishes file system references.
type FSReferenceKind uint8

const (
	FSFile FSReferenceKind = iota + 1
	FSFileGroup
	FSVariantGroup
	FSVersionGroup
)

// other kinds (FamilyOther sub values)
const (
	otherBuildFile uint8 = iota + 1
	otherBuildRule
	otherBuildConfiguration
	otherConfigurationList
	otherContainerItemProxy
	otherProject
	otherRemoteSwiftPackageReference
	otherSwiftPackageProductDependency
	otherTargetDependency
)

// Kind is the classified type of a pbxproj object. The zero value is not a
// valid kind; use Classify or one of the package variables.
type Kind struct {
	family Family
	sub    uint8
	raw    string // only set for unknown kinds
}

var (
	NativeTarget    = Kind{family: FamilyTarget, sub: uint8(TargetNative)}
	LegacyTarget    = Kind{family: FamilyTarget, sub: uint8(TargetLegacy)}
	AggregateTarget = Kind{family: FamilyTarget, sub: uint8(TargetAggregate)}

	SourcesBuildPhase         = Kind{family: FamilyBuildPhase, sub: uint8(PhaseSources)}
	FrameworksBuildPhase      = Kind{family: FamilyBuildPhase, sub: uint8(PhaseFrameworks)}
	ResourcesBuildPhase       = Kind{family: FamilyBuildPhase, sub: uint8(PhaseResources)}
	CopyFilesBuildPhase       = Kind{family: FamilyBuildPhase, sub: uint8(PhaseCopyFiles)}
	RunScriptBuildPhase       = Kind{family: FamilyBuildPhase, sub: uint8(PhaseRunScript)}
	HeadersBuildPhase         = Kind{family: FamilyBuildPhase, sub: uint8(PhaseHeaders)}
	CarbonResourcesBuildPhase = Kind{family: FamilyBuildPhase, sub: uint8(PhaseCarbonResources)}

	FileReference = Kind{family: FamilyFSReference, sub: uint8(FSFile)}
	Group         = Kind{family: FamilyFSReference, sub: uint8(FSFileGroup)}
	VariantGroup  = Kind{family: FamilyFSReference, sub: uint8(FSVariantGroup)}
	VersionGroup  = Kind{family: FamilyFSReference, sub: uint8(FSVersionGroup)}

	BuildFile                     = Kind{family: FamilyOther, sub: otherBuildFile}
	BuildRule                     = Kind{family: FamilyOther, sub: otherBuildRule}
	BuildConfiguration            = Kind{family: FamilyOther, sub: otherBuildConfiguration}
	ConfigurationList             = Kind{family: FamilyOther, sub: otherConfigurationList}
	ContainerItemProxy            = Kind{family: FamilyOther, sub: otherContainerItemProxy}
	Project                       = Kind{family: FamilyOther, sub: otherProject}
	RemoteSwiftPackageReference   = Kind{family: FamilyOther, sub: otherRemoteSwiftPackageReference}
	SwiftPackageProductDependency = Kind{family: FamilyOther, sub: otherSwiftPackageProductDependency}
	TargetDependency              = Kind{family: FamilyOther, sub: otherTargetDependency}
)

// isa strings for every known kind.
var canonical = map[Kind]string{
	NativeTarget:    "PBXNativeTarget",
	LegacyTarget:    "PBXLegacyTarget",
	AggregateTarget: "PBXAggregateTarget",

	SourcesBuildPhase:         "PBXSourcesBuildPhase",
	FrameworksBuildPhase:      "PBXFrameworksBuildPhase",
	ResourcesBuildPhase:       "PBXResourcesBuildPhase",
	CopyFilesBuildPhase:       "PBXCopyFilesBuildPhase",
	RunScriptBuildPhase:       "PBXShellScriptBuildPhase",
	HeadersBuildPhase:         "PBXHeadersBuildPhase",
	CarbonResourcesBuildPhase: "PBXRezBuildPhase",

	FileReference: "PBXFileReference",
	Group:         "PBXGroup",
	VariantGroup:  "PBXVariantGroup",
	VersionGroup:  "XCVersionGroup",

	BuildFile:                     "PBXBuildFile",
	BuildRule:                     "PBXBuildRule",
	BuildConfiguration:            "XCBuildConfiguration",
	ConfigurationList:             "XCConfigurationList",
	ContainerItemProxy:            "PBXContainerItemProxy",
	Project:                       "PBXProject",
	RemoteSwiftPackageReference:   "XCRemoteSwiftPackageReference",
	SwiftPackageProductDependency: "XCSwiftPackageProductDependency",
	TargetDependency:              "PBXTargetDependency",
}

var byIsa = func() map[string]Kind {
	m := make(map[string]Kind, len(canonical))
	for k, s := range canonical {
		m[s] = k
	}
	return m
}()

// Classify maps an isa string to its Kind. Strings that are not recognised
// yield Unknown(isa); Classify never fails.
func Classify(isa string) Kind {
	if k, ok := byIsa[isa]; ok {
		return k
	}
	return Unknown(isa)
}

// Lookup is Classify restricted to known kinds.
func Lookup(isa string) (Kind, bool) {
	k, ok := byIsa[isa]
	return k, ok
}

// Unknown wraps an isa string that has no modelled kind.
func Unknown(isa string) Kind {
	return Kind{family: FamilyUnknown, raw: isa}
}

// All returns every known kind ordered by isa string.
func All() []Kind {
	out := make([]Kind, 0, len(canonical))
	for k := range canonical {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return canonical[out[i]] < canonical[out[j]] })
	return out
}

// String returns the canonical isa string. For unknown kinds this is the raw
// string the kind was classified from.
func (k Kind) String() string {
	if k.family == FamilyUnknown {
		return k.raw
	}
	if s, ok := canonical[k]; ok {
		return s
	}
	return ""
}

// Family returns the family the kind belongs to.
func (k Kind) Family() Family { return k.family }

func (k Kind) IsKnown() bool {
	_, ok := canonical[k]
	return ok
}

func (k Kind) IsUnknown() bool { return k.family == FamilyUnknown }
func (k Kind) IsTarget() bool { return k.family == FamilyTarget }
func (k Kind) IsBuildPhase() bool { return k.family == FamilyBuildPhase }
func (k Kind) IsFSReference() bool { return k.family == FamilyFSReference }

// Target returns the target variant when k is a target kind.
func (k Kind) Target() (TargetKind, bool) {
	if k.family != FamilyTarget {
		return 0, false
	}
	return TargetKind(k.sub), true
}

// BuildPhase returns the build phase variant when k is a build phase kind.
func (k Kind) BuildPhase() (BuildPhaseKind, bool) {
	if k.family != FamilyBuildPhase {
		return 0, false
	}
	return BuildPhaseKind(k.sub), true
}

// FSReference returns the file reference variant when k is a file system
// reference kind.
func (k Kind) FSReference() (FSReferenceKind, bool) {
	if k.family != FamilyFSReference {
		return 0, false
	}
	return FSReferenceKind(k.sub), true
}

func (k Kind) IsNative() bool { return k == NativeTarget }
func (k Kind) IsLegacy() bool { return k == LegacyTarget }
func (k Kind) IsAggregate() bool { return k == AggregateTarget }

func (k Kind) IsRunScript() bool { return k == RunScriptBuildPhase }
func (k Kind) IsCopyFiles() bool { return k == CopyFilesBuildPhase }
func (k Kind) IsSources() bool { return k == SourcesBuildPhase }

// IsFile reports whether k is a plain file reference.
func (k Kind) IsFile() bool { return k == FileReference }

// IsGroup reports whether k can hold children: groups, variant groups and
// version groups.
func (k Kind) IsGroup() bool {
	return k == Group || k == VariantGroup || k == VersionGroup
}

func (k Kind) IsVersionGroup() bool { return k == VersionGroup }

// MarshalText encodes the kind as its isa string.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText classifies the isa string.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = Classify(string(b))
	return nil
}

func (f Family) String() string {
	switch f {
	case FamilyTarget:
		return "target"
	case FamilyBuildPhase:
		return "build_phase"
	case FamilyFSReference:
		return "fs_reference"
	case FamilyUnknown:
		return "unknown"
	default:
		return "other"
	}
}
