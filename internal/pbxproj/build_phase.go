package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// DefaultBuildActionMask is used when a phase omits buildActionMask.
const DefaultBuildActionMask int64 = 2147483647

// BuildPhase is any of the seven build phase kinds. ShellScript and CopyFiles
// are only set for their own kind.
type BuildPhase struct {
	ID                                 string
	Kind                               kind.Kind
	Name                               string
	BuildActionMask                    int64
	Files                              []*BuildFile
	InputFileListPaths                 []string
	OutputFileListPaths                []string
	RunOnlyForDeploymentPostprocessing bool

	ShellScript *ShellScript
	CopyFiles   *CopyFiles
}

// ShellScript holds the fields of a PBXShellScriptBuildPhase.
type ShellScript struct {
	InputPaths       []string
	OutputPaths      []string
	ShellPath        string
	ShellScript      string
	ShowEnvVarsInLog bool
	AlwaysOutOfDate  bool
	DependencyFile   string
}

// CopyFiles holds the destination of a PBXCopyFilesBuildPhase.
type CopyFiles struct {
	DstPath          string
	DstSubfolderSpec int64
}

func (b *BuildPhase) accepts(k kind.Kind) bool { return k.IsBuildPhase() }

func (b *BuildPhase) decode(r *resolver, id string, obj value.Map) error {
	b.ID = id
	b.Kind = obj.Isa()
	b.Name = obj.StringOr("name", "")
	b.BuildActionMask = obj.NumberOr("buildActionMask", DefaultBuildActionMask)
	b.Files = refs[BuildFile](r, obj, "files")
	b.InputFileListPaths, _ = obj.Strings("inputFileListPaths")
	b.OutputFileListPaths, _ = obj.Strings("outputFileListPaths")
	b.RunOnlyForDeploymentPostprocessing = obj.BoolOr("runOnlyForDeploymentPostprocessing", false)

	switch {
	case b.Kind.IsRunScript():
		s := &ShellScript{
			ShellPath:        obj.StringOr("shellPath", ""),
			ShellScript:      obj.StringOr("shellScript", ""),
			ShowEnvVarsInLog: obj.BoolOr("showEnvVarsInLog", true),
			AlwaysOutOfDate:  obj.BoolOr("alwaysOutOfDate", false),
			DependencyFile:   obj.StringOr("dependencyFile", ""),
		}
		s.InputPaths, _ = obj.Strings("inputPaths")
		s.OutputPaths, _ = obj.Strings("outputPaths")
		b.ShellScript = s
	case b.Kind.IsCopyFiles():
		b.CopyFiles = &CopyFiles{
			DstPath:          obj.StringOr("dstPath", ""),
			DstSubfolderSpec: obj.NumberOr("dstSubfolderSpec", 0),
		}
	}
	return nil
}

// FileRefs returns the file references of the phase's build files, skipping
// package products.
func (b *BuildPhase) FileRefs() []*FSReference {
	var out []*FSReference
	for _, bf := range b.Files {
		if bf.File != nil {
			out = append(out, bf.File)
		}
	}
	return out
}

// DisplayName is the phase's name, or the label Xcode shows for its kind.
func (b *BuildPhase) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	pk, _ := b.Kind.BuildPhase()
	switch pk {
	case kind.PhaseSources:
		return "Sources"
	case kind.PhaseFrameworks:
		return "Frameworks"
	case kind.PhaseResources:
		return "Resources"
	case kind.PhaseCopyFiles:
		return "CopyFiles"
	case kind.PhaseRunScript:
		return "ShellScript"
	case kind.PhaseHeaders:
		return "Headers"
	case kind.PhaseCarbonResources:
		return "Rez"
	}
	return b.Kind.String()
}
