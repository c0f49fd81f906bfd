package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// BuildRule is a custom rule for processing files of a given type.
type BuildRule struct {
	ID                       string
	Name                     string
	CompilerSpec             string
	FilePatterns             string
	FileType                 string
	IsEditable               bool
	InputFiles               []string
	OutputFiles              []string
	OutputFilesCompilerFlags []string
	Script                   string
	RunOncePerArchitecture   bool
}

func (b *BuildRule) accepts(k kind.Kind) bool { return k == kind.BuildRule }

func (b *BuildRule) decode(_ *resolver, id string, obj value.Map) error {
	b.ID = id
	b.Name = obj.StringOr("name", "")
	b.CompilerSpec = obj.StringOr("compilerSpec", "")
	b.FilePatterns = obj.StringOr("filePatterns", "")
	b.FileType = obj.StringOr("fileType", "")
	b.IsEditable = obj.BoolOr("isEditable", false)
	b.InputFiles, _ = obj.Strings("inputFiles")
	b.OutputFiles, _ = obj.Strings("outputFiles")
	b.OutputFilesCompilerFlags, _ = obj.Strings("outputFilesCompilerFlags")
	b.Script = obj.StringOr("script", "")
	b.RunOncePerArchitecture = obj.BoolOr("runOncePerArchitecture", false)
	return nil
}
