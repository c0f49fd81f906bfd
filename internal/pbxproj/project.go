package pbxproj

import (
	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// Project is the PBXProject object: the root of the object graph.
type Project struct {
	ID                     string
	Name                   string
	MainGroup              *FSReference
	BuildConfigurationList *ConfigurationList
	CompatibilityVersion   string
	HasScannedForEncodings bool
	ProjectDirPath         string
	Targets                []*Target
	KnownRegions           []string

	DevelopmentRegion string
	ProjectRoots      []string
	Packages          []*RemoteSwiftPackageReference
	TargetAttributes  map[string]value.Map
	ProductRefGroup   *FSReference
	Attributes        value.Map
}

func (p *Project) accepts(k kind.Kind) bool { return k == kind.Project }

func (p *Project) decode(r *resolver, id string, obj value.Map) error {
	var err error
	p.ID = id
	p.Name = obj.StringOr("name", "")

	if p.MainGroup, err = mustRef[FSReference](r, obj, "mainGroup"); err != nil {
		return err
	}
	if p.BuildConfigurationList, err = mustRef[ConfigurationList](r, obj, "buildConfigurationList"); err != nil {
		return err
	}
	if p.CompatibilityVersion, err = obj.TryString("compatibilityVersion"); err != nil {
		return err
	}
	if p.HasScannedForEncodings, err = obj.TryBool("hasScannedForEncodings"); err != nil {
		return err
	}
	if p.ProjectDirPath, err = obj.TryString("projectDirPath"); err != nil {
		return err
	}
	if p.Targets, err = mustRefs[Target](r, obj, "targets"); err != nil {
		return err
	}
	if p.KnownRegions, err = obj.TryStrings("knownRegions"); err != nil {
		return err
	}

	p.DevelopmentRegion = obj.StringOr("developmentRegion", "")
	if roots, ok := obj.Strings("projectRoots"); ok {
		p.ProjectRoots = roots
	} else if root, ok := obj.String("projectRoot"); ok {
		p.ProjectRoots = []string{root}
	}
	p.Packages = refs[RemoteSwiftPackageReference](r, obj, "packageReferences")
	p.ProductRefGroup = ref[FSReference](r, obj, "productRefGroup")

	p.Attributes, _ = obj.Object("attributes")
	if ta, ok := p.Attributes.Object("TargetAttributes"); ok {
		p.TargetAttributes = make(map[string]value.Map, len(ta))
		for targetID, v := range ta {
			if m, ok := v.AsObject(); ok {
				p.TargetAttributes[targetID] = m
			}
		}
	}
	return nil
}

// TargetByName returns the project's target called name.
func (p *Project) TargetByName(name string) (*Target, bool) {
	for _, t := range p.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
