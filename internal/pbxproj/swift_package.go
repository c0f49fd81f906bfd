package pbxproj

import (
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

// RequirementKind is the kind field of a package version requirement.
type RequirementKind string

const (
	UpToNextMajorVersion RequirementKind = "upToNextMajorVersion"
	UpToNextMinorVersion RequirementKind = "upToNextMinorVersion"
	VersionRange         RequirementKind = "versionRange"
	ExactVersion         RequirementKind = "exactVersion"
	Branch               RequirementKind = "branch"
	Revision             RequirementKind = "revision"
)

// VersionRequirement is the version rule of a remote Swift package. Only
// the fields relevant to Kind are set.
type VersionRequirement struct {
	Kind           RequirementKind
	MinimumVersion string
	MaximumVersion string
	Version        string
	Branch         string
	Revision       string
}

func decodeRequirement(m value.Map) (*VersionRequirement, error) {
	k, err := m.TryString("kind")
	if err != nil {
		return nil, err
	}
	req := &VersionRequirement{Kind: RequirementKind(k)}
	switch req.Kind {
	case UpToNextMajorVersion, UpToNextMinorVersion:
		req.MinimumVersion, err = m.TryString("minimumVersion")
	case VersionRange:
		if req.MinimumVersion, err = m.TryString("minimumVersion"); err == nil {
			req.MaximumVersion, err = m.TryString("maximumVersion")
		}
	case ExactVersion:
		req.Version, err = m.TryString("version")
	case Branch:
		req.Branch, err = m.TryString("branch")
	case Revision:
		req.Revision, err = m.TryString("revision")
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// String renders the requirement the way Xcode's package UI does.
func (v *VersionRequirement) String() string {
	switch v.Kind {
	case UpToNextMajorVersion:
		return "up to next major from " + v.MinimumVersion
	case UpToNextMinorVersion:
		return "up to next minor from " + v.MinimumVersion
	case VersionRange:
		return v.MinimumVersion + " ..< " + v.MaximumVersion
	case ExactVersion:
		return "exactly " + v.Version
	case Branch:
		return "branch " + v.Branch
	case Revision:
		return "revision " + v.Revision
	}
	return string(v.Kind)
}

// RemoteSwiftPackageReference is a package dependency of a project.
type RemoteSwiftPackageReference struct {
	ID            string
	RepositoryURL string
	Requirement   *VersionRequirement
}

func (p *RemoteSwiftPackageReference) accepts(k kind.Kind) bool {
	return k == kind.RemoteSwiftPackageReference
}

func (p *RemoteSwiftPackageReference) decode(_ *resolver, id string, obj value.Map) error {
	p.ID = id
	p.RepositoryURL = obj.StringOr("repositoryURL", "")
	if m, ok := obj.Object("requirement"); ok {
		// an unreadable requirement leaves the package usable
		if req, err := decodeRequirement(m); err == nil {
			p.Requirement = req
		}
	}
	return nil
}

// Name is the last path segment of the repository URL without ".git".
func (p *RemoteSwiftPackageReference) Name() string {
	url := strings.TrimSuffix(p.RepositoryURL, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return strings.TrimSuffix(url, ".git")
}

// SwiftPackageProductDependency is one product a target uses from a package.
type SwiftPackageProductDependency struct {
	ID          string
	ProductName string
	Package     *RemoteSwiftPackageReference
}

func (d *SwiftPackageProductDependency) accepts(k kind.Kind) bool {
	return k == kind.SwiftPackageProductDependency
}

func (d *SwiftPackageProductDependency) decode(r *resolver, id string, obj value.Map) error {
	var err error
	d.ID = id
	if d.ProductName, err = obj.TryString("productName"); err != nil {
		return err
	}
	d.Package = ref[RemoteSwiftPackageReference](r, obj, "package")
	return nil
}
