package xcode

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scheme is the subset of an .xcscheme file the tooling uses.
type Scheme struct {
	Name                      string `xml:"-"`
	Path                      string `xml:"-"`
	Shared                    bool   `xml:"-"`
	LastUpgradeVersion        string `xml:"LastUpgradeVersion,attr"`
	Version                   string `xml:"version,attr"`
	WasCreatedForAppExtension *bool  `xml:"-"`

	Build  BuildAction  `xml:"BuildAction"`
	Test   SchemeAction `xml:"TestAction"`
	Launch SchemeAction `xml:"LaunchAction"`
}

// BuildAction lists the targets a scheme builds.
type BuildAction struct {
	Parallelize string             `xml:"parallelizeBuildables,attr"` // YES or NO
	Entries     []BuildActionEntry `xml:"BuildActionEntries>BuildActionEntry"`
}

type BuildActionEntry struct {
	ForTesting   string             `xml:"buildForTesting,attr"`
	ForRunning   string             `xml:"buildForRunning,attr"`
	ForArchiving string             `xml:"buildForArchiving,attr"`
	Reference    BuildableReference `xml:"BuildableReference"`
}

// BuildableReference points at a target by its pbxproj id.
type BuildableReference struct {
	BuildableIdentifier string `xml:"BuildableIdentifier,attr"`
	BlueprintIdentifier string `xml:"BlueprintIdentifier,attr"`
	BuildableName       string `xml:"BuildableName,attr"`
	BlueprintName       string `xml:"BlueprintName,attr"`
	ReferencedContainer string `xml:"ReferencedContainer,attr"`
}

type SchemeAction struct {
	BuildConfiguration string `xml:"buildConfiguration,attr"`
}

// rawScheme carries attributes that need post-processing.
type rawScheme struct {
	Scheme
	WasCreatedForAppExtension string `xml:"wasCreatedForAppExtension,attr"`
}

// ReadScheme parses the .xcscheme file at path. The scheme name is the file
// name up to its first dot.
func ReadScheme(path string) (*Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheme %s: %w", path, err)
	}
	s, err := parseScheme(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scheme %s: %w", path, err)
	}
	s.Name, _, _ = strings.Cut(filepath.Base(path), ".")
	s.Path = path
	return s, nil
}

func parseScheme(data []byte) (*Scheme, error) {
	var raw rawScheme
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	s := raw.Scheme
	switch raw.WasCreatedForAppExtension {
	case "YES", "yes", "true":
		v := true
		s.WasCreatedForAppExtension = &v
	case "NO", "no", "false":
		v := false
		s.WasCreatedForAppExtension = &v
	}
	return &s, nil
}

// TargetIDs returns the pbxproj ids of the targets the scheme builds.
func (s *Scheme) TargetIDs() []string {
	var ids []string
	for _, e := range s.Build.Entries {
		if id := e.Reference.BlueprintIdentifier; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
