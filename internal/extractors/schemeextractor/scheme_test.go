package schemeextractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

const schemeXML = `<?xml version="1.0" encoding="UTF-8"?>
<Scheme LastUpgradeVersion = "1500" version = "1.7">
   <BuildAction parallelizeBuildables = "YES">
      <BuildActionEntries>
         <BuildActionEntry buildForRunning = "YES">
            <BuildableReference
               BuildableIdentifier = "primary"
               BlueprintIdentifier = "000000000000000000000010"
               BuildableName = "App.app"
               BlueprintName = "App"
               ReferencedContainer = "container:App.xcodeproj">
            </BuildableReference>
         </BuildActionEntry>
         <BuildActionEntry buildForRunning = "YES">
            <BuildableReference
               BuildableIdentifier = "primary"
               BlueprintIdentifier = "AAAAAAAAAAAAAAAAAAAAAAAA"
               BuildableName = "Kit.framework"
               BlueprintName = "Kit"
               ReferencedContainer = "container:../Kit/Kit.xcodeproj">
            </BuildableReference>
         </BuildActionEntry>
      </BuildActionEntries>
   </BuildAction>
   <TestAction buildConfiguration = "Debug"></TestAction>
   <LaunchAction buildConfiguration = "Release"></LaunchAction>
</Scheme>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadProject(t *testing.T, root string, withScheme bool) *xcode.Project {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "..", "pbxproj", "testdata", "minimal.pbxproj"))
	if err != nil {
		t.Fatal(err)
	}
	bundle := filepath.Join(root, "App.xcodeproj")
	writeFile(t, filepath.Join(bundle, xcode.PBXProjName), string(src))
	if withScheme {
		writeFile(t, filepath.Join(bundle, "xcshareddata", "xcschemes", "App.xcscheme"), schemeXML)
	}
	p, err := xcode.Load(bundle)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func TestDetect(t *testing.T) {
	e := New()
	if e.Detect([]*xcode.Project{loadProject(t, t.TempDir(), false)}) {
		t.Error("Detect should be false without schemes")
	}
	if !e.Detect([]*xcode.Project{loadProject(t, t.TempDir(), true)}) {
		t.Error("Detect should be true with a shared scheme")
	}
}

func TestExtract(t *testing.T) {
	root := t.TempDir()
	p := loadProject(t, root, true)

	ff, err := New().Extract(context.Background(), root, []*xcode.Project{p})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ff) != 1 {
		t.Fatalf("facts = %d, want 1", len(ff))
	}

	f := ff[0]
	if f.Kind != facts.KindScheme || f.Name != "scheme:App/App" {
		t.Errorf("fact = %s %s", f.Kind, f.Name)
	}
	if f.File != "App.xcodeproj/xcshareddata/xcschemes/App.xcscheme" {
		t.Errorf("File = %q", f.File)
	}
	if f.Props["shared"] != true || f.Props["parallelize"] != true {
		t.Errorf("props = %v", f.Props)
	}
	if f.Props["test_configuration"] != "Debug" || f.Props["launch_configuration"] != "Release" {
		t.Errorf("configurations = %v / %v", f.Props["test_configuration"], f.Props["launch_configuration"])
	}

	var builds []string
	belongs := false
	for _, r := range f.Relations {
		switch r.Kind {
		case facts.RelBuilds:
			builds = append(builds, r.Target)
		case facts.RelBelongsTo:
			belongs = r.Target == "App"
		}
	}
	// The Kit buildable lives in another container and is dropped.
	if len(builds) != 1 || builds[0] != "App/App" {
		t.Errorf("builds = %v, want [App/App]", builds)
	}
	if !belongs {
		t.Error("scheme should belong to project App")
	}
}
