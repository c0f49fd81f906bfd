package pbxproj

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
)

func TestGetVecSkipsDangling(t *testing.T) {
	c := loadFixture(t).Objects

	phases := GetVec[BuildPhase](c, []string{
		"000000000000000000000011",
		"000000000000000000000012",
		"000000000000000000000013",
		"0000000000000000000000FF",
	})
	require.Len(t, phases, 3)
	assert.Equal(t, kind.SourcesBuildPhase, phases[0].Kind)
	assert.Equal(t, kind.FrameworksBuildPhase, phases[1].Kind)
	assert.Equal(t, kind.RunScriptBuildPhase, phases[2].Kind)

	app, ok := Get[Target](c, idApp)
	require.True(t, ok)
	assert.Len(t, app.BuildPhases, 3)
}

func TestTryGetErrors(t *testing.T) {
	c := loadFixture(t).Objects

	_, err := TryGet[Target](c, "nope")
	assert.True(t, errors.Is(err, pbxerr.ErrDanglingReference))

	_, err = TryGet[Target](c, idLogSwift)
	require.Error(t, err)
	pe, ok := pbxerr.As(err)
	require.True(t, ok)
	assert.Equal(t, pbxerr.TypeTypeMismatch, pe.Type)
	assert.Equal(t, "Target", pe.Expected)
	assert.Equal(t, "PBXFileReference", pe.Actual)
	assert.Equal(t, idLogSwift, pe.ID)

	_, ok = Get[Target](c, idLogSwift)
	assert.False(t, ok)
}

func TestCollectionBasics(t *testing.T) {
	c := loadFixture(t).Objects

	ids := c.IDs()
	require.Len(t, ids, c.Len())
	assert.IsNonDecreasing(t, ids)

	assert.Equal(t, kind.NativeTarget, mustKind(t, c, idApp))
	_, ok := c.KindOf("nope")
	assert.False(t, ok)

	raw, ok := c.Raw(idApp)
	require.True(t, ok)
	assert.Equal(t, "App", raw.StringOr("name", ""))

	counts := c.CountByKind()
	assert.Equal(t, 4, counts["PBXGroup"])
	assert.Equal(t, 4, counts["XCBuildConfiguration"])

	parent, ok := c.Parent(idContentView)
	require.True(t, ok)
	assert.Equal(t, idViews, parent)
	_, ok = c.Parent(idMainGroup)
	assert.False(t, ok)
}

func TestBulkQueries(t *testing.T) {
	c := loadFixture(t).Objects

	assert.Len(t, c.Targets(), 2)
	assert.Len(t, c.Projects(), 1)
	assert.Len(t, c.BuildPhases(), 3)
	assert.Len(t, c.BuildConfigurations(), 4)
	assert.Len(t, c.ConfigurationLists(), 3)
	assert.Len(t, c.BuildFiles(), 3)
	assert.Empty(t, c.BuildRules())
	assert.Len(t, c.Files(), 4)
	assert.Len(t, c.Groups(), 4)
	assert.Len(t, c.FSReferences(), 8)
	assert.Len(t, c.SwiftPackageProductDependencies(), 1)
	assert.Len(t, c.SwiftPackageReferences(), 1)
	assert.Len(t, c.TargetDependencies(), 1)
	assert.Len(t, c.ContainerItemProxies(), 1)
}

func TestLookups(t *testing.T) {
	c := loadFixture(t).Objects

	lint, ok := c.TargetByName("Lint")
	require.True(t, ok)
	assert.Equal(t, idLint, lint.ID)
	_, ok = c.TargetByName("Missing")
	assert.False(t, ok)

	configs := c.BuildConfigurationsByBaseID(idXCConfig)
	assert.Len(t, configs, 3)

	g, ok := c.GroupByNameOrPath("Products")
	require.True(t, ok)
	assert.Equal(t, idProducts, g.ID)
	g, ok = c.GroupByNameOrPath("Views")
	require.True(t, ok)
	assert.Equal(t, idViews, g.ID)

	_, ok = c.File(idLogSwift)
	assert.True(t, ok)
	_, ok = c.File(idSource)
	assert.False(t, ok)
	_, ok = c.Group(idSource)
	assert.True(t, ok)
	_, ok = c.Group(idLogSwift)
	assert.False(t, ok)
	_, ok = c.FSObject(idLogSwift)
	assert.True(t, ok)
}

func TestGroupByNameOrPathPrefersName(t *testing.T) {
	c := collectionFrom(t, `{
		A = { isa = PBXGroup; children = ( ); path = Shared; sourceTree = "<group>"; };
		B = { isa = PBXGroup; children = ( ); name = Shared; path = Other; sourceTree = "<group>"; };
	}`)
	g, ok := c.GroupByNameOrPath("Shared")
	require.True(t, ok)
	assert.Equal(t, "B", g.ID)
}

func TestResolutionTerminatesOnCycles(t *testing.T) {
	c := collectionFrom(t, `{
		A = { isa = PBXGroup; children = ( B, ); name = A; sourceTree = "<group>"; };
		B = { isa = PBXGroup; children = ( A, ); name = B; sourceTree = "<group>"; };
		X = { isa = PBXNativeTarget; name = X; productType = "com.apple.product-type.tool"; dependencies = ( DX, ); };
		Y = { isa = PBXNativeTarget; name = Y; productType = "com.apple.product-type.tool"; dependencies = ( DY, ); };
		DX = { isa = PBXTargetDependency; target = Y; };
		DY = { isa = PBXTargetDependency; target = X; };
	}`)

	a, ok := c.Group("A")
	require.True(t, ok)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "B", a.Children[0].ID)
	assert.Empty(t, a.Children[0].Children)

	x, ok := c.TargetByName("X")
	require.True(t, ok)
	require.Len(t, x.Dependencies, 1)
	require.NotNil(t, x.Dependencies[0].Target)
	assert.Equal(t, "Y", x.Dependencies[0].Target.ID)
	require.Len(t, x.Dependencies[0].Target.Dependencies, 1)
	assert.Nil(t, x.Dependencies[0].Target.Dependencies[0].Target)

	// Each target in one scan sees the cycle from its own side.
	targets := c.Targets()
	require.Len(t, targets, 2)
	require.NotNil(t, targets[1].Dependencies[0].Target)
	assert.Equal(t, "X", targets[1].Dependencies[0].Target.ID)
	assert.Nil(t, targets[1].Dependencies[0].Target.Dependencies[0].Target)
}

func TestLayeredDependenciesResolveOnce(t *testing.T) {
	// Target Ti depends on every Tj with j < i.
	const n = 30
	var sb strings.Builder
	sb.WriteString("{\n")
	for i := 0; i < n; i++ {
		var deps []string
		for j := 0; j < i; j++ {
			dep := fmt.Sprintf("D%02d_%02d", i, j)
			deps = append(deps, dep+",")
			fmt.Fprintf(&sb, "%s = { isa = PBXTargetDependency; target = T%02d; };\n", dep, j)
		}
		fmt.Fprintf(&sb, "T%02d = { isa = PBXNativeTarget; name = T%02d; productType = \"com.apple.product-type.framework\"; dependencies = ( %s ); };\n",
			i, i, strings.Join(deps, " "))
	}
	sb.WriteString("}")
	c := collectionFrom(t, sb.String())

	start := time.Now()
	top, ok := c.TargetByName(fmt.Sprintf("T%02d", n-1))
	require.True(t, ok)
	require.Len(t, top.Dependencies, n-1)
	assert.Same(t, top.Dependencies[0].Target, top.Dependencies[1].Target.Dependencies[0].Target)

	targets := c.Targets()
	require.Len(t, targets, n)
	assert.Same(t, targets[0], targets[n-1].Dependencies[0].Target)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestUnknownKindsAreKept(t *testing.T) {
	c := collectionFrom(t, `{
		R = { isa = PBXReferenceProxy; path = libFoo.a; };
	}`)
	k := mustKind(t, c, "R")
	assert.True(t, k.IsUnknown())
	assert.Equal(t, "PBXReferenceProxy", k.String())
	_, ok := c.FSObject("R")
	assert.False(t, ok)
}

// --- helpers ---

func collectionFrom(t *testing.T, objects string) *Collection {
	t.Helper()
	root, err := Parse([]byte(`{ archiveVersion = 1; objectVersion = 56; rootObject = none; objects = ` + objects + `; }`))
	require.NoError(t, err)
	return root.Objects
}
