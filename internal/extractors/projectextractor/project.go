// Package projectextractor turns the pbxproj object graph of each loaded
// project into facts: the project, its targets, build phases, file tree,
// configurations and Swift package dependencies.
package projectextractor

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/dejo1307/xcodemcp/internal/extractors"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/pbxproj"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

// ProjectExtractor emits facts from project.pbxproj files.
type ProjectExtractor struct{}

// New creates a new ProjectExtractor.
func New() *ProjectExtractor {
	return &ProjectExtractor{}
}

func (e *ProjectExtractor) Name() string {
	return "xcodeproj"
}

// Detect returns true when at least one project was loaded.
func (e *ProjectExtractor) Detect(projects []*xcode.Project) bool {
	return len(projects) > 0
}

// Extract walks every project. A project whose root object cannot be
// resolved is logged and skipped. Packages and package products are emitted
// once per workspace even when several projects reference them.
func (e *ProjectExtractor) Extract(ctx context.Context, root string, projects []*xcode.Project) ([]facts.Fact, error) {
	var all []facts.Fact
	seen := make(map[string]bool)

	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		ff, err := extractProject(root, p)
		if err != nil {
			log.Printf("[xcodeproj] skipping %s: %v", p.Path, err)
			continue
		}
		for _, f := range ff {
			if f.Kind == facts.KindPackage || f.Kind == facts.KindPackageProduct {
				if seen[f.Name] {
					continue
				}
				seen[f.Name] = true
			}
			all = append(all, f)
		}
	}
	return all, nil
}

// projectWalk holds the per-project state of one extraction.
type projectWalk struct {
	root  string
	p     *xcode.Project
	c     *pbxproj.Collection
	files map[string]string // pbxproj id -> fact name, for files and groups
	out   []facts.Fact
}

func extractProject(root string, p *xcode.Project) ([]facts.Fact, error) {
	proj, err := p.Project()
	if err != nil {
		return nil, err
	}
	w := &projectWalk{
		root:  root,
		p:     p,
		c:     p.Objects(),
		files: make(map[string]string),
	}

	w.walkGroups(proj.MainGroup)

	targetNames := make(map[string]string, len(proj.Targets))
	for _, t := range proj.Targets {
		targetNames[t.ID] = facts.TargetName(p.Name, t.Name)
	}
	for _, t := range proj.Targets {
		w.target(t, targetNames)
	}

	w.project(proj)
	w.packages(proj)
	return w.out, nil
}

func (w *projectWalk) project(proj *pbxproj.Project) {
	f := facts.Fact{
		Kind:    facts.KindProject,
		Name:    facts.ProjectName(w.p.Name),
		File:    extractors.RelPath(w.root, w.p.Path),
		Project: w.p.Name,
		ID:      proj.ID,
		Props: map[string]any{
			"object_version":        int(w.p.PBX.ObjectVersion),
			"compatibility_version": proj.CompatibilityVersion,
			"development_region":    proj.DevelopmentRegion,
			"known_regions":         proj.KnownRegions,
			"targets":               len(proj.Targets),
			"packages":              len(proj.Packages),
			"schemes":               len(w.p.Schemes),
		},
	}
	if proj.MainGroup != nil {
		if name, ok := w.files[proj.MainGroup.ID]; ok {
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelContains, Target: name})
		}
	}
	for _, t := range proj.Targets {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelHasTarget, Target: facts.TargetName(w.p.Name, t.Name)})
	}
	if proj.BuildConfigurationList != nil {
		f.Props["configurations"] = proj.BuildConfigurationList.Names()
		f.Props["default_configuration"] = proj.BuildConfigurationList.DefaultConfigurationName
		for _, cfg := range proj.BuildConfigurationList.BuildConfigurations {
			name := w.configuration("", cfg)
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelConfiguredBy, Target: name})
		}
	}
	for _, pkg := range proj.Packages {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelUsesPackage, Target: facts.PackageName(pkg.Name())})
	}
	w.out = append(w.out, f)
}

// walkGroups emits a fact for every group and file reachable from the main
// group. Groups are named by their navigator path, since a group without a
// path of its own shares its parent's directory. Children are named before
// their parent is emitted.
func (w *projectWalk) walkGroups(main *pbxproj.FSReference) {
	if main == nil {
		return
	}
	var visit func(ref *pbxproj.FSReference, nav string) string
	visit = func(ref *pbxproj.FSReference, nav string) string {
		if name, ok := w.files[ref.ID]; ok {
			return name
		}
		if !ref.IsGroup() {
			return w.file(ref)
		}
		name := facts.GroupName(nav)
		w.files[ref.ID] = name

		f := facts.Fact{
			Kind:    facts.KindGroup,
			Name:    name,
			Project: w.p.Name,
			ID:      ref.ID,
			Props: map[string]any{
				"display_name":   ref.DisplayName(),
				"navigator_path": nav,
				"source_tree":    string(ref.SourceTree),
				"group_kind":     ref.Kind.String(),
				"children":       len(ref.Children),
			},
		}
		if rel, resolved := w.resolve(ref); resolved {
			f.File = rel
		}
		for _, child := range ref.Children {
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelContains, Target: visit(child, nav+"/"+child.DisplayName())})
		}
		w.out = append(w.out, f)
		return name
	}
	visit(main, w.p.Name)
}

// file emits a file fact once and returns its name.
func (w *projectWalk) file(ref *pbxproj.FSReference) string {
	if name, ok := w.files[ref.ID]; ok {
		return name
	}
	rel, resolved := w.resolve(ref)
	w.files[ref.ID] = rel

	fileType := ref.FileType()
	if fileType == "" {
		fileType, _ = xcode.FileType(path.Ext(ref.Path))
	}
	f := facts.Fact{
		Kind:    facts.KindFile,
		Name:    rel,
		Project: w.p.Name,
		ID:      ref.ID,
		Props: map[string]any{
			"display_name": ref.DisplayName(),
			"source_tree":  string(ref.SourceTree),
			"file_type":    fileType,
			"source":       xcode.IsSourceType(fileType),
		},
	}
	if resolved {
		f.File = rel
	}
	w.out = append(w.out, f)
	return rel
}

// resolve returns the workspace-relative path of ref. References whose tree
// cannot be resolved on disk (built products, SDK files) are named by their
// tree and path within the project.
func (w *projectWalk) resolve(ref *pbxproj.FSReference) (string, bool) {
	full, err := w.p.FullPath(ref)
	if err == nil {
		return extractors.RelPath(w.root, full), true
	}
	return w.p.Name + ":" + string(ref.SourceTree) + "/" + ref.Path, false
}

func (w *projectWalk) target(t *pbxproj.Target, targetNames map[string]string) {
	name := facts.TargetName(w.p.Name, t.Name)
	info := w.c.TargetInfo(t)

	tk := "native"
	switch {
	case t.Kind.IsLegacy():
		tk = "legacy"
	case t.Kind.IsAggregate():
		tk = "aggregate"
	}

	f := facts.Fact{
		Kind:    facts.KindTarget,
		Name:    name,
		File:    extractors.RelPath(w.root, w.p.Path),
		Project: w.p.Name,
		ID:      t.ID,
		Props: map[string]any{
			"target_name":    t.Name,
			"target_kind":    tk,
			"product_name":   t.ProductName,
			"platform":       string(info.Platform),
			"sdkroot":        info.SDKRoot,
			"configurations": info.Configurations,
			"phases":         len(t.BuildPhases),
		},
	}
	if t.ProductType != "" {
		f.Props["product_type"] = string(t.ProductType)
		f.Props["product_type_short"] = t.ProductType.ShortName()
		f.Props["test"] = t.ProductType.IsTest()
	}
	if t.BuildToolPath != "" {
		f.Props["build_tool"] = t.BuildToolPath
		f.Props["build_arguments"] = t.BuildArgumentsString
	}

	used := make(map[string]int)
	for _, phase := range t.BuildPhases {
		label := phase.DisplayName()
		used[label]++
		if n := used[label]; n > 1 {
			label = fmt.Sprintf("%s#%d", label, n)
		}
		phaseName := w.phase(t, phase, label)
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelHasPhase, Target: phaseName})
	}
	for _, dep := range t.Dependencies {
		if dn, ok := targetNames[dep.TargetID()]; ok {
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelDependsOn, Target: dn})
		} else if dep.Name != "" {
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelDependsOn, Target: dep.Name})
		}
	}
	for _, pd := range t.PackageProductDependencies {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelUsesPackage, Target: facts.PackageProductName(pd.ProductName)})
		w.packageProduct(pd)
	}
	if t.Product != nil {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelProduces, Target: w.file(t.Product)})
	}
	if t.BuildConfigurationList != nil {
		for _, cfg := range t.BuildConfigurationList.BuildConfigurations {
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelConfiguredBy, Target: w.configuration(t.Name, cfg)})
		}
	}
	w.out = append(w.out, f)
}

func (w *projectWalk) phase(t *pbxproj.Target, phase *pbxproj.BuildPhase, label string) string {
	name := facts.PhaseName(w.p.Name, t.Name, label)
	f := facts.Fact{
		Kind:    facts.KindBuildPhase,
		Name:    name,
		Project: w.p.Name,
		ID:      phase.ID,
		Props: map[string]any{
			"phase_kind":   phase.Kind.String(),
			"target":       facts.TargetName(w.p.Name, t.Name),
			"files":        len(phase.Files),
			"post_process": phase.RunOnlyForDeploymentPostprocessing,
		},
	}
	if s := phase.ShellScript; s != nil {
		f.Props["shell_path"] = s.ShellPath
		f.Props["script"] = s.ShellScript
		f.Props["input_paths"] = s.InputPaths
		f.Props["output_paths"] = s.OutputPaths
	}
	if cf := phase.CopyFiles; cf != nil {
		f.Props["dst_path"] = cf.DstPath
		f.Props["dst_subfolder_spec"] = cf.DstSubfolderSpec
	}
	for _, bf := range phase.Files {
		switch {
		case bf.File != nil:
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelBuilds, Target: w.file(bf.File)})
		case bf.ProductRef != nil:
			f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelUsesPackage, Target: facts.PackageProductName(bf.ProductRef.ProductName)})
		}
	}
	w.out = append(w.out, f)
	return name
}

func (w *projectWalk) configuration(target string, cfg *pbxproj.BuildConfiguration) string {
	name := facts.ConfigurationName(w.p.Name, target, cfg.Name)
	f := facts.Fact{
		Kind:    facts.KindConfiguration,
		Name:    name,
		Project: w.p.Name,
		ID:      cfg.ID,
		Props: map[string]any{
			"configuration": cfg.Name,
			"settings":      cfg.BuildSettings.Interface(),
		},
	}
	if target != "" {
		f.Props["target"] = facts.TargetName(w.p.Name, target)
	}
	if sdk, ok := cfg.Setting("SDKROOT"); ok {
		f.Props["sdkroot"] = sdk
	}
	if cfg.BaseConfiguration != nil {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelBasedOn, Target: w.file(cfg.BaseConfiguration)})
	}
	w.out = append(w.out, f)
	return name
}

func (w *projectWalk) packages(proj *pbxproj.Project) {
	for _, pkg := range proj.Packages {
		f := facts.Fact{
			Kind:    facts.KindPackage,
			Name:    facts.PackageName(pkg.Name()),
			Project: w.p.Name,
			ID:      pkg.ID,
			Props: map[string]any{
				"repository_url": pkg.RepositoryURL,
			},
		}
		if pkg.Requirement != nil {
			f.Props["requirement"] = pkg.Requirement.String()
			f.Props["requirement_kind"] = string(pkg.Requirement.Kind)
		}
		w.out = append(w.out, f)
	}
}

func (w *projectWalk) packageProduct(pd *pbxproj.SwiftPackageProductDependency) {
	f := facts.Fact{
		Kind:    facts.KindPackageProduct,
		Name:    facts.PackageProductName(pd.ProductName),
		Project: w.p.Name,
		ID:      pd.ID,
		Props: map[string]any{
			"product_name": pd.ProductName,
		},
	}
	if pd.Package != nil {
		f.Relations = append(f.Relations, facts.Relation{Kind: facts.RelProvidedBy, Target: facts.PackageName(pd.Package.Name())})
	}
	w.out = append(w.out, f)
}
