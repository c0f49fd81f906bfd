package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dejo1307/xcodemcp/internal/extractors"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/pbxproj"
	"github.com/dejo1307/xcodemcp/internal/workspace"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

const noFacts = "No facts available. Run generate_snapshot first."

// generateSnapshotArgs are the arguments for the generate_snapshot tool.
type generateSnapshotArgs struct {
	RepoPath string `json:"repo_path,omitempty" jsonschema:"Directory to search for .xcodeproj bundles. Defaults to the configured repo path."`
}

// queryFactsArgs are the arguments for the query_facts tool.
type queryFactsArgs struct {
	Kind       string   `json:"kind,omitempty" jsonschema:"Fact kind: project, target, build_phase, file, group, configuration, package, package_product or scheme"`
	Kinds      []string `json:"kinds,omitempty" jsonschema:"Several fact kinds, OR-combined with kind"`
	Project    string   `json:"project,omitempty" jsonschema:"Only facts from this project"`
	File       string   `json:"file,omitempty" jsonschema:"Exact workspace-relative file path"`
	FilePrefix string   `json:"file_prefix,omitempty" jsonschema:"File path prefix, e.g. App/Source"`
	Name       string   `json:"name,omitempty" jsonschema:"Substring of the fact name"`
	Names      []string `json:"names,omitempty" jsonschema:"Exact fact names"`
	Relation   string   `json:"relation,omitempty" jsonschema:"Relation kind the fact must have, e.g. depends_on or builds"`
	Prop       string   `json:"prop,omitempty" jsonschema:"Property the fact must have, e.g. platform"`
	PropValue  string   `json:"prop_value,omitempty" jsonschema:"Property value (requires prop)"`
	Offset     int      `json:"offset,omitempty" jsonschema:"Number of results to skip"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum results (default 100, max 500)"`
}

type listTargetsArgs struct {
	Project  string `json:"project,omitempty" jsonschema:"Only targets of this project"`
	Platform string `json:"platform,omitempty" jsonschema:"Only targets for this platform: iOS, macOS, tvOS, watchOS, xrOS or unknown"`
}

type targetInfoArgs struct {
	Project string `json:"project,omitempty" jsonschema:"Project name; may be omitted when the target name is unique or given as Project/Target"`
	Target  string `json:"target" jsonschema:"Target name"`
}

type resolvePathArgs struct {
	Project string `json:"project,omitempty" jsonschema:"Project name; may be omitted when only one project is loaded"`
	File    string `json:"file" jsonschema:"File or group name, path or object id"`
}

type findGroupArgs struct {
	Project string `json:"project,omitempty" jsonschema:"Project name; may be omitted when only one project is loaded"`
	Group   string `json:"group" jsonschema:"Group name or path"`
}

type traverseArgs struct {
	Start     string   `json:"start" jsonschema:"Fact name to start from, e.g. App/App"`
	Direction string   `json:"direction,omitempty" jsonschema:"forward (what start uses) or reverse (what uses start). Default forward"`
	Relations []string `json:"relations,omitempty" jsonschema:"Only follow these relation kinds"`
	Kinds     []string `json:"kinds,omitempty" jsonschema:"Only return nodes of these fact kinds"`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Maximum depth (default 5)"`
	MaxNodes  int      `json:"max_nodes,omitempty" jsonschema:"Maximum nodes (default 100)"`
}

type findPathArgs struct {
	From      string   `json:"from" jsonschema:"Source fact name"`
	To        string   `json:"to" jsonschema:"Destination fact name"`
	Relations []string `json:"relations,omitempty" jsonschema:"Only follow these relation kinds"`
	MaxDepth  int      `json:"max_depth,omitempty" jsonschema:"Maximum path length (default 10)"`
}

type impactArgs struct {
	Target         string `json:"target" jsonschema:"Fact name whose dependents to compute, e.g. a target, file or package product"`
	MaxDepth       int    `json:"max_depth,omitempty" jsonschema:"Maximum depth (default 3)"`
	MaxNodes       int    `json:"max_nodes,omitempty" jsonschema:"Maximum nodes (default 200)"`
	IncludeForward bool   `json:"include_forward,omitempty" jsonschema:"Also list what the target itself depends on"`
}

// registerTools adds MCP tools for snapshot generation and project queries.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate_snapshot",
		Description: "Parse every Xcode project under a directory, extract facts about targets, files, configurations, packages and schemes, detect problems and produce an LLM-ready summary.",
	}, s.generateSnapshot)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_facts",
		Description: "Query extracted project facts by kind, project, file, name, relation or property. Returns matching facts as JSON with paging.",
	}, s.queryFacts)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_targets",
		Description: "List targets with their platform, product type and configurations.",
	}, s.listTargets)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "target_info",
		Description: "Show one target in detail: platform, SDKROOT, configurations, build phases, compiled sources, dependencies and Swift package products.",
	}, s.targetInfo)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resolve_path",
		Description: "Resolve a file or group reference to its absolute path on disk by walking the group hierarchy and source trees.",
	}, s.resolvePath)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_group",
		Description: "Find a group in the project navigator by name or path and list its children.",
	}, s.findGroup)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "traverse",
		Description: "Breadth-first traversal of the fact graph from a starting fact, forward or reverse, optionally filtered by relation and node kind.",
	}, s.traverse)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest relation path between two facts, e.g. how a scheme reaches a source file.",
	}, s.findPath)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "impact",
		Description: "Compute what is affected by changing a fact: dependents grouped by depth, e.g. the targets and schemes that build a file.",
	}, s.impact)
}

func (s *Server) generateSnapshot(ctx context.Context, _ *mcp.CallToolRequest, args generateSnapshotArgs) (*mcp.CallToolResult, any, error) {
	repoPath := args.RepoPath
	if repoPath == "" {
		repoPath = s.cfg.Repo
	}

	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid repo path: %v", err)), nil, nil
	}

	snapshot, err := s.eng.GenerateSnapshot(ctx, absRepo)
	if err != nil {
		return errorResult(fmt.Sprintf("snapshot generation failed: %v", err)), nil, nil
	}

	// Write artifacts to disk
	if err := s.eng.WriteArtifacts(absRepo); err != nil {
		log.Printf("[server] warning: failed to write artifacts: %v", err)
	}

	summary := fmt.Sprintf(
		"Snapshot generated successfully.\n\n"+
			"- Root: %s\n"+
			"- Projects: %d\n"+
			"- Facts: %d\n"+
			"- Insights: %d\n"+
			"- Artifacts: %d\n"+
			"- Duration: %s\n"+
			"- Extractors: %v\n"+
			"- Explainers: %v\n\n"+
			"Use the xcode://snapshot/context resource to read the LLM-ready summary.",
		snapshot.Meta.Root,
		len(snapshot.Meta.Projects),
		snapshot.Meta.FactCount,
		snapshot.Meta.InsightCount,
		len(snapshot.Artifacts),
		snapshot.Meta.Duration,
		snapshot.Meta.Extractors,
		snapshot.Meta.Explainers,
	)
	return textResult(summary), nil, nil
}

func (s *Server) queryFacts(_ context.Context, _ *mcp.CallToolRequest, args queryFactsArgs) (*mcp.CallToolResult, any, error) {
	store := s.eng.Store()
	if store.Count() == 0 {
		return errorResult(noFacts), nil, nil
	}

	results, total := store.QueryAdvanced(facts.QueryOpts{
		Kind:       args.Kind,
		Kinds:      args.Kinds,
		Project:    args.Project,
		File:       args.File,
		FilePrefix: args.FilePrefix,
		Name:       args.Name,
		Names:      args.Names,
		RelKind:    args.Relation,
		Prop:       args.Prop,
		PropValue:  args.PropValue,
		Offset:     args.Offset,
		Limit:      args.Limit,
	})
	if results == nil {
		results = []facts.Fact{}
	}

	return jsonResult(struct {
		Total  int          `json:"total"`
		Offset int          `json:"offset"`
		Facts  []facts.Fact `json:"facts"`
	}{total, args.Offset, results}), nil, nil
}

func (s *Server) listTargets(_ context.Context, _ *mcp.CallToolRequest, args listTargetsArgs) (*mcp.CallToolResult, any, error) {
	store := s.eng.Store()
	if store.Count() == 0 {
		return errorResult(noFacts), nil, nil
	}

	targets := store.Targets()
	if args.Project != "" {
		var names []string
		found := false
		for _, p := range store.Projects() {
			names = append(names, p)
			found = found || p == args.Project
		}
		if !found {
			return errorResult(notFoundMessage("project", args.Project, names)), nil, nil
		}
	}

	var sb strings.Builder
	sb.WriteString("| Target | Platform | Product | Kind | Configurations |\n")
	sb.WriteString("|--------|----------|---------|------|----------------|\n")
	n := 0
	for _, t := range targets {
		platform, _ := t.Props["platform"].(string)
		if args.Project != "" && t.Project != args.Project {
			continue
		}
		if args.Platform != "" && !strings.EqualFold(platform, args.Platform) {
			continue
		}
		product, _ := t.Props["product_type_short"].(string)
		if product == "" {
			product = "-"
		}
		kind, _ := t.Props["target_kind"].(string)
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			t.Name, platform, product, kind, strings.Join(stringList(t.Props["configurations"]), ", ")))
		n++
	}
	if n == 0 {
		return textResult("No targets match."), nil, nil
	}
	return textResult(fmt.Sprintf("%d target(s)\n\n%s", n, sb.String())), nil, nil
}

// ensureWorkspace returns the live workspace, generating a snapshot first when
// the server started from cached facts.
func (s *Server) ensureWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	if ws := s.eng.Workspace(); ws != nil {
		return ws, nil
	}
	if _, err := s.eng.GenerateSnapshot(ctx, s.cfg.Repo); err != nil {
		return nil, err
	}
	return s.eng.Workspace(), nil
}

// project selects a loaded project by name. An empty name is allowed when
// exactly one project is loaded.
func (s *Server) project(ctx context.Context, name string) (*xcode.Project, error) {
	ws, err := s.ensureWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := ws.Project(name); ok {
		return p, nil
	}
	var names []string
	for _, p := range ws.Projects() {
		names = append(names, p.Name)
	}
	if name == "" {
		return nil, fmt.Errorf("%d projects loaded, specify one of: %s", len(names), strings.Join(names, ", "))
	}
	return nil, fmt.Errorf("%s", notFoundMessage("project", name, names))
}

type phaseSummary struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Files int    `json:"files"`
}

type targetDetail struct {
	Project        string         `json:"project"`
	Name           string         `json:"name"`
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	ProductName    string         `json:"product_name,omitempty"`
	ProductType    string         `json:"product_type,omitempty"`
	ProductFile    string         `json:"product_file,omitempty"`
	Platform       string         `json:"platform"`
	SDKRoot        string         `json:"sdkroot,omitempty"`
	Configurations []string       `json:"configurations"`
	Phases         []phaseSummary `json:"phases"`
	Sources        []string       `json:"sources,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	Packages       []string       `json:"packages,omitempty"`
	Schemes        []string       `json:"schemes,omitempty"`
	BuildTool      string         `json:"build_tool,omitempty"`
}

func (s *Server) targetInfo(ctx context.Context, _ *mcp.CallToolRequest, args targetInfoArgs) (*mcp.CallToolResult, any, error) {
	if args.Target == "" {
		return errorResult("target is required"), nil, nil
	}
	p, t, err := s.findTarget(ctx, args.Project, args.Target)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	c := p.Objects()
	info := c.TargetInfo(t)
	d := targetDetail{
		Project:        p.Name,
		Name:           t.Name,
		ID:             t.ID,
		Kind:           t.Kind.String(),
		ProductName:    t.ProductName,
		ProductType:    string(t.ProductType),
		Platform:       string(info.Platform),
		SDKRoot:        info.SDKRoot,
		Configurations: info.Configurations,
		BuildTool:      strings.TrimSpace(t.BuildToolPath + " " + t.BuildArgumentsString),
	}
	if t.Product != nil {
		d.ProductFile = t.Product.DisplayName()
	}
	for _, phase := range t.BuildPhases {
		d.Phases = append(d.Phases, phaseSummary{Name: phase.DisplayName(), Kind: phase.Kind.String(), Files: len(phase.Files)})
	}
	root := s.eng.Workspace().Root()
	for _, ref := range t.SourceFiles() {
		if full, err := p.FullPath(ref); err == nil {
			d.Sources = append(d.Sources, extractors.RelPath(root, full))
		} else {
			d.Sources = append(d.Sources, ref.DisplayName())
		}
	}
	for _, dep := range t.Dependencies {
		switch {
		case dep.Target != nil:
			d.Dependencies = append(d.Dependencies, dep.Target.Name)
		case dep.TargetProxy != nil && dep.TargetProxy.RemoteInfo != "":
			d.Dependencies = append(d.Dependencies, dep.TargetProxy.RemoteInfo)
		case dep.Name != "":
			d.Dependencies = append(d.Dependencies, dep.Name)
		}
	}
	for _, pd := range t.PackageProductDependencies {
		d.Packages = append(d.Packages, pd.ProductName)
	}
	for _, sc := range p.SchemesFor(t.ID) {
		d.Schemes = append(d.Schemes, sc.Name)
	}
	return jsonResult(d), nil, nil
}

// findTarget looks a target up by name. "Project/Target" selects the
// project; otherwise every loaded project is searched and the name must be
// unique.
func (s *Server) findTarget(ctx context.Context, project, name string) (*xcode.Project, *pbxproj.Target, error) {
	if project == "" {
		if p, t, ok := strings.Cut(name, "/"); ok {
			project, name = p, t
		}
	}

	var candidates []*xcode.Project
	if project != "" {
		p, err := s.project(ctx, project)
		if err != nil {
			return nil, nil, err
		}
		candidates = []*xcode.Project{p}
	} else {
		ws, err := s.ensureWorkspace(ctx)
		if err != nil {
			return nil, nil, err
		}
		candidates = ws.Projects()
	}

	type match struct {
		p *xcode.Project
		t *pbxproj.Target
	}
	var (
		matches []match
		all     []string
	)
	for _, p := range candidates {
		if t, ok := p.Objects().TargetByName(name); ok {
			matches = append(matches, match{p, t})
		}
		for _, t := range p.Targets() {
			all = append(all, t.Name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil, fmt.Errorf("%s", notFoundMessage("target", name, all))
	case 1:
		return matches[0].p, matches[0].t, nil
	}
	var projects []string
	for _, m := range matches {
		projects = append(projects, m.p.Name)
	}
	return nil, nil, fmt.Errorf("target %q exists in several projects (%s); pass project", name, strings.Join(projects, ", "))
}

type resolvedRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	SourceTree string `json:"source_tree"`
	Path       string `json:"path,omitempty"`
	FullPath   string `json:"full_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) resolveRef(p *xcode.Project, ref *pbxproj.FSReference) resolvedRef {
	r := resolvedRef{
		ID:         ref.ID,
		Name:       ref.DisplayName(),
		Kind:       ref.Kind.String(),
		SourceTree: string(ref.SourceTree),
		Path:       ref.Path,
	}
	if full, err := p.FullPath(ref); err != nil {
		r.Error = err.Error()
	} else {
		r.FullPath = full
	}
	return r
}

func (s *Server) resolvePath(ctx context.Context, _ *mcp.CallToolRequest, args resolvePathArgs) (*mcp.CallToolResult, any, error) {
	if args.File == "" {
		return errorResult("file is required"), nil, nil
	}
	p, err := s.project(ctx, args.Project)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var (
		out   []resolvedRef
		names []string
	)
	for _, ref := range p.Objects().FSReferences() {
		names = append(names, ref.DisplayName())
		if ref.ID == args.File || ref.DisplayName() == args.File || ref.Path == args.File {
			out = append(out, s.resolveRef(p, ref))
		}
	}
	if len(out) == 0 {
		return errorResult(notFoundMessage("file", args.File, names)), nil, nil
	}
	return jsonResult(out), nil, nil
}

func (s *Server) findGroup(ctx context.Context, _ *mcp.CallToolRequest, args findGroupArgs) (*mcp.CallToolResult, any, error) {
	if args.Group == "" {
		return errorResult("group is required"), nil, nil
	}
	p, err := s.project(ctx, args.Project)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	c := p.Objects()
	g, ok := c.GroupByNameOrPath(args.Group)
	if !ok {
		var names []string
		for _, g := range c.Groups() {
			names = append(names, g.DisplayName())
		}
		return errorResult(notFoundMessage("group", args.Group, names)), nil, nil
	}

	result := struct {
		resolvedRef
		Children []resolvedRef `json:"children"`
	}{resolvedRef: s.resolveRef(p, g)}
	for _, child := range g.Children {
		result.Children = append(result.Children, s.resolveRef(p, child))
	}
	return jsonResult(result), nil, nil
}

// graph returns the fact graph, building it when facts were loaded
// without one.
func (s *Server) graph() (*facts.Graph, error) {
	store := s.eng.Store()
	if store.Count() == 0 {
		return nil, fmt.Errorf("%s", noFacts)
	}
	if g := store.Graph(); g != nil {
		return g, nil
	}
	store.BuildGraph()
	return store.Graph(), nil
}

// checkFact reports a name that is neither a fact nor a relation target,
// with the closest fact names as suggestions.
func (s *Server) checkFact(name string) error {
	store := s.eng.Store()
	if len(store.LookupByExactName(name)) > 0 || len(store.ReverseLookup(name, "")) > 0 {
		return nil
	}
	var names []string
	for _, f := range store.All() {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return fmt.Errorf("%s", notFoundMessage("fact", name, names))
}

func (s *Server) traverse(_ context.Context, _ *mcp.CallToolRequest, args traverseArgs) (*mcp.CallToolResult, any, error) {
	g, err := s.graph()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	if err := s.checkFact(args.Start); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	direction, err := facts.ParseDirection(args.Direction)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return jsonResult(g.Traverse(args.Start, direction, args.Relations, args.Kinds, args.MaxDepth, args.MaxNodes)), nil, nil
}

func (s *Server) findPath(_ context.Context, _ *mcp.CallToolRequest, args findPathArgs) (*mcp.CallToolResult, any, error) {
	g, err := s.graph()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	for _, name := range []string{args.From, args.To} {
		if err := s.checkFact(name); err != nil {
			return errorResult(err.Error()), nil, nil
		}
	}
	return jsonResult(g.FindPath(args.From, args.To, args.Relations, args.MaxDepth)), nil, nil
}

func (s *Server) impact(_ context.Context, _ *mcp.CallToolRequest, args impactArgs) (*mcp.CallToolResult, any, error) {
	g, err := s.graph()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	if err := s.checkFact(args.Target); err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return jsonResult(g.ImpactSet(args.Target, args.MaxDepth, args.MaxNodes, args.IncludeForward)), nil, nil
}

// stringList reads a []string prop, including the []any of facts reloaded
// from facts.jsonl.
func stringList(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
