package facts

// Fact is one node of the workspace model extracted from Xcode projects.
type Fact struct {
	Kind      string         `json:"kind"`                // e.g. "project", "target", "file", "configuration"
	Name      string         `json:"name"`                // Canonical name, unique per kind within a snapshot
	File      string         `json:"file,omitempty"`      // Path relative to the workspace root, when the fact has one
	Project   string         `json:"project,omitempty"`   // Name of the owning .xcodeproj
	ID        string         `json:"id,omitempty"`        // pbxproj object identifier
	Props     map[string]any `json:"props,omitempty"`     // Kind-specific properties
	Relations []Relation     `json:"relations,omitempty"` // Edges to other facts
}

// Relation represents a directed edge between two facts.
type Relation struct {
	Kind   string `json:"kind"`   // e.g. "has_target", "builds", "depends_on"
	Target string `json:"target"` // Target fact name
}

// Fact kind constants.
const (
	KindProject        = "project"
	KindTarget         = "target"
	KindBuildPhase     = "build_phase"
	KindFile           = "file"
	KindGroup          = "group"
	KindConfiguration  = "configuration"
	KindPackage        = "package"
	KindPackageProduct = "package_product"
	KindScheme         = "scheme"
)

// Relation kind constants.
const (
	RelContains     = "contains"      // group -> child
	RelHasTarget    = "has_target"    // project -> target
	RelHasPhase     = "has_phase"     // target -> build phase
	RelBuilds       = "builds"        // build phase -> file, scheme -> target
	RelDependsOn    = "depends_on"    // target -> target
	RelConfiguredBy = "configured_by" // target or project -> configuration
	RelBasedOn      = "based_on"      // configuration -> xcconfig file
	RelUsesPackage  = "uses_package"  // target -> package product
	RelProvidedBy   = "provided_by"   // package product -> package
	RelProduces     = "produces"      // target -> product file
	RelBelongsTo    = "belongs_to"    // scheme -> project
)

// Insight represents a finding produced by an explainer.
type Insight struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"` // 0.0 - 1.0
	Evidence    []Evidence `json:"evidence"`
	Actions     []string   `json:"suggested_actions,omitempty"`
}

// Evidence links an insight back to concrete facts and files.
type Evidence struct {
	File   string `json:"file,omitempty"`
	Target string `json:"target,omitempty"`
	Fact   string `json:"fact,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Artifact represents a generated output file.
type Artifact struct {
	Name    string `json:"name"` // e.g. "llm_context.md"
	Content []byte `json:"-"`
	Type    string `json:"type"` // MIME type hint
}

// Snapshot holds the complete result of an analysis run.
type Snapshot struct {
	Meta      SnapshotMeta `json:"meta"`
	Facts     []Fact       `json:"facts"`
	Insights  []Insight    `json:"insights"`
	Artifacts []Artifact   `json:"artifacts"`
}

// SnapshotMeta contains metadata about a snapshot generation run.
type SnapshotMeta struct {
	Root         string        `json:"root"`
	GeneratedAt  string        `json:"generated_at"`
	Duration     string        `json:"duration"`
	Extractors   []string      `json:"extractors"`
	Explainers   []string      `json:"explainers"`
	Renderers    []string      `json:"renderers"`
	Projects     []ProjectHash `json:"projects,omitempty"`
	FactCount    int           `json:"fact_count"`
	InsightCount int           `json:"insight_count"`
}

// ProjectHash records the pbxproj content hash a snapshot was built from.
type ProjectHash struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	ModTime string `json:"mod_time"`
}
