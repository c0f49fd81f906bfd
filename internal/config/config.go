package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "xcodemcp.yaml"

// Config represents the xcodemcp.yaml (or .toml) configuration.
type Config struct {
	Repo       string          `yaml:"repo" toml:"repo"`
	Ignore     []string        `yaml:"ignore" toml:"ignore"`
	Extractors []string        `yaml:"extractors" toml:"extractors"`
	Explainers []string        `yaml:"explainers" toml:"explainers"`
	Renderers  []string        `yaml:"renderers" toml:"renderers"`
	Output     OutputConfig    `yaml:"output" toml:"output"`
	Workspace  WorkspaceConfig `yaml:"workspace" toml:"workspace"`
	Watch      WatchConfig     `yaml:"watch" toml:"watch"`
}

// OutputConfig controls where and how output artifacts are generated.
type OutputConfig struct {
	Dir              string `yaml:"dir" toml:"dir"`
	MaxContextTokens int    `yaml:"max_context_tokens" toml:"max_context_tokens"`
}

// WorkspaceConfig controls project discovery and loading.
type WorkspaceConfig struct {
	// Concurrency bounds how many projects are parsed at once.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
}

// WatchConfig controls regenerating the snapshot when a project file changes.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" toml:"debounce_ms"`
}

const (
	defaultOutputDir        = ".xcodemcp"
	defaultMaxContextTokens = 4000
	defaultConcurrency      = 4
	defaultDebounceMS       = 500
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Repo: ".",
		Ignore: []string{
			".git/**",
			"**/Pods/**",
			"**/Carthage/**",
			"**/DerivedData/**",
			"**/.build/**",
			"**/node_modules/**",
			defaultOutputDir + "/**",
		},
		Extractors: []string{"xcodeproj", "xcscheme"},
		Explainers: []string{"cycles", "orphans", "platforms"},
		Renderers:  []string{"llm_context"},
		Output: OutputConfig{
			Dir:              defaultOutputDir,
			MaxContextTokens: defaultMaxContextTokens,
		},
		Workspace: WorkspaceConfig{Concurrency: defaultConcurrency},
		Watch:     WatchConfig{DebounceMS: defaultDebounceMS},
	}
}

// Load reads a configuration file from the given path. Files ending in
// .toml are parsed as TOML, anything else as YAML. Missing fields are
// filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Ensure required defaults
	if cfg.Repo == "" {
		cfg.Repo = "."
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Output.MaxContextTokens == 0 {
		cfg.Output.MaxContextTokens = defaultMaxContextTokens
	}
	if cfg.Workspace.Concurrency <= 0 {
		cfg.Workspace.Concurrency = defaultConcurrency
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = defaultDebounceMS
	}

	return cfg, nil
}

// IsExtractorEnabled returns true if the named extractor is enabled.
func (c *Config) IsExtractorEnabled(name string) bool {
	return slices.Contains(c.Extractors, name)
}

// IsExplainerEnabled returns true if the named explainer is enabled.
func (c *Config) IsExplainerEnabled(name string) bool {
	return slices.Contains(c.Explainers, name)
}

// IsRendererEnabled returns true if the named renderer is enabled.
func (c *Config) IsRendererEnabled(name string) bool {
	return slices.Contains(c.Renderers, name)
}
