package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dejo1307/xcodemcp/internal/config"
	"github.com/dejo1307/xcodemcp/internal/engine"
	"github.com/dejo1307/xcodemcp/internal/explainers/cycles"
	"github.com/dejo1307/xcodemcp/internal/explainers/orphans"
	"github.com/dejo1307/xcodemcp/internal/explainers/platforms"
	"github.com/dejo1307/xcodemcp/internal/extractors/projectextractor"
	"github.com/dejo1307/xcodemcp/internal/extractors/schemeextractor"
	"github.com/dejo1307/xcodemcp/internal/facts"
	"github.com/dejo1307/xcodemcp/internal/renderers/llmcontext"
	"github.com/dejo1307/xcodemcp/internal/server"
	"github.com/dejo1307/xcodemcp/internal/xcode"
)

func main() {
	// Ensure log output goes to stderr, never stdout (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)

	app := &cli.App{
		Name:                   "xcodemcp",
		Usage:                  "Xcode project facts for AI assistants over MCP",
		Version:                server.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.yaml or .toml)",
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Directory to search for .xcodeproj bundles (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Regenerate the snapshot when a project file changes",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdio (default)",
				Action: serve,
			},
			{
				Name:   "generate",
				Usage:  "Generate a snapshot and write artifacts, then exit",
				Action: generate,
			},
			{
				Name:      "inspect",
				Usage:     "Print the targets of one Xcode project",
				ArgsUsage: "<path to .xcodeproj or directory>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "paths",
						Aliases: []string{"p"},
						Usage:   "Also list every file reference with its resolved path",
					},
				},
				Action: inspect,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("xcodemcp: %v", err)
	}
}

// loadConfig loads the config file and applies CLI flag overrides. A missing
// file falls back to defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("[main] no config at %s, using defaults", path)
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	if repo := c.String("repo"); repo != "" {
		cfg.Repo = repo
	}
	if c.Bool("watch") {
		cfg.Watch.Enabled = true
	}
	abs, err := filepath.Abs(cfg.Repo)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path %q: %w", cfg.Repo, err)
	}
	cfg.Repo = abs
	return cfg, nil
}

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	eng.RegisterExtractor(projectextractor.New())
	eng.RegisterExtractor(schemeextractor.New())

	eng.RegisterExplainer(cycles.New())
	eng.RegisterExplainer(orphans.New())
	eng.RegisterExplainer(platforms.New())

	eng.RegisterRenderer(llmcontext.New(cfg.Output.MaxContextTokens))
	return eng, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	// Load an existing snapshot so queries work before generate_snapshot.
	factsPath := filepath.Join(cfg.Repo, cfg.Output.Dir, "facts.jsonl")
	if _, err := os.Stat(factsPath); err == nil {
		log.Printf("[main] loading existing snapshot from %s", factsPath)
		if err := eng.Store().ReadJSONLFile(factsPath); err != nil {
			log.Printf("[main] warning: failed to load existing facts: %v", err)
		} else {
			eng.Store().BuildGraph()
			eng.SetSnapshot(&facts.Snapshot{
				Meta: facts.SnapshotMeta{Root: cfg.Repo, FactCount: eng.Store().Count()},
			})
			log.Printf("[main] loaded %d facts from existing snapshot", eng.Store().Count())
		}
	}

	srv, err := server.New(eng, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(c.Context)
}

func generate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	snapshot, err := eng.GenerateSnapshot(c.Context, cfg.Repo)
	if err != nil {
		return fmt.Errorf("snapshot generation failed: %w", err)
	}
	if err := eng.WriteArtifacts(cfg.Repo); err != nil {
		return fmt.Errorf("writing artifacts: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nSnapshot complete:\n")
	fmt.Fprintf(os.Stderr, "  Root:        %s\n", snapshot.Meta.Root)
	fmt.Fprintf(os.Stderr, "  Projects:    %d\n", len(snapshot.Meta.Projects))
	fmt.Fprintf(os.Stderr, "  Facts:       %d\n", snapshot.Meta.FactCount)
	fmt.Fprintf(os.Stderr, "  Insights:    %d\n", snapshot.Meta.InsightCount)
	fmt.Fprintf(os.Stderr, "  Artifacts:   %d\n", len(snapshot.Artifacts))
	fmt.Fprintf(os.Stderr, "  Duration:    %s\n", snapshot.Meta.Duration)
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", filepath.Join(cfg.Repo, cfg.Output.Dir))
	return nil
}

func inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("inspect needs exactly one path", 2)
	}
	path := c.Args().First()

	var (
		p   *xcode.Project
		err error
	)
	if strings.HasSuffix(strings.TrimRight(path, string(filepath.Separator)), ".xcodeproj") {
		p, err = xcode.Load(path)
	} else {
		p, err = xcode.Find(path, config.Default().Ignore...)
	}
	if err != nil {
		return err
	}

	out := c.App.Writer
	objects := p.Objects()
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Path)
	fmt.Fprintf(out, "  %d objects, %d targets, %d schemes\n\n", objects.Len(), len(p.Targets()), len(p.Schemes))

	for _, t := range p.Targets() {
		info := objects.TargetInfo(t)
		platform := string(info.Platform)
		if info.SDKRoot != "" {
			platform += " (" + info.SDKRoot + ")"
		}
		fmt.Fprintf(out, "%s  %s  %s\n", t.Name, t.Kind, platform)
		if t.ProductType != "" {
			fmt.Fprintf(out, "  product:        %s\n", t.ProductType.ShortName())
		}
		fmt.Fprintf(out, "  configurations: %s\n", strings.Join(info.Configurations, ", "))
		fmt.Fprintf(out, "  sources:        %d\n", len(t.SourceFiles()))
	}

	if !c.Bool("paths") {
		return nil
	}
	fmt.Fprintln(out)
	for _, ref := range objects.Files() {
		full, err := p.FullPath(ref)
		if err != nil {
			fmt.Fprintf(out, "%s  %s  ! %v\n", ref.ID, ref.DisplayName(), err)
			continue
		}
		fmt.Fprintf(out, "%s  %s  %s\n", ref.ID, ref.DisplayName(), full)
	}
	return nil
}
