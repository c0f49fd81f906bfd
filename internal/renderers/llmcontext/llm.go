package llmcontext

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

// LLMContextRenderer produces a compact markdown summary optimized for LLM consumption.
type LLMContextRenderer struct {
	maxTokens int
}

// New creates a new LLMContextRenderer with the given token budget.
func New(maxTokens int) *LLMContextRenderer {
	if maxTokens <= 0 {
		maxTokens = 16000
	}
	return &LLMContextRenderer{maxTokens: maxTokens}
}

func (r *LLMContextRenderer) Name() string {
	return "llm_context"
}

// section holds a rendered section with its display name.
type section struct {
	name    string
	content string
}

// Render produces the llm_context.md artifact using progressive summarization.
// Sections are ordered by priority; lower-priority sections are omitted first
// when the token budget is tight.
func (r *LLMContextRenderer) Render(ctx context.Context, snapshot *facts.Snapshot) ([]facts.Artifact, error) {
	// Sections ordered by priority (most important first)
	sections := []section{
		{"Projects", r.renderProjects(snapshot)},
		{"Targets", r.renderTargets(snapshot)},
		{"Insights", r.renderInsights(snapshot)},
		{"Target Dependencies", r.renderDependencies(snapshot)},
		{"Swift Packages", r.renderPackages(snapshot)},
		{"Schemes", r.renderSchemes(snapshot)},
		{"Meta", r.renderMeta(snapshot)},
	}

	header := "# Xcode Project Snapshot\n\n"
	maxChars := r.maxTokens * 4 // rough estimate: 1 token ~= 4 chars
	remaining := maxChars - len(header)

	var sb strings.Builder
	sb.WriteString(header)

	for i, sec := range sections {
		if sec.content == "" {
			continue
		}
		if len(sec.content) <= remaining {
			sb.WriteString(sec.content)
			remaining -= len(sec.content)
			continue
		}
		if remaining > 200 {
			// Partially include this section, cut at a line boundary
			cut := sec.content[:remaining-100]
			if nl := strings.LastIndexByte(cut, '\n'); nl > 0 {
				cut = cut[:nl+1]
			}
			sb.WriteString(cut)
			sb.WriteString(fmt.Sprintf("\n---\n*[Truncated in: %s]*\n", sec.name))
			break
		}
		// List omitted sections
		var omitted []string
		for _, s := range sections[i:] {
			if s.content != "" {
				omitted = append(omitted, s.name)
			}
		}
		sb.WriteString(fmt.Sprintf("\n---\n*[Omitted: %s]*\n", strings.Join(omitted, ", ")))
		break
	}

	return []facts.Artifact{
		{
			Name:    "llm_context.md",
			Content: []byte(sb.String()),
			Type:    "text/markdown",
		},
	}, nil
}

func (r *LLMContextRenderer) renderProjects(snapshot *facts.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("## Projects\n\n")

	projects := filterByKind(snapshot.Facts, facts.KindProject)
	if len(projects) == 0 {
		sb.WriteString("_No Xcode projects found._\n\n")
		return sb.String()
	}

	sb.WriteString("| Project | Path | Targets | Packages | Schemes | Format |\n")
	sb.WriteString("|---------|------|---------|----------|---------|--------|\n")
	for _, p := range projects {
		format := propString(p, "compatibility_version")
		if v := propInt(p, "object_version"); v > 0 {
			if format != "" {
				format += ", "
			}
			format += fmt.Sprintf("objectVersion %d", v)
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %d | %d | %d | %s |\n",
			p.Name, p.File, propInt(p, "targets"), propInt(p, "packages"), propInt(p, "schemes"), format))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderTargets(snapshot *facts.Snapshot) string {
	targets := filterByKind(snapshot.Facts, facts.KindTarget)
	if len(targets) == 0 {
		return ""
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })

	var sb strings.Builder
	sb.WriteString("## Targets\n\n")
	sb.WriteString("| Target | Platform | Product | Kind | Configurations |\n")
	sb.WriteString("|--------|----------|---------|------|----------------|\n")
	for _, t := range targets {
		product := propString(t, "product_type_short")
		if product == "" {
			product = "-"
		}
		platform := propString(t, "platform")
		if sdk := propString(t, "sdkroot"); sdk != "" {
			platform += fmt.Sprintf(" (`%s`)", sdk)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			t.Name, platform, product, propString(t, "target_kind"), strings.Join(propStrings(t, "configurations"), ", ")))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderInsights(snapshot *facts.Snapshot) string {
	if len(snapshot.Insights) == 0 {
		return ""
	}
	insights := make([]facts.Insight, len(snapshot.Insights))
	copy(insights, snapshot.Insights)
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Confidence > insights[j].Confidence
	})

	var sb strings.Builder
	sb.WriteString("## Insights\n\n")
	for _, in := range insights {
		sb.WriteString(fmt.Sprintf("- **%s** (%.0f%%): %s\n", in.Title, in.Confidence*100, in.Description))
		for i, ev := range in.Evidence {
			if i == 5 {
				sb.WriteString(fmt.Sprintf("  - _and %d more_\n", len(in.Evidence)-5))
				break
			}
			ref := ev.Fact
			if ref == "" {
				ref = ev.File
			}
			sb.WriteString(fmt.Sprintf("  - `%s`: %s\n", ref, ev.Detail))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderDependencies(snapshot *facts.Snapshot) string {
	var lines []string
	for _, t := range filterByKind(snapshot.Facts, facts.KindTarget) {
		var deps, pkgs []string
		for _, rel := range t.Relations {
			switch rel.Kind {
			case facts.RelDependsOn:
				deps = append(deps, rel.Target)
			case facts.RelUsesPackage:
				pkgs = append(pkgs, strings.TrimPrefix(rel.Target, "product:"))
			}
		}
		if len(deps) == 0 && len(pkgs) == 0 {
			continue
		}
		line := fmt.Sprintf("- **%s**", t.Name)
		if len(deps) > 0 {
			sort.Strings(deps)
			line += " -> " + strings.Join(deps, ", ")
		}
		if len(pkgs) > 0 {
			sort.Strings(pkgs)
			line += fmt.Sprintf(" (packages: %s)", strings.Join(pkgs, ", "))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	sort.Strings(lines)

	var sb strings.Builder
	sb.WriteString("## Target Dependencies\n\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderPackages(snapshot *facts.Snapshot) string {
	packages := filterByKind(snapshot.Facts, facts.KindPackage)
	if len(packages) == 0 {
		return ""
	}

	products := make(map[string][]string)
	for _, pp := range filterByKind(snapshot.Facts, facts.KindPackageProduct) {
		for _, rel := range pp.Relations {
			if rel.Kind == facts.RelProvidedBy {
				products[rel.Target] = append(products[rel.Target], propString(pp, "product_name"))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("## Swift Packages\n\n")
	for _, p := range packages {
		line := fmt.Sprintf("- **%s**", strings.TrimPrefix(p.Name, "package:"))
		if url := propString(p, "repository_url"); url != "" {
			line += fmt.Sprintf(" `%s`", url)
		}
		if req := propString(p, "requirement"); req != "" {
			line += ", " + req
		}
		if pp := products[p.Name]; len(pp) > 0 {
			sort.Strings(pp)
			line += fmt.Sprintf(" (products: %s)", strings.Join(pp, ", "))
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderSchemes(snapshot *facts.Snapshot) string {
	schemes := filterByKind(snapshot.Facts, facts.KindScheme)
	if len(schemes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Schemes\n\n")
	for _, s := range schemes {
		var builds []string
		for _, rel := range s.Relations {
			if rel.Kind == facts.RelBuilds {
				builds = append(builds, rel.Target)
			}
		}
		shared := "user"
		if b, _ := s.Props["shared"].(bool); b {
			shared = "shared"
		}
		sb.WriteString(fmt.Sprintf("- **%s** (%s) builds %s\n", strings.TrimPrefix(s.Name, "scheme:"), shared, orNone(builds)))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *LLMContextRenderer) renderMeta(snapshot *facts.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Generated at %s in %s. %d projects, %d facts, %d insights.*\n",
		snapshot.Meta.GeneratedAt, snapshot.Meta.Duration, len(snapshot.Meta.Projects),
		snapshot.Meta.FactCount, snapshot.Meta.InsightCount))
	return sb.String()
}

func filterByKind(ff []facts.Fact, kind string) []facts.Fact {
	var result []facts.Fact
	for _, f := range ff {
		if f.Kind == kind {
			result = append(result, f)
		}
	}
	return result
}

func propString(f facts.Fact, key string) string {
	s, _ := f.Props[key].(string)
	return s
}

// propInt accepts the float64 that JSON decoding yields for facts reloaded
// from facts.jsonl.
func propInt(f facts.Fact, key string) int {
	switch v := f.Props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// propStrings accepts both []string and the []any of reloaded facts.
func propStrings(f facts.Fact, key string) []string {
	switch v := f.Props[key].(type) {
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

func orNone(ss []string) string {
	if len(ss) == 0 {
		return "nothing in this project"
	}
	return strings.Join(ss, ", ")
}
