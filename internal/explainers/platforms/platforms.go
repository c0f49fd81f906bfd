package platforms

import (
	"context"
	"fmt"
	"sort"

	"github.com/dejo1307/xcodemcp/internal/facts"
)

const unknownPlatform = "unknown"

// PlatformExplainer reports targets whose platform cannot be inferred from
// SDKROOT and dependencies between targets built for different platforms.
type PlatformExplainer struct{}

// New creates a new PlatformExplainer.
func New() *PlatformExplainer {
	return &PlatformExplainer{}
}

func (e *PlatformExplainer) Name() string {
	return "platforms"
}

func (e *PlatformExplainer) Explain(ctx context.Context, store *facts.Store) ([]facts.Insight, error) {
	targets := store.Targets()
	platform := make(map[string]string, len(targets))
	for _, t := range targets {
		p, _ := t.Props["platform"].(string)
		if p == "" {
			p = unknownPlatform
		}
		platform[t.Name] = p
	}

	var insights []facts.Insight
	if in, ok := unknownTargets(targets, platform); ok {
		insights = append(insights, in)
	}
	if err := ctx.Err(); err != nil {
		return insights, err
	}
	if in, ok := crossPlatformDeps(targets, platform); ok {
		insights = append(insights, in)
	}
	return insights, nil
}

// unknownTargets skips legacy and aggregate targets, which have no SDK.
func unknownTargets(targets []facts.Fact, platform map[string]string) (facts.Insight, bool) {
	var names []string
	for _, t := range targets {
		if kind, _ := t.Props["target_kind"].(string); kind != "" && kind != "native" {
			continue
		}
		if platform[t.Name] == unknownPlatform {
			names = append(names, t.Name)
		}
	}
	if len(names) == 0 {
		return facts.Insight{}, false
	}
	sort.Strings(names)

	evidence := make([]facts.Evidence, 0, len(names))
	for _, n := range names {
		evidence = append(evidence, facts.Evidence{Target: n, Fact: n, Detail: "no SDKROOT in target, base or project configurations"})
	}
	return facts.Insight{
		Title:       fmt.Sprintf("Platform unknown for %d target(s)", len(names)),
		Description: "SDKROOT is not set anywhere these targets inherit settings from, so their platform cannot be determined from the project file alone.",
		Confidence:  0.9,
		Evidence:    evidence,
		Actions: []string{
			"Set SDKROOT in the project or target build settings",
		},
	}, true
}

func crossPlatformDeps(targets []facts.Fact, platform map[string]string) (facts.Insight, bool) {
	var evidence []facts.Evidence
	for _, t := range targets {
		from := platform[t.Name]
		if from == unknownPlatform {
			continue
		}
		for _, r := range t.Relations {
			if r.Kind != facts.RelDependsOn {
				continue
			}
			to, known := platform[r.Target]
			if !known || to == unknownPlatform || to == from {
				continue
			}
			evidence = append(evidence, facts.Evidence{
				Target: t.Name,
				Fact:   r.Target,
				Detail: fmt.Sprintf("%s (%s) depends on %s (%s)", t.Name, from, r.Target, to),
			})
		}
	}
	if len(evidence) == 0 {
		return facts.Insight{}, false
	}
	sort.Slice(evidence, func(i, j int) bool {
		if evidence[i].Target != evidence[j].Target {
			return evidence[i].Target < evidence[j].Target
		}
		return evidence[i].Fact < evidence[j].Fact
	})
	return facts.Insight{
		Title:       fmt.Sprintf("%d cross-platform target dependenc(ies)", len(evidence)),
		Description: "A target depends on a target built for another platform. This is legitimate for watch apps and extensions but is often a misconfigured SDKROOT.",
		Confidence:  0.6,
		Evidence:    evidence,
		Actions: []string{
			"Check that both targets use the intended SDKROOT",
		},
	}, true
}
