package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// minSimilarity is the Jaro-Winkler score a candidate needs to be suggested.
const minSimilarity = 0.75

// suggest returns up to n candidates most similar to query, best first.
// Matching ignores case.
func suggest(query string, candidates []string, n int) []string {
	type scored struct {
		name  string
		score float32
	}
	q := strings.ToLower(query)
	seen := make(map[string]bool, len(candidates))
	var hits []scored
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		score, err := edlib.StringsSimilarity(q, strings.ToLower(c), edlib.JaroWinkler)
		if err != nil || score < minSimilarity {
			continue
		}
		hits = append(hits, scored{c, score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// notFoundMessage formats a lookup miss with "did you mean" suggestions.
func notFoundMessage(what, query string, candidates []string) string {
	msg := fmt.Sprintf("%s %q not found", what, query)
	if s := suggest(query, candidates, 3); len(s) > 0 {
		msg += fmt.Sprintf(". Did you mean: %s?", strings.Join(s, ", "))
	}
	return msg
}
