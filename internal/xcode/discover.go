package xcode

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the .xcodeproj bundles under root, sorted. Paths matching
// any of the ignore globs (relative to root) are skipped, as are bundles
// nested inside another bundle.
func Discover(root string, ignore ...string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	matches, err := doublestar.Glob(os.DirFS(abs), "**/*.xcodeproj")
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", abs, err)
	}
	sort.Strings(matches)

	var out []string
	for _, m := range matches {
		if ignored(m, ignore) || nested(m) {
			continue
		}
		full := filepath.Join(abs, filepath.FromSlash(m))
		if info, err := os.Stat(full); err != nil || !info.IsDir() {
			continue
		}
		out = append(out, full)
	}
	return out, nil
}

// Find returns the first project Discover finds under root.
func Find(root string, ignore ...string) (*Project, error) {
	paths, err := Discover(root, ignore...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .xcodeproj found under %s", root)
	}
	return Load(paths[0])
}

func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func nested(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	return strings.Contains(dir+"/", ".xcodeproj/")
}
