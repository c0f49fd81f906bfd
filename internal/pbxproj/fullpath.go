package pbxproj

import (
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
)

// FullPath resolves ref to a filesystem path. Group-relative references
// walk up the group tree until they reach a project's main group, which sits
// at sourceRoot.
//
// Ancestors are read from the raw table through the parent index, which
// already records, for every child id, the first group listing it.
func (c *Collection) FullPath(ref *FSReference, sourceRoot string) (string, error) {
	if ref == nil {
		return "", pbxerr.UnresolvedPath("")
	}
	return c.fullPath(ref.ID, ref.SourceTree, ref.Path, sourceRoot, make(map[string]bool))
}

func (c *Collection) fullPath(id string, tree SourceTree, rel, sourceRoot string, seen map[string]bool) (string, error) {
	switch tree {
	case SourceTreeAbsolute:
		return rel, nil
	case SourceTreeSourceRoot:
		return joinPath(sourceRoot, rel), nil
	case SourceTreeGroup:
	default:
		return "", pbxerr.UnsupportedSourceTree(id, string(tree))
	}

	if seen[id] {
		return "", pbxerr.UnresolvedPath(id).Wrap(errCycle)
	}
	seen[id] = true

	if parentID, ok := c.parents[id]; ok {
		parent := c.objects[parentID]
		base, err := c.fullPath(parentID, SourceTree(parent.StringOr("sourceTree", "")), parent.StringOr("path", ""), sourceRoot, seen)
		if err != nil {
			return "", err
		}
		return joinPath(base, rel), nil
	}
	if c.mainGroups[id] {
		return joinPath(sourceRoot, rel), nil
	}
	return "", pbxerr.UnresolvedPath(id)
}

// joinPath appends the '/'-separated components of rel to base.
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	for _, part := range strings.Split(rel, "/") {
		if part == "" {
			continue
		}
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "/") {
			sb.WriteByte('/')
		}
		sb.WriteString(part)
	}
	return sb.String()
}
