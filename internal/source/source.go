// Package source builds project snapshots from a local checkout or a GitHub
// repository.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pkgmedic/internal/workspace"
)

const manifestName = "package.json"

// Loader produces a project snapshot.
type Loader interface {
	Load(ctx context.Context) (*workspace.Project, error)
}

// WorkspacePatterns reads the workspace globs declared by a root manifest.
// Both the array form and the {"packages": [...]} form are accepted.
func WorkspacePatterns(root *workspace.Workspace) ([]string, error) {
	raw, ok := root.Get("workspaces")
	if !ok {
		return nil, nil
	}
	if obj, isObj := raw.(map[string]any); isObj {
		raw, ok = obj["packages"]
		if !ok {
			return nil, nil
		}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: workspaces must be an array of globs", root.ManifestPath)
	}
	patterns := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: workspace glob %v is not a string", root.ManifestPath, v)
		}
		s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "./"), "/")
		if s != "" {
			patterns = append(patterns, s)
		}
	}
	return patterns, nil
}

// resolvedVersion extracts the version of an installed package manifest.
func resolvedVersion(raw []byte) string {
	var m struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	return m.Version
}
