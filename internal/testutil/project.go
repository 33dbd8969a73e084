// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"pkgmedic/internal/workspace"
)

// Project builds an in-memory snapshot from cwd -> manifest JSON.
func Project(t *testing.T, manifests map[string]string) *workspace.Project {
	t.Helper()
	cwds := make([]string, 0, len(manifests))
	for cwd := range manifests {
		cwds = append(cwds, cwd)
	}
	sort.Strings(cwds)

	var list []*workspace.Workspace
	for _, cwd := range cwds {
		ws, err := workspace.NewWorkspace(cwd, filepath.Join(cwd, "package.json"), []byte(manifests[cwd]))
		if err != nil {
			t.Fatalf("building workspace %s: %v", cwd, err)
		}
		list = append(list, ws)
	}
	p, err := workspace.NewProject("memory", list)
	if err != nil {
		t.Fatalf("building project: %v", err)
	}
	return p
}

// WriteTree writes files (slash-separated relative path -> content) under a
// fresh temp directory and returns it.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil { //nolint:gosec // test file
			t.Fatal(err)
		}
	}
	return dir
}
