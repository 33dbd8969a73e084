package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgmedic/internal/testutil"
	"pkgmedic/internal/workspace"
)

func TestLocalLoader_Load(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"package.json":                    `{"name":"root","private":true,"workspaces":["packages/*","apps/**","!apps/sandbox"]}`,
		".gitignore":                      "packages/generated\n",
		"packages/a/package.json":         `{"name":"@acme/a","dependencies":{"react":"^18.0.0","lodash":"^4.0.0"}}`,
		"packages/b/package.json":         `{"name":"@acme/b","dependencies":{"@acme/a":"workspace:^"}}`,
		"packages/no-manifest/README":     "nothing here",
		"packages/generated/package.json": `{"name":"generated"}`,
		"apps/web/package.json":           `{"name":"web"}`,
		"apps/nested/mobile/package.json": `{"name":"mobile"}`,
		"apps/sandbox/package.json":       `{"name":"sandbox"}`,
		"tools/package.json":              `{"name":"tools"}`,

		"packages/a/node_modules/react/package.json": `{"name":"react","version":"18.2.0"}`,
		"node_modules/react/package.json":            `{"name":"react","version":"17.0.2"}`,
		"node_modules/lodash/package.json":           `{"name":"lodash","version":"4.17.21"}`,
		"node_modules/inner/package.json":            `{"name":"inner"}`,
	})

	project, err := NewLocalLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, project.ReadOnly)

	var cwds []string
	for _, ws := range project.Workspaces(workspace.WorkspaceFilter{}) {
		cwds = append(cwds, ws.Cwd)
	}
	assert.Equal(t, []string{".", "apps/nested/mobile", "apps/web", "packages/a", "packages/b"}, cwds)

	a, ok := project.Workspace("packages/a")
	require.True(t, ok)
	assert.Equal(t, "@acme/a", a.Ident)
	assert.Equal(t, filepath.Join(dir, "packages", "a", "package.json"), a.ManifestPath)

	resolved := map[string]string{}
	for _, dep := range a.Dependencies {
		resolved[dep.Ident] = dep.Resolved
	}
	assert.Equal(t, map[string]string{"lodash": "4.17.21", "react": "18.2.0"}, resolved)
}

func TestLocalLoader_PackagesObjectForm(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"package.json":            `{"name":"root","workspaces":{"packages":["libs/*"]}}`,
		"libs/x/package.json":     `{"name":"x"}`,
		"packages/y/package.json": `{"name":"y"}`,
	})

	project, err := NewLocalLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, project.Len())
	_, ok := project.WorkspaceByIdent("x")
	assert.True(t, ok)
}

func TestLocalLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"missing root manifest", map[string]string{"README.md": "hi"}},
		{"invalid root manifest", map[string]string{"package.json": `{"name":`}},
		{"invalid workspaces field", map[string]string{"package.json": `{"workspaces":"packages/*"}`}},
		{"invalid workspace manifest", map[string]string{
			"package.json":            `{"workspaces":["packages/*"]}`,
			"packages/a/package.json": `[1,2]`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.WriteTree(t, tt.files)
			_, err := NewLocalLoader(dir).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestLocalLoader_CanceledContext(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"package.json":            `{"workspaces":["packages/*"]}`,
		"packages/a/package.json": `{"name":"a"}`,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLoader(dir).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
