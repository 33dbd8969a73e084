package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWorkspace(t *testing.T, cwd, manifest string) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(cwd, cwd+"/package.json", []byte(manifest))
	require.NoError(t, err)
	return ws
}

func TestNewWorkspace_ExtractsDependencies(t *testing.T) {
	ws := mustWorkspace(t, "packages/a", `{
		"name": "@acme/a",
		"dependencies": {"react": "^18.0.0", "expo": "49.0.0"},
		"devDependencies": {"typescript": "~5.3.0"},
		"peerDependencies": {"react": "*"},
		"optionalDependencies": {"fsevents": "^2.0.0", "bogus": 3}
	}`)

	assert.Equal(t, "@acme/a", ws.Ident)

	var got []string
	for _, d := range ws.Dependencies {
		got = append(got, string(d.Type)+":"+d.Ident+"@"+d.Range)
		assert.Same(t, ws, d.Workspace)
	}
	assert.Equal(t, []string{
		"dependencies:expo@49.0.0",
		"dependencies:react@^18.0.0",
		"devDependencies:typescript@~5.3.0",
		"peerDependencies:react@*",
		"optionalDependencies:fsevents@^2.0.0",
	}, got)
}

func TestNewWorkspace_RejectsInvalidManifests(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "syntax", raw: `{"name":`},
		{name: "array", raw: `[]`},
		{name: "null", raw: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWorkspace(".", "package.json", []byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestWorkspace_Get(t *testing.T) {
	ws := mustWorkspace(t, ".", `{"name":"root","scripts":{"build":"tsc"},"engines":{"node":">=18"}}`)

	v, ok := ws.Get("scripts", "build")
	require.True(t, ok)
	assert.Equal(t, "tsc", v)

	_, ok = ws.Get("scripts", "test")
	assert.False(t, ok)

	_, ok = ws.Get("name", "nested")
	assert.False(t, ok)

	assert.True(t, ws.Has("engines", "node"))
	assert.Equal(t, ". (root)", ws.Label())
}

func TestProject_OrderingAndFilters(t *testing.T) {
	b := mustWorkspace(t, "packages/b", `{"name":"b","dependencies":{"lodash":"^4.0.0"}}`)
	root := mustWorkspace(t, ".", `{"name":"root","devDependencies":{"lodash":"^4.17.0"}}`)
	a := mustWorkspace(t, "packages/a", `{"name":"a","dependencies":{"lodash":"^4.1.0","react":"^18.0.0"}}`)

	p, err := NewProject("memory", []*Workspace{b, root, a})
	require.NoError(t, err)

	all := p.Workspaces(WorkspaceFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []string{".", "packages/a", "packages/b"}, []string{all[0].Cwd, all[1].Cwd, all[2].Cwd})

	lodash := p.Dependencies(DependencyFilter{Ident: "lodash"})
	require.Len(t, lodash, 3)
	assert.Equal(t, "^4.17.0", lodash[0].Range)
	assert.Equal(t, "^4.1.0", lodash[1].Range)
	assert.Equal(t, "^4.0.0", lodash[2].Range)

	runtime := p.Dependencies(DependencyFilter{Type: Dependencies, Workspace: "packages/a"})
	assert.Len(t, runtime, 2)

	w, ok := p.WorkspaceByIdent("b")
	require.True(t, ok)
	assert.Equal(t, "packages/b", w.Cwd)

	_, ok = p.Workspace("packages/c")
	assert.False(t, ok)
	assert.Equal(t, 3, p.Len())
}

func TestNewProject_RejectsDuplicateCwd(t *testing.T) {
	a := mustWorkspace(t, "packages/a", `{"name":"a"}`)
	dup := mustWorkspace(t, "packages/a", `{"name":"a2"}`)
	_, err := NewProject("memory", []*Workspace{a, dup})
	assert.Error(t, err)
}
