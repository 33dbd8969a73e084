package rules

import (
	"context"
	"testing"

	"pkgmedic/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRule emits one diagnostic per workspace.
type MockRule struct {
	id           string
	configurable bool
	opts         map[string]string
}

func (m *MockRule) ID() string          { return m.id }
func (m *MockRule) Title() string       { return "Mock Rule" }
func (m *MockRule) Description() string { return "A mock rule" }
func (m *MockRule) Evaluate(ctx context.Context, p *workspace.Project) ([]Effect, error) {
	var out []Effect
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		out = append(out, Error(ws, "failed"))
	}
	return out, nil
}

func (m *MockRule) Options() []Option {
	if !m.configurable {
		return nil
	}
	return []Option{{Name: "mock.option", Description: "A mock option"}}
}

func (m *MockRule) Configure(opts map[string]string) error {
	if !m.configurable {
		return nil
	}
	m.opts = opts
	return nil
}

func testProject(t *testing.T) *workspace.Project {
	t.Helper()
	var list []*workspace.Workspace
	for cwd, manifest := range map[string]string{
		".":               `{"name":"root"}`,
		"packages/app":    `{"name":"@acme/app"}`,
		"examples/basic":  `{"name":"example-basic"}`,
		"packages/legacy": `{}`,
	} {
		ws, err := workspace.NewWorkspace(cwd, cwd+"/package.json", []byte(manifest))
		require.NoError(t, err)
		list = append(list, ws)
	}
	p, err := workspace.NewProject("memory", list)
	require.NoError(t, err)
	return p
}

func TestAllowListWrapper_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		allowConfig map[string]string
		want        []string
	}{
		{
			name: "no allowlist",
			want: []string{".", "examples/basic", "packages/app", "packages/legacy"},
		},
		{
			name:        "allowed by cwd",
			allowConfig: map[string]string{"allow.workspaces": "packages/legacy"},
			want:        []string{".", "examples/basic", "packages/app"},
		},
		{
			name:        "allowed by ident",
			allowConfig: map[string]string{"allow.workspaces": "@acme/app, root"},
			want:        []string{"examples/basic", "packages/legacy"},
		},
		{
			name:        "allowed by cwd pattern",
			allowConfig: map[string]string{"allow.patterns": "examples/*"},
			want:        []string{".", "packages/app", "packages/legacy"},
		},
		{
			name:        "allowed by ident pattern",
			allowConfig: map[string]string{"allow.patterns": "@acme/*"},
			want:        []string{".", "examples/basic", "packages/legacy"},
		},
	}

	p := testProject(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &AllowListWrapper{Rule: &MockRule{id: "mock"}}
			require.NoError(t, w.Configure(tt.allowConfig))

			effects, err := w.Evaluate(context.Background(), p)
			require.NoError(t, err)

			var got []string
			for _, e := range effects {
				got = append(got, e.Workspace)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowListWrapper_Options(t *testing.T) {
	w := &AllowListWrapper{Rule: &MockRule{id: "mock"}}
	assert.Len(t, w.Options(), 2)

	cw := &AllowListWrapper{Rule: &MockRule{id: "mock", configurable: true}}
	opts := cw.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, "mock.option", opts[2].Name)
}

func TestAllowListWrapper_ConfigurePassesThrough(t *testing.T) {
	inner := &MockRule{id: "mock", configurable: true}
	w := &AllowListWrapper{Rule: inner}
	opts := map[string]string{"mock.option": "x", "allow.workspaces": "a"}
	require.NoError(t, w.Configure(opts))
	assert.Equal(t, "x", inner.opts["mock.option"])
}

func TestSplitAssignments(t *testing.T) {
	got, ok := SplitAssignments("expo=~50.0.0, @acme/ui = ^2.0.0,engines.node=>=18")
	require.True(t, ok)
	assert.Equal(t, [][2]string{{"expo", "~50.0.0"}, {"@acme/ui", "^2.0.0"}, {"engines.node", ">=18"}}, got)

	_, ok = SplitAssignments("missing-equals")
	assert.False(t, ok)
	_, ok = SplitAssignments("=value")
	assert.False(t, ok)
}
