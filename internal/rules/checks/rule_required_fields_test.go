package checks

import (
	"context"
	"testing"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredFieldsRule_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		opts      map[string]string
		manifests map[string]string
		want      []string
	}{
		{
			name: "default requires name",
			opts: map[string]string{},
			manifests: map[string]string{
				".":            `{"name":"root"}`,
				"packages/foo": `{"version":"1.0.0"}`,
			},
			want: []string{`packages/foo: missing required field "name"`},
		},
		{
			name: "one error per workspace and field",
			opts: map[string]string{"fields": "name,license"},
			manifests: map[string]string{
				".":            `{"private":true}`,
				"packages/foo": `{"name":"foo","license":"MIT"}`,
			},
			want: []string{
				`.: missing required field "name"`,
				`.: missing required field "license"`,
			},
		},
		{
			name: "nested path",
			opts: map[string]string{"fields": "repository.url"},
			manifests: map[string]string{
				".":     `{"name":"root","repository":{"url":"https://example.com"}}`,
				"a":     `{"name":"a","repository":{"type":"git"}}`,
				"b/c/d": `{"name":"d","repository":"acme/d"}`,
			},
			want: []string{
				`a: missing required field "repository.url"`,
				`b/c/d: missing required field "repository.url"`,
			},
		},
		{
			name: "empty option disables",
			opts: map[string]string{"fields": ""},
			manifests: map[string]string{
				".": `{}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &RequiredFieldsRule{}
			require.NoError(t, rule.Configure(tt.opts))

			effects, err := rule.Evaluate(context.Background(), testutil.Project(t, tt.manifests))
			require.NoError(t, err)

			var got []string
			for _, e := range effects {
				assert.Equal(t, rules.KindError, e.Kind)
				got = append(got, e.Workspace+": "+e.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequiredFieldsRule_ConfigureInvalid(t *testing.T) {
	rule := &RequiredFieldsRule{}
	assert.Error(t, rule.Configure(map[string]string{"fields": "repository..url"}))
}

func TestRequiredFieldsRule_UnconfiguredUsesDefault(t *testing.T) {
	rule := &RequiredFieldsRule{}
	effects, err := rule.Evaluate(context.Background(), testutil.Project(t, map[string]string{".": `{}`}))
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, `missing required field "name"`, effects[0].Message)
}
