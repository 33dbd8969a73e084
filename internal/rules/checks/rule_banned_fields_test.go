package checks

import (
	"context"
	"testing"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannedFieldsRule_Evaluate(t *testing.T) {
	project := testutil.Project(t, map[string]string{
		".": `{"name":"root","resolutions":{"x":"1.0.0"}}`,
		"a": `{"name":"a","scripts":{"postinstall":"node setup.js","build":"tsc"}}`,
		"b": `{"name":"b"}`,
	})

	rule := &BannedFieldsRule{}
	require.NoError(t, rule.Configure(map[string]string{"fields": "resolutions,scripts.postinstall"}))

	effects, err := rule.Evaluate(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, effects, 2)

	assert.Equal(t, rules.KindUnsetField, effects[0].Kind)
	assert.Equal(t, ".", effects[0].Workspace)
	assert.Equal(t, []string{"resolutions"}, effects[0].Path)

	assert.Equal(t, "a", effects[1].Workspace)
	assert.Equal(t, "scripts.postinstall", effects[1].Field())
	assert.Equal(t, "node setup.js", effects[1].Current)
}
