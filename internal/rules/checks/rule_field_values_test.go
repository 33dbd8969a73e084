package checks

import (
	"context"
	"testing"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValuesRule_Evaluate(t *testing.T) {
	project := testutil.Project(t, map[string]string{
		".": `{"name":"root","license":"MIT","private":true,"engines":{"node":">=18"}}`,
		"a": `{"name":"a","license":"ISC","engines":{"node":">=18"}}`,
	})

	rule := &FieldValuesRule{}
	require.NoError(t, rule.Configure(map[string]string{"values": "license=MIT,private=true,engines.node=>=18"}))

	effects, err := rule.Evaluate(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, effects, 2)

	assert.Equal(t, rules.KindSetField, effects[0].Kind)
	assert.Equal(t, "a", effects[0].Workspace)
	assert.Equal(t, "license", effects[0].Field())
	assert.Equal(t, "MIT", effects[0].Value)
	assert.Equal(t, "ISC", effects[0].Current)

	assert.Equal(t, "private", effects[1].Field())
	assert.Equal(t, true, effects[1].Value)
	assert.Nil(t, effects[1].Current)
}

func TestDecodeValue(t *testing.T) {
	assert.Equal(t, true, decodeValue("true"))
	assert.Equal(t, float64(18), decodeValue("18"))
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeValue(`{"a":1}`))
	assert.Equal(t, "MIT", decodeValue("MIT"))
	assert.Equal(t, ">=18", decodeValue(">=18"))
}
