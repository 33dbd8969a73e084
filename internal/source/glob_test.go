package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		dir      string
		want     bool
	}{
		{"single star", []string{"packages/*"}, "packages/foo", true},
		{"single star depth", []string{"packages/*"}, "packages/foo/bar", false},
		{"exact", []string{"apps/web"}, "apps/web", true},
		{"double star any depth", []string{"packages/**"}, "packages/a/b/c", true},
		{"double star middle", []string{"libs/**/pkg"}, "libs/x/y/pkg", true},
		{"double star zero segments", []string{"libs/**/pkg"}, "libs/pkg", true},
		{"no match", []string{"packages/*"}, "apps/web", false},
		{"negated", []string{"packages/*", "!packages/legacy"}, "packages/legacy", false},
		{"negation then re-include", []string{"packages/*", "!packages/legacy", "packages/legacy"}, "packages/legacy", true},
		{"character class", []string{"svc-[ab]"}, "svc-a", true},
		{"leading double star", []string{"**/pkg"}, "pkg", true},
		{"leading double star nested", []string{"**/pkg"}, "a/b/pkg", true},
		{"two double stars", []string{"libs/**/x/**/pkg"}, "libs/x/pkg", true},
		{"alternatives", []string{"{apps,libs}/*"}, "libs/ui", true},
		{"alternatives miss", []string{"{apps,libs}/*"}, "tools/ui", false},
		{"trailing slash", []string{"packages/*/"}, "packages/foo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.dir))
		})
	}
}

func TestNewMatcher_BadPattern(t *testing.T) {
	_, err := NewMatcher([]string{"packages/[a"})
	assert.Error(t, err)
}
