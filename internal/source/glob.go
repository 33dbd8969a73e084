package source

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches slash-separated workspace directories against the globs of
// a root manifest. "*" stays within one segment, "**" spans any number of
// them (including none when written as a whole segment) and patterns prefixed
// with "!" exclude directories matched by earlier patterns.
type Matcher struct {
	rules []globRule
}

type globRule struct {
	globs  []glob.Glob
	negate bool
}

// NewMatcher validates patterns and compiles them.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		negate := strings.HasPrefix(p, "!")
		p = strings.Trim(strings.TrimPrefix(p, "!"), "/")

		r := globRule{negate: negate}
		for _, variant := range expandDoubleStar(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid workspace pattern %q: %w", p, err)
			}
			r.globs = append(r.globs, g)
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// Match reports whether dir is a workspace. The last matching pattern wins.
func (m *Matcher) Match(dir string) bool {
	matched := false
	for _, r := range m.rules {
		for _, g := range r.globs {
			if g.Match(dir) {
				matched = !r.negate
				break
			}
		}
	}
	return matched
}

// expandDoubleStar returns p plus every variant with "**/" segments dropped,
// so "libs/**/pkg" also matches "libs/pkg".
func expandDoubleStar(p string) []string {
	out := []string{p}
	for i := 0; i < len(out); i++ {
		cur := out[i]
		segments := strings.Split(cur, "/")
		for j, seg := range segments {
			if seg != "**" || j == len(segments)-1 {
				continue
			}
			dropped := strings.Join(append(append([]string{}, segments[:j]...), segments[j+1:]...), "/")
			if !slices.Contains(out, dropped) {
				out = append(out, dropped)
			}
		}
	}
	return out
}
