package checks

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"

	"github.com/Masterminds/semver/v3"
)

// DependencyRangesRule pins configured dependencies to an exact range in every workspace.
type DependencyRangesRule struct {
	ranges map[string]string
}

func (r *DependencyRangesRule) ID() string {
	return "dependency-ranges"
}

func (r *DependencyRangesRule) Title() string {
	return "Pinned Dependency Ranges"
}

func (r *DependencyRangesRule) Description() string {
	return "Stages an update of every matching dependency, in any workspace and section, to the configured range.\n" +
		"Ranges are corrected, not reported as errors."
}

func (r *DependencyRangesRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name: "ranges",
			Description: "Comma-separated list of ident=range pairs (e.g. expo=~50.0.0,react=18.2.0). Dist-tags\n" +
				"(latest, next) are accepted. Comparators after a comma that do not start a new pair\n" +
				"(react=>=17.0.0, <19.0.0) are joined to the previous range with a space.",
		},
	}
}

func (r *DependencyRangesRule) Configure(opts map[string]string) error {
	r.ranges = nil
	pairs, err := parseRanges(opts["ranges"])
	if err != nil {
		return fmt.Errorf("invalid ranges: %w", err)
	}
	ranges := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		ident, rng := kv[0], kv[1]
		if err := validateRange(rng); err != nil {
			return fmt.Errorf("invalid range for %s: %w", ident, err)
		}
		ranges[ident] = rng
	}
	r.ranges = ranges
	return nil
}

var distTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// parseRanges splits ident=range pairs. A piece that does not start with a
// package ident followed by "=" continues the previous range, so comparator
// lists written with commas survive as npm's space-separated form.
func parseRanges(val string) ([][2]string, error) {
	var out [][2]string
	for _, piece := range strings.Split(val, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		ident, rng, ok := strings.Cut(piece, "=")
		ident = strings.TrimSpace(ident)
		if ok && isIdent(ident) {
			out = append(out, [2]string{ident, strings.TrimSpace(rng)})
			continue
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("expected ident=range, got %q", piece)
		}
		out[len(out)-1][1] += " " + piece
	}
	return out, nil
}

func isIdent(s string) bool {
	return s != "" && !strings.ContainsAny(s, " <>=~^|*") && s[0] != '.'
}

// validateRange accepts protocol ranges (workspace:, npm:, git URLs) and
// dist-tags verbatim and requires everything else to parse as a semver
// constraint.
func validateRange(rng string) error {
	if rng == "" {
		return fmt.Errorf("empty range")
	}
	if strings.Contains(rng, ":") {
		return nil
	}
	if _, err := semver.NewConstraint(rng); err != nil {
		if distTag.MatchString(rng) {
			return nil
		}
		return err
	}
	return nil
}

func (r *DependencyRangesRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	idents := make([]string, 0, len(r.ranges))
	for ident := range r.ranges {
		idents = append(idents, ident)
	}
	sort.Strings(idents)

	var effects []rules.Effect
	for _, ident := range idents {
		rng := r.ranges[ident]
		for _, dep := range p.Dependencies(workspace.DependencyFilter{Ident: ident}) {
			if dep.Range == rng {
				continue
			}
			effects = append(effects, rules.UpdateRange(dep, rng))
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&DependencyRangesRule{})
}
