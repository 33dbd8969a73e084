package checks

import (
	"context"
	"fmt"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"

	"github.com/Masterminds/semver/v3"
)

// ResolvedSatisfiesRangeRule reports installed versions outside their declared range.
type ResolvedSatisfiesRangeRule struct{}

func (r *ResolvedSatisfiesRangeRule) ID() string {
	return "resolved-satisfies-range"
}

func (r *ResolvedSatisfiesRangeRule) Title() string {
	return "Resolved Version Satisfies Range"
}

func (r *ResolvedSatisfiesRangeRule) Description() string {
	return "Reports an error for every dependency whose resolved (installed) version does not satisfy its declared range.\n" +
		"Dependencies without a resolved version, or with a non-semver range (protocols, tags, URLs), are skipped."
}

func (r *ResolvedSatisfiesRangeRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	var effects []rules.Effect
	for _, dep := range p.Dependencies(workspace.DependencyFilter{}) {
		if dep.Resolved == "" {
			continue
		}
		constraint, err := semver.NewConstraint(dep.Range)
		if err != nil {
			continue
		}
		version, err := semver.NewVersion(dep.Resolved)
		if err != nil {
			effects = append(effects, rules.DependencyError(dep, fmt.Sprintf("resolved version %q of %s is not valid semver", dep.Resolved, dep.Ident)))
			continue
		}
		if !constraint.Check(version) {
			effects = append(effects, rules.DependencyError(dep,
				fmt.Sprintf("resolved version %s of %s does not satisfy %s range %s", dep.Resolved, dep.Ident, dep.Type, dep.Range)))
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&ResolvedSatisfiesRangeRule{})
}
