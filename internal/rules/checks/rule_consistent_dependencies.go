package checks

import (
	"context"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// ConsistentDependenciesRule aligns every declaration of a dependency across
// workspaces on the range of the first declaration encountered.
//
// Enumeration order is project order: root workspace first, then by cwd, and
// within a workspace dependencies, devDependencies, optionalDependencies, each
// sorted by ident. Peer dependencies neither set nor follow the reference range.
// Dependencies on another workspace of the project are left to the
// workspace-protocol rule. Staged updates are derived: a configured range for
// the same dependency takes precedence.
type ConsistentDependenciesRule struct {
	ignore map[string]bool
}

func (r *ConsistentDependenciesRule) ID() string {
	return "consistent-dependencies"
}

func (r *ConsistentDependenciesRule) Title() string {
	return "Consistent Dependency Ranges"
}

func (r *ConsistentDependenciesRule) Description() string {
	return "Stages an update of every non-peer dependency whose range differs from the first non-peer declaration\n" +
		"of the same ident in the project. Idents listed in the ignore option and idents naming a workspace\n" +
		"of the project are skipped. A range pinned by another rule wins over the aligned one."
}

func (r *ConsistentDependenciesRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "ignore",
			Description: "Comma-separated list of dependency idents exempt from alignment.",
		},
	}
}

func (r *ConsistentDependenciesRule) Configure(opts map[string]string) error {
	r.ignore = make(map[string]bool)
	for _, id := range rules.SplitList(opts["ignore"]) {
		r.ignore[id] = true
	}
	return nil
}

func (r *ConsistentDependenciesRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	reference := make(map[string]*workspace.Dependency)

	var effects []rules.Effect
	for _, dep := range p.Dependencies(workspace.DependencyFilter{}) {
		if dep.Type == workspace.PeerDependencies || r.ignore[dep.Ident] {
			continue
		}
		if _, internal := p.WorkspaceByIdent(dep.Ident); internal {
			continue
		}
		first, ok := reference[dep.Ident]
		if !ok {
			reference[dep.Ident] = dep
			continue
		}
		if dep.Range != first.Range {
			eff := rules.UpdateRange(dep, first.Range)
			eff.Derived = true
			effects = append(effects, eff)
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&ConsistentDependenciesRule{})
}
