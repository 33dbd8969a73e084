package checks

import (
	"context"
	"path"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// ForbiddenDependenciesRule stages removal of dependencies that must not be used.
type ForbiddenDependenciesRule struct {
	idents []string
}

func (r *ForbiddenDependenciesRule) ID() string {
	return "forbidden-dependencies"
}

func (r *ForbiddenDependenciesRule) Title() string {
	return "Forbidden Dependencies"
}

func (r *ForbiddenDependenciesRule) Description() string {
	return "Stages deletion of every dependency whose ident is forbidden, in any workspace and section.\n" +
		"Entries may be exact idents or wildcard patterns (e.g. @types/*)."
}

func (r *ForbiddenDependenciesRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "idents",
			Description: "Comma-separated list of forbidden dependency idents or patterns.",
		},
	}
}

func (r *ForbiddenDependenciesRule) Configure(opts map[string]string) error {
	idents := rules.SplitList(opts["idents"])
	for _, id := range idents {
		if _, err := path.Match(id, ""); err != nil {
			return err
		}
	}
	r.idents = idents
	return nil
}

func (r *ForbiddenDependenciesRule) forbidden(ident string) bool {
	for _, pattern := range r.idents {
		if pattern == ident {
			return true
		}
		if matched, _ := path.Match(pattern, ident); matched {
			return true
		}
	}
	return false
}

func (r *ForbiddenDependenciesRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	if len(r.idents) == 0 {
		return nil, nil
	}
	var effects []rules.Effect
	for _, dep := range p.Dependencies(workspace.DependencyFilter{}) {
		if r.forbidden(dep.Ident) {
			effects = append(effects, rules.DeleteDependency(dep))
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&ForbiddenDependenciesRule{})
}
