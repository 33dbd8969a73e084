package checks

import (
	"context"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// RequiredScriptsRule reports every workspace missing a required entry in "scripts".
type RequiredScriptsRule struct {
	scripts []string
}

func (r *RequiredScriptsRule) ID() string {
	return "required-scripts"
}

func (r *RequiredScriptsRule) Title() string {
	return "Required Scripts"
}

func (r *RequiredScriptsRule) Description() string {
	return "Reports one error per workspace and per required script missing from the scripts mapping.\n" +
		"With no scripts configured the rule always passes."
}

func (r *RequiredScriptsRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "scripts",
			Description: "Comma-separated list of script names every workspace must define.",
		},
	}
}

func (r *RequiredScriptsRule) Configure(opts map[string]string) error {
	r.scripts = rules.SplitList(opts["scripts"])
	return nil
}

func (r *RequiredScriptsRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	var effects []rules.Effect
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		for _, script := range r.scripts {
			if ws.Has("scripts", script) {
				continue
			}
			effects = append(effects, rules.Errorf(ws, "missing required script %q", script))
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&RequiredScriptsRule{})
}
