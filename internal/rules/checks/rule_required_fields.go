package checks

import (
	"context"
	"fmt"
	"strings"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

const defaultRequiredFields = "name"

// RequiredFieldsRule reports every workspace manifest missing a required field.
type RequiredFieldsRule struct {
	fields [][]string
}

func (r *RequiredFieldsRule) ID() string {
	return "required-fields"
}

func (r *RequiredFieldsRule) Title() string {
	return "Required Manifest Fields"
}

func (r *RequiredFieldsRule) Description() string {
	return "Reports one error per workspace and per required manifest field that is absent.\n" +
		"Fields are dotted paths (e.g. repository.url)."
}

func (r *RequiredFieldsRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "fields",
			Description: "Comma-separated list of required manifest fields (dotted paths).",
			Default:     defaultRequiredFields,
		},
	}
}

func (r *RequiredFieldsRule) Configure(opts map[string]string) error {
	val, ok := opts["fields"]
	if !ok {
		val = defaultRequiredFields
	}
	fields, err := parsePaths(val)
	if err != nil {
		return fmt.Errorf("invalid fields: %w", err)
	}
	r.fields = fields
	return nil
}

func (r *RequiredFieldsRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	fields := r.fields
	if fields == nil {
		fields, _ = parsePaths(defaultRequiredFields)
	}

	var effects []rules.Effect
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		for _, field := range fields {
			if ws.Has(field...) {
				continue
			}
			effects = append(effects, rules.Errorf(ws, "missing required field %q", strings.Join(field, ".")))
		}
	}
	return effects, nil
}

func parsePaths(val string) ([][]string, error) {
	out := [][]string{}
	for _, s := range rules.SplitList(val) {
		path, err := rules.ParsePath(s)
		if err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

func init() {
	rules.Register(&RequiredFieldsRule{})
}
