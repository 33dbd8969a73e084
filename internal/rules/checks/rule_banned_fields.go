package checks

import (
	"context"
	"fmt"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// BannedFieldsRule stages removal of manifest fields that must not be declared.
type BannedFieldsRule struct {
	fields [][]string
}

func (r *BannedFieldsRule) ID() string {
	return "banned-fields"
}

func (r *BannedFieldsRule) Title() string {
	return "Banned Manifest Fields"
}

func (r *BannedFieldsRule) Description() string {
	return "Stages removal of each configured manifest field (dotted path) wherever a workspace declares it."
}

func (r *BannedFieldsRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "fields",
			Description: "Comma-separated list of manifest fields to remove (e.g. resolutions,scripts.postinstall).",
		},
	}
}

func (r *BannedFieldsRule) Configure(opts map[string]string) error {
	fields, err := parsePaths(opts["fields"])
	if err != nil {
		return fmt.Errorf("invalid fields: %w", err)
	}
	r.fields = fields
	return nil
}

func (r *BannedFieldsRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	var effects []rules.Effect
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		for _, field := range r.fields {
			if ws.Has(field...) {
				effects = append(effects, rules.UnsetField(ws, field))
			}
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&BannedFieldsRule{})
}
