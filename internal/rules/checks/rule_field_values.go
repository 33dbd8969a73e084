package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

type fieldValue struct {
	path  []string
	value any
}

// FieldValuesRule stages manifest fields to fixed values in every workspace.
type FieldValuesRule struct {
	values []fieldValue
}

func (r *FieldValuesRule) ID() string {
	return "field-values"
}

func (r *FieldValuesRule) Title() string {
	return "Enforced Field Values"
}

func (r *FieldValuesRule) Description() string {
	return "Stages each configured manifest field to its configured value in every workspace.\n" +
		"Values that parse as JSON (true, 18, {\"a\":1}) are written as JSON; anything else is written as a string."
}

func (r *FieldValuesRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "values",
			Description: "Comma-separated list of path=value pairs (e.g. license=MIT,engines.node=>=18).",
		},
	}
}

func (r *FieldValuesRule) Configure(opts map[string]string) error {
	r.values = nil
	pairs, ok := rules.SplitAssignments(opts["values"])
	if !ok {
		return fmt.Errorf("invalid values: expected path=value pairs")
	}
	for _, kv := range pairs {
		path, err := rules.ParsePath(kv[0])
		if err != nil {
			return fmt.Errorf("invalid values: %w", err)
		}
		r.values = append(r.values, fieldValue{path: path, value: decodeValue(kv[1])})
	}
	return nil
}

func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func (r *FieldValuesRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	var effects []rules.Effect
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		for _, fv := range r.values {
			if cur, ok := ws.Get(fv.path...); ok && reflect.DeepEqual(cur, fv.value) {
				continue
			}
			effects = append(effects, rules.SetField(ws, fv.path, fv.value))
		}
	}
	return effects, nil
}

func init() {
	rules.Register(&FieldValuesRule{})
}
