package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"pkgmedic/internal/workspace"
)

// Kind tags the variant an Effect carries.
type Kind string

const (
	// KindError is a diagnostic; it is never applied.
	KindError Kind = "error"
	// KindSetField stages Value at Path.
	KindSetField Kind = "set"
	// KindUnsetField stages removal of Path.
	KindUnsetField Kind = "unset"
	// KindUpdateRange stages a new range for a dependency.
	KindUpdateRange Kind = "update"
	// KindDeleteDependency stages removal of a dependency.
	KindDeleteDependency Kind = "delete"
)

// IsChange reports whether the effect stages a manifest correction.
func (k Kind) IsChange() bool {
	return k == KindSetField || k == KindUnsetField || k == KindUpdateRange || k == KindDeleteDependency
}

// Removes reports whether applying the effect removes Path.
func (k Kind) Removes() bool {
	return k == KindUnsetField || k == KindDeleteDependency
}

// Effect is a single rule output: a diagnostic or a staged correction
// targeting one workspace (and optionally one of its dependencies).
type Effect struct {
	RuleID string `json:"rule_id"`
	Kind   Kind   `json:"kind"`
	Status Status `json:"status,omitempty"`

	Workspace string `json:"workspace"`
	Ident     string `json:"ident,omitempty"`

	Dependency     string                   `json:"dependency,omitempty"`
	DependencyType workspace.DependencyType `json:"dependency_type,omitempty"`

	Path    []string `json:"path,omitempty"`
	Value   any      `json:"value,omitempty"`
	Current any      `json:"current,omitempty"`
	Message string   `json:"message,omitempty"`

	// Derived marks a change computed from other declarations in the snapshot
	// rather than from rule configuration. It gives way to a configured change
	// on the same field.
	Derived bool `json:"-"`
}

// Field returns Path in dotted form.
func (e Effect) Field() string {
	return strings.Join(e.Path, ".")
}

// Target identifies the workspace field an effect applies to.
func (e Effect) Target() string {
	return e.Workspace + "\x00" + strings.Join(e.Path, "\x00")
}

// SameChange reports whether two change effects would write the same result.
func (e Effect) SameChange(o Effect) bool {
	if e.Kind.Removes() || o.Kind.Removes() {
		return e.Kind.Removes() && o.Kind.Removes()
	}
	return renderValue(e.Value) == renderValue(o.Value)
}

// Describe renders the effect as a single human readable sentence.
func (e Effect) Describe() string {
	switch e.Kind {
	case KindError:
		return e.Message
	case KindSetField:
		if e.Current == nil {
			return fmt.Sprintf("set %s to %s", e.Field(), renderValue(e.Value))
		}
		return fmt.Sprintf("set %s from %s to %s", e.Field(), renderValue(e.Current), renderValue(e.Value))
	case KindUnsetField:
		return fmt.Sprintf("unset %s", e.Field())
	case KindUpdateRange:
		return fmt.Sprintf("update %s in %s from %s to %s", e.Dependency, e.DependencyType, renderValue(e.Current), renderValue(e.Value))
	case KindDeleteDependency:
		return fmt.Sprintf("remove %s from %s", e.Dependency, e.DependencyType)
	default:
		return fmt.Sprintf("unknown effect %q", e.Kind)
	}
}

func renderValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ParsePath splits a dotted manifest path ("engines.node") into segments.
// Empty segments are rejected.
func ParsePath(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty field path")
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid field path %q", s)
		}
	}
	return parts, nil
}
