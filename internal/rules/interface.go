package rules

import (
	"context"

	"pkgmedic/internal/workspace"
)

type Rule interface {
	ID() string
	Title() string
	Description() string

	// Evaluate inspects the snapshot and returns the effects it proposes.
	// Rules MUST NOT mutate the project and never see other rules' effects.
	Evaluate(ctx context.Context, p *workspace.Project) ([]Effect, error)
}

type Option struct {
	Name        string
	Description string
	Default     string
}

type ConfigurableRule interface {
	Rule
	Options() []Option
	// Configure is called once per run before evaluation. Options absent from
	// opts reset to their defaults.
	Configure(opts map[string]string) error
}
