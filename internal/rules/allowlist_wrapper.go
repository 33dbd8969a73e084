package rules

import (
	"context"

	"pkgmedic/internal/workspace"
)

// AllowListWrapper wraps a Rule to provide automatic allowlist functionality.
type AllowListWrapper struct {
	Rule
	allowList AllowList
}

// ID returns the inner rule's ID.
func (w *AllowListWrapper) ID() string {
	return w.Rule.ID()
}

// Title returns the inner rule's Title.
func (w *AllowListWrapper) Title() string {
	return w.Rule.Title()
}

// Description returns the inner rule's Description.
func (w *AllowListWrapper) Description() string {
	return w.Rule.Description()
}

// Evaluate calls the inner rule's Evaluate and then drops effects on allowed workspaces.
func (w *AllowListWrapper) Evaluate(ctx context.Context, p *workspace.Project) ([]Effect, error) {
	effects, err := w.Rule.Evaluate(ctx, p)
	if err != nil {
		return nil, err
	}
	return w.allowList.Filter(effects), nil
}

// Options returns the combined options of the allowlist and the inner rule (if configurable).
func (w *AllowListWrapper) Options() []Option {
	opts := w.allowList.Options()
	if cr, ok := w.Rule.(ConfigurableRule); ok {
		opts = append(opts, cr.Options()...)
	}
	return opts
}

// Configure configures the allowlist and the inner rule (if configurable).
func (w *AllowListWrapper) Configure(opts map[string]string) error {
	w.allowList.Configure(opts)
	if cr, ok := w.Rule.(ConfigurableRule); ok {
		return cr.Configure(opts)
	}
	return nil
}
