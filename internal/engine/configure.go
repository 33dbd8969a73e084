package engine

import (
	"errors"
	"fmt"
	"strings"

	"pkgmedic/internal/config"
	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

// ErrMissingWorkspace is returned when a required workspace is absent from
// the snapshot.
var ErrMissingWorkspace = errors.New("required workspace missing")

// RequireWorkspaces checks that every name matches a workspace by cwd or
// package name.
func RequireWorkspaces(p *workspace.Project, names []string) error {
	var missing []string
	for _, name := range names {
		if _, ok := p.Workspace(name); ok {
			continue
		}
		if _, ok := p.WorkspaceByIdent(name); ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingWorkspace, strings.Join(missing, ", "))
	}
	return nil
}

// ConfigureRules resolves the selector and configures every selected rule.
//
// Options come from the configuration file and --set, both keyed by rule ID.
// Every selected configurable rule is configured, so a rule without options
// falls back to its defaults even when an earlier run configured it.
func ConfigureRules(cfg *config.Config) ([]rules.Rule, error) {
	selected, err := rules.Resolve(cfg.Rules.Selector)
	if err != nil {
		return nil, err
	}

	options, err := cfg.RuleOptions()
	if err != nil {
		return nil, err
	}

	all := rules.List()
	byID := make(map[string]rules.Rule, len(all))
	for _, r := range all {
		byID[r.ID()] = r
	}
	for ruleID, opts := range options {
		r, ok := byID[ruleID]
		if !ok {
			return nil, fmt.Errorf("unknown rule ID %q", ruleID)
		}
		cr, ok := r.(rules.ConfigurableRule)
		if !ok {
			return nil, fmt.Errorf("rule %q does not support options", ruleID)
		}
		allowed := make(map[string]struct{})
		for _, opt := range cr.Options() {
			allowed[opt.Name] = struct{}{}
		}
		for name := range opts {
			if _, ok := allowed[name]; !ok {
				return nil, fmt.Errorf("unknown option %q for rule %q", name, ruleID)
			}
		}
	}

	for _, r := range selected {
		cr, ok := r.(rules.ConfigurableRule)
		if !ok {
			continue
		}
		opts := options[r.ID()]
		if opts == nil {
			opts = map[string]string{}
		}
		if err := cr.Configure(opts); err != nil {
			return nil, fmt.Errorf("configure rule %q: %w", r.ID(), err)
		}
	}
	return selected, nil
}
