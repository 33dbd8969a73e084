package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

const (
	workspaceProtocol      = "workspace:"
	defaultWorkspaceRange  = "workspace:^"
	defaultWorkspaceStrict = "false"
)

// WorkspaceProtocolRule requires dependencies on sibling workspaces to use the
// workspace: protocol so they always link to the local package.
type WorkspaceProtocolRule struct {
	rng    string
	strict bool
}

func (r *WorkspaceProtocolRule) ID() string {
	return "workspace-protocol"
}

func (r *WorkspaceProtocolRule) Title() string {
	return "Workspace Protocol For Internal Dependencies"
}

func (r *WorkspaceProtocolRule) Description() string {
	return "Stages an update of every non-peer dependency on another workspace of the project whose range\n" +
		"does not use the workspace: protocol. In strict mode the range must equal the configured range."
}

func (r *WorkspaceProtocolRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "range",
			Description: "Range written for internal dependencies.",
			Default:     defaultWorkspaceRange,
		},
		{
			Name:        "strict",
			Description: "Require the exact configured range instead of any workspace: range (true|false).",
			Default:     defaultWorkspaceStrict,
		},
	}
}

func (r *WorkspaceProtocolRule) Configure(opts map[string]string) error {
	r.rng = defaultWorkspaceRange
	r.strict = false

	if val := strings.TrimSpace(opts["range"]); val != "" {
		if !strings.HasPrefix(val, workspaceProtocol) {
			return fmt.Errorf("range must use the %s protocol, got %q", workspaceProtocol, val)
		}
		r.rng = val
	}
	if val := strings.TrimSpace(opts["strict"]); val != "" {
		strict, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid strict: %w", err)
		}
		r.strict = strict
	}
	return nil
}

func (r *WorkspaceProtocolRule) Evaluate(ctx context.Context, p *workspace.Project) ([]rules.Effect, error) {
	rng := r.rng
	if rng == "" {
		rng = defaultWorkspaceRange
	}

	var effects []rules.Effect
	for _, dep := range p.Dependencies(workspace.DependencyFilter{}) {
		if dep.Type == workspace.PeerDependencies {
			continue
		}
		target, ok := p.WorkspaceByIdent(dep.Ident)
		if !ok || target == dep.Workspace {
			continue
		}
		if r.strict && dep.Range == rng {
			continue
		}
		if !r.strict && strings.HasPrefix(dep.Range, workspaceProtocol) {
			continue
		}
		effects = append(effects, rules.UpdateRange(dep, rng))
	}
	return effects, nil
}

func init() {
	rules.Register(&WorkspaceProtocolRule{})
}
