package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pkgmedic/internal/config"
	"pkgmedic/internal/fix"
	"pkgmedic/internal/workspace"
)

// commit previews and/or writes the staged changes. It returns the manifests
// written. Failed writes are joined into the error and leave their changes
// staged.
func (e *Engine) commit(cfg *config.Config, p *workspace.Project, ev *Evaluation) ([]string, error) {
	staged := ev.Changes()
	if len(staged) == 0 || (!cfg.Runtime.Fix && !cfg.Runtime.Diff) {
		return nil, nil
	}

	patches, err := fix.Plan(p, staged)
	if err != nil {
		return nil, fmt.Errorf("planning changes: %w", err)
	}
	changes, err := fix.ApplyAll(patches)
	if err != nil {
		return nil, fmt.Errorf("applying changes: %w", err)
	}

	if cfg.Runtime.Diff {
		for _, c := range changes {
			d, err := fix.Diff(c)
			if err != nil {
				return nil, fmt.Errorf("rendering diff: %w", err)
			}
			fmt.Fprint(e.stdout, d)
		}
	}

	if !cfg.Runtime.Fix {
		return nil, nil
	}
	if p.ReadOnly {
		return nil, fmt.Errorf("project %s is read-only; changes were not written", p.Root)
	}

	var (
		files []string
		errs  []error
	)
	written := make(map[string]bool)
	for _, c := range changes {
		ws := c.Workspace()
		if err := fix.Write(c); err != nil {
			errs = append(errs, err)
			continue
		}
		e.logger.Debug("manifest written", zap.String("workspace", ws.Cwd), zap.String("path", ws.ManifestPath))
		written[ws.Cwd] = true
		files = append(files, ws.ManifestPath)
	}
	ev.markFixed(written)
	return files, errors.Join(errs...)
}
