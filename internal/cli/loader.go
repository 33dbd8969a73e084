package cli

import (
	"context"
	"fmt"

	"pkgmedic/internal/config"
	gh "pkgmedic/internal/github"
	"pkgmedic/internal/source"

	"go.uber.org/zap"
)

// buildLoader picks the snapshot source selected by cfg. For --github the
// token is optional: public repositories load unauthenticated.
func buildLoader(ctx context.Context, cfg *config.Config, l *zap.Logger) (source.Loader, error) {
	if cfg.Source.GitHub == "" {
		return source.NewLocalLoader(cfg.Source.Cwd, source.WithLocalLogger(l)), nil
	}

	ref, err := gh.ParseRepoRef(cfg.Source.GitHub)
	if err != nil {
		return nil, err
	}

	token, tokenSource, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve GitHub auth token: %w", err)
	}
	if token == "" {
		l.Warn("no GitHub token found; only public repositories can be read (set GITHUB_TOKEN or run 'gh auth login')")
	} else {
		l.Debug("using GitHub token", zap.String("source", string(tokenSource)))
	}

	client, err := gh.NewClient(ctx, token, gh.WithLogger(l))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return source.NewGitHubLoader(client, ref,
		source.WithConcurrency(cfg.Runtime.Concurrency),
		source.WithGitHubLogger(l)), nil
}
