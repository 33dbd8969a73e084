package source

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gh "pkgmedic/internal/github"
	"pkgmedic/internal/workspace"
)

const defaultConcurrency = 8

// GitHubLoader reads a project from a repository through the REST API.
// The snapshot is read-only. Manifests are cached by blob SHA, so loading
// the same repository again only fetches manifests that changed.
type GitHubLoader struct {
	client      *gh.Client
	ref         gh.RepoRef
	concurrency int
	logger      *zap.Logger
	blobs       *blobCache
}

type GitHubOption func(*GitHubLoader)

func WithConcurrency(n int) GitHubOption {
	return func(l *GitHubLoader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func WithGitHubLogger(lg *zap.Logger) GitHubOption {
	return func(l *GitHubLoader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

func NewGitHubLoader(client *gh.Client, ref gh.RepoRef, opts ...GitHubOption) *GitHubLoader {
	l := &GitHubLoader{
		client:      client,
		ref:         ref,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
		blobs:       &blobCache{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load resolves the ref, lists the recursive tree once and fetches every
// workspace manifest with bounded concurrency.
func (l *GitHubLoader) Load(ctx context.Context) (*workspace.Project, error) {
	if l.client == nil || l.client.Client == nil {
		return nil, fmt.Errorf("github loader: nil client")
	}
	api := l.client.Client
	owner, repo := l.ref.Owner, l.ref.Repo

	ref := l.ref.Ref
	if ref == "" {
		r, _, err := api.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, repo, err)
		}
		ref = r.GetDefaultBranch()
		if ref == "" {
			return nil, fmt.Errorf("repository %s/%s has no default branch", owner, repo)
		}
	}
	label := gh.RepoRef{Owner: owner, Repo: repo, Ref: ref}.String()

	tree, _, err := api.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("fetching tree of %s: %w", label, err)
	}
	if tree.GetTruncated() {
		l.logger.Warn("repository tree truncated; some workspaces may be missing", zap.String("repo", label))
	}

	shas := blobSHAs(tree)
	rootRaw, err := l.fetch(ctx, ref, manifestName, shas[manifestName])
	if err != nil {
		return nil, err
	}
	rootWs, err := workspace.NewWorkspace(workspace.RootCwd, manifestName, rootRaw)
	if err != nil {
		return nil, err
	}
	patterns, err := WorkspacePatterns(rootWs)
	if err != nil {
		return nil, err
	}
	dirs, err := matchTree(tree, patterns)
	if err != nil {
		return nil, err
	}

	list := make([]*workspace.Workspace, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			p := path.Join(dir, manifestName)
			raw, err := l.fetch(gctx, ref, p, shas[p])
			if err != nil {
				return err
			}
			ws, err := workspace.NewWorkspace(dir, p, raw)
			if err != nil {
				return err
			}
			list[i] = ws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Debug("loaded github project",
		zap.String("repo", label),
		zap.Int("workspaces", len(list)+1),
		zap.Int("rate_limit_remaining", l.client.Budget.Remaining()))

	project, err := workspace.NewProject(label, append([]*workspace.Workspace{rootWs}, list...))
	if err != nil {
		return nil, err
	}
	project.ReadOnly = true
	return project, nil
}

func (l *GitHubLoader) fetch(ctx context.Context, ref, p, sha string) ([]byte, error) {
	raw, shared, err := l.blobs.get(sha, func() ([]byte, error) {
		return l.fetchContents(ctx, ref, p)
	})
	if shared {
		l.logger.Debug("manifest served from cache", zap.String("path", p), zap.String("sha", sha))
	}
	return raw, err
}

func (l *GitHubLoader) fetchContents(ctx context.Context, ref, p string) ([]byte, error) {
	file, _, _, err := l.client.Client.Repositories.GetContents(ctx, l.ref.Owner, l.ref.Repo, p,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", p, err)
	}
	if file == nil {
		return nil, fmt.Errorf("fetching %s: not a file", p)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	return []byte(content), nil
}

// blobSHAs maps the path of every manifest blob in tree to its SHA.
func blobSHAs(tree *github.Tree) map[string]string {
	out := make(map[string]string)
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" && path.Base(entry.GetPath()) == manifestName {
			out[entry.GetPath()] = entry.GetSHA()
		}
	}
	return out
}

// matchTree returns the sorted directories of manifests in tree that match
// the workspace globs, excluding the root and anything under node_modules.
func matchTree(tree *github.Tree, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	matcher, err := NewMatcher(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace glob: %w", err)
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || path.Base(entry.GetPath()) != manifestName {
			continue
		}
		dir := path.Dir(entry.GetPath())
		if dir == "." || strings.Contains("/"+dir+"/", "/node_modules/") {
			continue
		}
		if !matcher.Match(dir) {
			continue
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
