package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"pkgmedic/internal/workspace"
)

// LocalLoader reads a project from a directory on disk.
type LocalLoader struct {
	root   string
	logger *zap.Logger
}

type LocalOption func(*LocalLoader)

func WithLocalLogger(l *zap.Logger) LocalOption {
	return func(ll *LocalLoader) {
		if l != nil {
			ll.logger = l
		}
	}
}

func NewLocalLoader(root string, opts ...LocalOption) *LocalLoader {
	l := &LocalLoader{root: root, logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Root returns the project directory.
func (l *LocalLoader) Root() string {
	return l.root
}

// Load reads the root manifest, discovers the workspaces it declares and
// attaches resolved versions from node_modules.
func (l *LocalLoader) Load(ctx context.Context) (*workspace.Project, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", l.root, err)
	}

	rootWs, err := readWorkspace(root, workspace.RootCwd)
	if err != nil {
		return nil, err
	}
	patterns, err := WorkspacePatterns(rootWs)
	if err != nil {
		return nil, err
	}

	dirs, err := l.discover(ctx, root, patterns)
	if err != nil {
		return nil, err
	}

	list := []*workspace.Workspace{rootWs}
	for _, dir := range dirs {
		ws, err := readWorkspace(root, dir)
		if err != nil {
			return nil, err
		}
		list = append(list, ws)
	}

	for _, ws := range list {
		resolveVersions(root, ws)
	}

	l.logger.Debug("loaded local project",
		zap.String("root", root),
		zap.Strings("patterns", patterns),
		zap.Int("workspaces", len(list)))

	return workspace.NewProject(root, list)
}

// discover walks root for directories holding a manifest and matching the
// workspace globs. node_modules, .git and paths ignored by the root
// .gitignore are never entered.
func (l *LocalLoader) discover(ctx context.Context, root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	matcher, err := NewMatcher(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace glob: %w", err)
	}

	var gitignore *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		gitignore = gi
	} else if !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("ignoring unreadable .gitignore", zap.Error(err))
	}

	var dirs []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() || p == root {
			return nil
		}
		name := d.Name()
		if name == "node_modules" || name == ".git" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if gitignore != nil && gitignore.MatchesPath(rel+"/") {
			l.logger.Debug("skipping ignored directory", zap.String("dir", rel))
			return filepath.SkipDir
		}
		if !matcher.Match(rel) {
			return nil
		}
		if _, err := os.Stat(filepath.Join(p, manifestName)); err != nil {
			return nil
		}
		dirs = append(dirs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering workspaces: %w", err)
	}
	return dirs, nil
}

func readWorkspace(root, cwd string) (*workspace.Workspace, error) {
	path := filepath.Join(root, filepath.FromSlash(cwd), manifestName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return workspace.NewWorkspace(cwd, path, raw)
}

// resolveVersions looks each dependency up in the workspace's node_modules,
// then in the hoisted root node_modules.
func resolveVersions(root string, ws *workspace.Workspace) {
	for _, dep := range ws.Dependencies {
		candidates := []string{
			filepath.Join(root, filepath.FromSlash(ws.Cwd), "node_modules", filepath.FromSlash(dep.Ident), manifestName),
			filepath.Join(root, "node_modules", filepath.FromSlash(dep.Ident), manifestName),
		}
		for _, c := range candidates {
			raw, err := os.ReadFile(c)
			if err != nil {
				continue
			}
			if v := resolvedVersion(raw); v != "" {
				dep.Resolved = v
				break
			}
		}
	}
}
