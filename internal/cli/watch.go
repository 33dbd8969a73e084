package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pkgmedic/internal/engine"
	"pkgmedic/internal/flags"
	"pkgmedic/internal/source"
	"pkgmedic/internal/watch"
	"pkgmedic/internal/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDebounce = watch.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the check whenever a workspace manifest changes",
	Long: `Run "pkgmedic check" on a local project, then keep watching every workspace
directory and run it again each time a package.json is written.

Bursts of writes (an editor save, a package manager install) are collapsed
into a single run after --debounce of quiet. Workspaces added or removed by
the change are picked up on the next run. Stop with Ctrl+C.

With --fix, corrections are written as soon as they are staged; the rewrite
triggers one more run, which finds nothing left to change.

Examples:
  pkgmedic watch
  pkgmedic watch --cwd ./monorepo --rules required-fields,dependency-ranges
  pkgmedic watch --fix --debounce 1s
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.LoadFile(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader := source.NewLocalLoader(cfg.Source.Cwd, source.WithLocalLogger(logger))
		eng := engine.NewEngine(loader, engine.WithLogger(logger))
		check := func(ctx context.Context) []string {
			return checkAndList(ctx, eng, loader, cmd.ErrOrStderr())
		}

		dirs := check(ctx)
		if dirs == nil {
			return errors.New("project could not be loaded; nothing to watch")
		}

		w, err := watch.New(func(ctx context.Context, changed []string) []string {
			logger.Info("manifests changed", zap.Strings("paths", changed))
			return check(ctx)
		}, watch.WithLogger(logger), watch.WithDebounce(watchDebounce))
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()

		if err := w.Watch(dirs); err != nil {
			return err
		}
		w.Start(ctx)
		<-w.Done()
		return nil
	},
}

// checkAndList runs one check and returns the workspace directories to watch
// afterwards, or nil when the project cannot be loaded.
func checkAndList(ctx context.Context, eng *engine.Engine, loader *source.LocalLoader, status io.Writer) []string {
	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	code := eng.Run(runCtx, cfg)
	p, err := loader.Load(runCtx)
	if err != nil {
		logger.Warn("reloading project", zap.Error(err))
		return nil
	}
	if !cfg.Output.NoConsole {
		fmt.Fprintf(status, "Check finished (exit code %d); watching %d workspace(s). Press Ctrl+C to stop.\n", code, p.Len())
	}
	return workspaceDirs(p)
}

func workspaceDirs(p *workspace.Project) []string {
	list := p.Workspaces(workspace.WorkspaceFilter{})
	dirs := make([]string, 0, len(list))
	for _, ws := range list {
		dirs = append(dirs, filepath.Join(p.Root, filepath.FromSlash(ws.Cwd)))
	}
	return dirs
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addSourceFlags(watchCmd, false)
	addRuleFlags(watchCmd)
	watchCmd.Flags().BoolVar(&cfg.Runtime.Fix, flags.FlagFix, false, "Write staged changes back to the manifests after each run")
	watchCmd.Flags().BoolVar(&cfg.Runtime.Diff, flags.FlagDiff, false, "Print a unified diff of the staged changes after each run")
	watchCmd.Flags().DurationVar(&watchDebounce, flags.FlagDebounce, watch.DefaultDebounce, "Quiet period before a change triggers a run")
	addOutputFlags(watchCmd)
}
