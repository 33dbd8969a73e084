package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pkgmedic/internal/config"
	"pkgmedic/internal/flags"
	"pkgmedic/internal/output"
	"pkgmedic/internal/rules"
	"pkgmedic/internal/source"
	"pkgmedic/internal/workspace"
)

func exitCodeForRun(fatal, partial, wrongs bool) int {
	// Exit code contract:
	// 0 = clean run, nothing to report
	// 1 = diagnostics, or staged changes left unapplied
	// 2 = partial failure (a rule errored or a manifest write failed)
	// 3 = fatal error (evaluation did not run)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if wrongs {
		return 1
	}
	return 0
}

type Engine struct {
	loader source.Loader
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

type Option func(*Engine)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStdout redirects console sinks, emit streams and diffs.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.stdout = w
		}
	}
}

// WithStderr redirects progress and error messages.
func WithStderr(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.stderr = w
		}
	}
}

func NewEngine(loader source.Loader, opts ...Option) *Engine {
	e := &Engine{
		loader: loader,
		logger: zap.NewNop(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager(e.logger)
	add := func(s output.Sink, err error) error {
		if err == nil {
			err = outMgr.AddSink(s)
		}
		if err != nil {
			outMgr.Close()
		}
		return err
	}

	if !cfg.Output.NoConsole {
		if err := add(output.NewConsoleSink(e.stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus...), nil); err != nil {
			return nil, err
		}
	}

	// Additional structured streams on stdout.
	for _, emit := range cfg.Output.Emit {
		if err := add(output.NewEmitSink(e.stdout, emit)); err != nil {
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		if err := add(output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)); err != nil {
			return nil, err
		}
	}

	if cfg.Output.Report != "" {
		if err := add(output.NewReportSink(cfg.Output.Report, buildReproducibilityCommand(cfg))); err != nil {
			return nil, err
		}
	}

	return outMgr, nil
}

// buildReproducibilityCommand renders the check invocation for the report.
// Output flags are left out so rerunning does not overwrite the report.
func buildReproducibilityCommand(cfg *config.Config) string {
	args := []string{"pkgmedic", "check"}
	add := func(name, value string) {
		args = append(args, "--"+name, shellQuote(value))
	}

	if cfg.Source.GitHub != "" {
		add(flags.FlagGitHub, cfg.Source.GitHub)
	} else if cfg.Source.Cwd != "" && cfg.Source.Cwd != "." {
		add(flags.FlagCwd, cfg.Source.Cwd)
	}
	if cfg.Rules.ConfigFile != "" {
		add(flags.FlagConfig, cfg.Rules.ConfigFile)
	}
	if cfg.Rules.Selector != "" {
		add(flags.FlagRules, cfg.Rules.Selector)
	}
	for _, s := range cfg.Rules.Set {
		add(flags.FlagSet, s)
	}
	if cfg.Runtime.Fix {
		args = append(args, "--"+flags.FlagFix)
	}
	if cfg.Runtime.Diff {
		args = append(args, "--"+flags.FlagDiff)
	}
	return strings.Join(args, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;~!#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (e *Engine) progress(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole {
		return
	}
	fmt.Fprintf(e.stderr, format+"\n", args...)
}

func (e *Engine) fail(format string, args ...any) int {
	fmt.Fprintf(e.stderr, "Error: "+format+"\n", args...)
	return exitCodeForRun(true, false, false)
}

// Preflight loads the snapshot, configures the selected rules and checks
// required workspaces. Any error here is fatal to the run.
func (e *Engine) Preflight(ctx context.Context, cfg *config.Config) (*workspace.Project, []rules.Rule, error) {
	project, err := e.loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	selected, err := ConfigureRules(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring rules: %w", err)
	}
	if err := RequireWorkspaces(project, cfg.Rules.RequiredWorkspaces); err != nil {
		return nil, nil, err
	}
	return project, selected, nil
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	e.progress(cfg, "Loading project...")
	project, selected, err := e.Preflight(ctx, cfg)
	if err != nil {
		return e.fail("%s", presentLoadError(err, cfg.Runtime.Verbose))
	}
	e.progress(cfg, "Found %d workspace(s); selected %d rule(s).", project.Len(), len(selected))
	e.logger.Debug("project loaded",
		zap.String("root", project.Root),
		zap.Int("workspaces", project.Len()),
		zap.Bool("read_only", project.ReadOnly))

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		return e.fail("creating output sinks: %v", err)
	}
	defer outMgr.Close()

	runID := uuid.NewString()
	_ = outMgr.Write(output.Event{
		Type:       output.EventRunStarted,
		RunID:      runID,
		Project:    project.Root,
		Workspaces: project.Len(),
		Rules:      len(selected),
	})

	ev := e.Evaluate(ctx, project, selected)
	e.logger.Debug("evaluation finished",
		zap.String("run_id", runID),
		zap.Int("diagnostics", len(ev.Diagnostics())),
		zap.Int("changes", len(ev.Changes())))

	files, commitErr := e.commit(cfg, project, ev)
	if commitErr != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", commitErr)
	}

	for _, r := range ev.Results {
		_ = outMgr.Write(r)
	}
	if len(files) > 0 {
		changes := 0
		for _, c := range ev.Changes() {
			if c.Status == rules.StatusFixed {
				changes++
			}
		}
		_ = outMgr.Write(output.Event{Type: output.EventChangesApplied, RunID: runID, Files: files, Changes: changes})
	}

	code := exitCodeForRun(false, ev.Errored() || commitErr != nil, ev.Pending())
	_ = outMgr.Write(output.Finished(runID, code))
	e.logger.Debug("run finished", zap.String("run_id", runID), zap.Int("exit_code", code))
	return code
}
