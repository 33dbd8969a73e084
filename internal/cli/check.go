package cli

import (
	"context"
	"fmt"
	"os"

	"pkgmedic/internal/config"
	"pkgmedic/internal/engine"
	"pkgmedic/internal/flags"

	"github.com/spf13/cobra"
)

var cfg = config.New()

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  Local projects need no credentials. With --github, pkgmedic reads manifests
  through the GitHub API and authenticates when a token is available.

  Sources (in order):
  1) GITHUB_TOKEN environment variable
  2) GH_TOKEN environment variable
  3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

  Without a token only public repositories can be read, under the
  unauthenticated rate limit.

  Token guidance (brief):
  - PAT (classic): repo (to read private repositories).
  - Fine-grained PAT: grant access to the target repository with
    Contents: Read.

  Examples:
    # macOS/Linux
    export GITHUB_TOKEN="<your_token>"
    pkgmedic check --github acme/monorepo

    # GitHub CLI auth
    gh auth login
    pkgmedic check --github acme/monorepo@main

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check workspace manifests against the constraint rules",
	Long: `Check every workspace manifest of a project against the selected rules.

Rules produce diagnostics (problems pkgmedic cannot correct on its own) and
staged changes (corrections it can write back). Nothing is written unless
--fix is given; --diff previews the corrections as a unified diff.

Configuration:
  Rules and their options are read from .pkgmedic.yaml at the project root
  (or --config FILE). --rules replaces the file's rule list and every --set
  rule.option=value overrides the matching file option. --set takes one
  assignment per flag; the value may itself be a comma-separated list.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown summary
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, rule.result, changes.applied, run.finished).
	Rule results are represented as an Event with type "rule.result" and a nested
	"result" object carrying the rule status and its effects.

Exit codes:
	0 = clean run, nothing to report
	1 = diagnostics found or changes left unapplied
	2 = partial failure (a rule errored or a manifest could not be written)
	3 = fatal error (check did not run)

Examples:
  # Check the project in the current directory
  pkgmedic check

  # Pin a dependency range everywhere and apply it
  pkgmedic check --set 'dependency-ranges.ranges=expo=~50.0.0' --fix

  # Preview corrections without writing them
  pkgmedic check --cwd ./monorepo --diff

  # Check a remote repository (read-only)
  pkgmedic check --github acme/monorepo@main

	# AI Agent: stream machine-readable events to stdout
	pkgmedic check --no-console --emit ndjson
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.LoadFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		loader, err := buildLoader(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		eng := engine.NewEngine(loader, engine.WithLogger(logger))
		code := eng.Run(ctx, cfg)
		cancel()
		_ = logger.Sync()
		os.Exit(code)
	},
}

// addSourceFlags wires the project source and rule configuration flags shared
// by check, watch and workspaces.
func addSourceFlags(cmd *cobra.Command, remote bool) {
	cmd.Flags().StringVar(&cfg.Source.Cwd, flags.FlagCwd, cfg.Source.Cwd, "Project root holding the root package.json")
	if remote {
		cmd.Flags().StringVar(&cfg.Source.GitHub, flags.FlagGitHub, "", "Load the project from a GitHub repository as OWNER/REPO[@REF] (read-only)")
	}
	cmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent manifest fetches for --github")
	cmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
}

func addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Rules.ConfigFile, flags.FlagConfig, "", "YAML configuration file (default: .pkgmedic.yaml at the project root, if present)")
	cmd.Flags().StringVar(&cfg.Rules.Selector, flags.FlagRules, "", "Comma-separated rule IDs to run (empty = the config file's list, or all rules)")
	cmd.Flags().StringArrayVar(&cfg.Rules.Set, flags.FlagSet, nil, "Per-rule option as ruleID.option=value (repeatable; one assignment per flag)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson")
	cmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (PASS, FAIL, FIXABLE, FIXED, ERROR). Comma-separated.")
	cmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetHelpTemplate(checkHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any check-affecting flags here,
	// keep the report reproducibility command generator in sync:
	// internal/engine/engine.go:buildReproducibilityCommand.
	//
	// Output flags are intentionally omitted from the reproducibility command.
	addSourceFlags(checkCmd, true)
	addRuleFlags(checkCmd)
	checkCmd.Flags().BoolVar(&cfg.Runtime.Fix, flags.FlagFix, false, "Write staged changes back to the manifests")
	checkCmd.Flags().BoolVar(&cfg.Runtime.Diff, flags.FlagDiff, false, "Print a unified diff of the staged changes")
	addOutputFlags(checkCmd)
}
