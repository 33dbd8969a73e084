package flags

// Package flags defines canonical CLI flag names shared across the CLI and engine.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. report reproducibility command
// generation).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Source.Cwd, flags.FlagCwd, ".", "...")
//	arg := "--" + flags.FlagCwd
const (
	// Source
	FlagCwd    = "cwd"
	FlagGitHub = "github"

	// Rules
	FlagConfig = "config"
	FlagRules  = "rules"
	FlagSet    = "set"

	// Changes
	FlagFix  = "fix"
	FlagDiff = "diff"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"
	FlagDebounce    = "debounce"

	// Listing
	FlagQuiet = "quiet"
)
