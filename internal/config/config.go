package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gh "pkgmedic/internal/github"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect a
	// check run, keep these in sync:
	// - CLI flags in internal/cli/check.go
	// - report reproducibility command in internal/engine/engine.go:buildReproducibilityCommand
	Source  Source
	Rules   Rules
	Output  Output
	Runtime Runtime
}

type Source struct {
	// Cwd is the local project root (see --cwd).
	Cwd string

	// GitHub loads the project from a repository instead, as OWNER/REPO[@REF]
	// (see --github). Remote snapshots are read-only.
	GitHub string
}

type Rules struct {
	// Selector selects which rules to run.
	// Empty means all rules; otherwise a comma-separated list of rule IDs (see --rules).
	Selector string

	// Set provides per-rule option overrides from the CLI.
	// Entries are of the form ruleID.option=value, one per --set flag. The
	// value may itself be a comma-separated list.
	Set []string

	// ConfigFile is the YAML configuration path (see --config). When empty,
	// .pkgmedic.yaml at the project root is used if present.
	ConfigFile string

	// Options holds per-rule options read from the configuration file.
	// Set entries override them.
	Options map[string]map[string]string

	// RequiredWorkspaces lists workspaces (cwd or package name) that must
	// exist for the run to start.
	RequiredWorkspaces []string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by result status (see --console-filter-status).
	// Allowed values: PASS, FAIL, FIXABLE, FIXED, ERROR.
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds parallel manifest fetches for --github (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration

	// Fix writes staged changes back to the manifests (see --fix).
	Fix bool

	// Diff prints a unified diff of the staged changes (see --diff).
	Diff bool

	// Verbose enables debug logging on stderr (see --verbose).
	Verbose bool
}

var validStatuses = map[string]bool{
	"PASS":    true,
	"FAIL":    true,
	"FIXABLE": true,
	"FIXED":   true,
	"ERROR":   true,
}

func New() *Config {
	return &Config{
		Source: Source{
			Cwd: ".",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 8,
			Timeout:     5 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Rules.Set = trimList(c.Rules.Set)
	c.Rules.RequiredWorkspaces = splitCommaList(c.Rules.RequiredWorkspaces)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	// Source validation
	c.Source.GitHub = strings.TrimSpace(c.Source.GitHub)
	c.Source.Cwd = strings.TrimSpace(c.Source.Cwd)
	if c.Source.GitHub == "" && c.Source.Cwd == "" {
		c.Source.Cwd = "."
	}
	if c.Source.GitHub != "" {
		if _, err := gh.ParseRepoRef(c.Source.GitHub); err != nil {
			return fmt.Errorf("invalid --github value: %w", err)
		}
		if c.Runtime.Fix {
			return errors.New("--fix cannot be used with --github (remote projects are read-only)")
		}
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, s := range c.Output.ConsoleFilterStatus {
		s = strings.ToUpper(s)
		if !validStatuses[s] {
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: PASS, FAIL, FIXABLE, FIXED, ERROR)", s)
		}
		c.Output.ConsoleFilterStatus[i] = s
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
		c.Output.Emit[i] = v
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Rule option syntax validation (rule.option=value)
	if len(c.Rules.Set) > 0 {
		if _, err := ParseRuleOptionAssignments(c.Rules.Set); err != nil {
			return err
		}
	}

	return nil
}

// RuleOptions merges file options with --set assignments; --set wins per option.
func (c *Config) RuleOptions() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for ruleID, opts := range c.Rules.Options {
		out[ruleID] = make(map[string]string, len(opts))
		for k, v := range opts {
			out[ruleID][k] = v
		}
	}
	set, err := ParseRuleOptionAssignments(c.Rules.Set)
	if err != nil {
		return nil, err
	}
	for ruleID, opts := range set {
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string, len(opts))
		}
		for k, v := range opts {
			out[ruleID][k] = v
		}
	}
	return out, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseRuleOptionAssignments parses values of the form "ruleID.option=value".
//
// Notes:
// - Each entry is one assignment; commas belong to the value.
// - This validates syntax only (no validation of rule IDs or option names).
// - Empty values are allowed ("rule.option=").
// - The option name may itself contain dots ("rule.allow.patterns=...").
func ParseRuleOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range trimList(values) {
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		value = strings.TrimSpace(value)
		ruleID, opt, ok := strings.Cut(strings.TrimSpace(left), ".")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		ruleID = strings.TrimSpace(ruleID)
		opt = strings.TrimSpace(opt)
		if ruleID == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty rule and option", raw)
		}
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string)
		}
		out[ruleID][opt] = value
	}
	return out, nil
}

func trimList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
