package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"pkgmedic/internal/rules"
)

const topWorkspaceCount = 10

// ReportSink renders a Markdown summary of the run on Close.
type ReportSink struct {
	path    string
	command string
	file    *os.File
	mu      sync.Mutex
	results []rules.Result

	runID        string
	project      string
	workspaces   int
	applied      []string
	exitCode     int
	haveExitCode bool
}

// NewReportSink creates the report file. command, when set, is printed so the
// run can be reproduced.
func NewReportSink(path string, command string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path:    path,
		command: command,
		file:    f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case rules.Result:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.runID = t.RunID
			s.project = t.Project
			s.workspaces = t.Workspaces
		case EventChangesApplied:
			s.applied = append(s.applied, t.Files...)
		case EventRunFinished:
			if t.ExitCode != nil {
				s.exitCode = *t.ExitCode
				s.haveExitCode = true
			}
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteString(s.render()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func (s *ReportSink) render() string {
	statusCounts := make(map[rules.Status]int)
	var diagnostics, staged []rules.Effect
	var errs []rules.Result
	for _, r := range s.results {
		statusCounts[r.Status]++
		if r.Status == rules.StatusError {
			errs = append(errs, r)
		}
		for _, e := range r.Effects {
			if e.Kind == rules.KindError {
				diagnostics = append(diagnostics, e)
			} else {
				staged = append(staged, e)
			}
		}
	}

	var b strings.Builder
	b.WriteString("# pkgmedic Check Report\n\n")
	if s.project != "" {
		fmt.Fprintf(&b, "- Project: `%s`\n", s.project)
	}
	if s.runID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", s.runID)
	}
	if s.haveExitCode {
		fmt.Fprintf(&b, "- Exit code: %d\n", s.exitCode)
	}
	b.WriteString("\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Workspaces | %d |\n", s.workspaces)
	fmt.Fprintf(&b, "| Rules evaluated | %d |\n", len(s.results))
	for _, st := range []rules.Status{rules.StatusPass, rules.StatusFail, rules.StatusFixable, rules.StatusFixed, rules.StatusError} {
		fmt.Fprintf(&b, "| Rules %s | %d |\n", st, statusCounts[st])
	}
	fmt.Fprintf(&b, "| Diagnostics | %d |\n", len(diagnostics))
	fmt.Fprintf(&b, "| Staged changes | %d |\n", len(staged))
	fmt.Fprintf(&b, "| Manifests written | %d |\n", len(s.applied))
	b.WriteString("\n")

	// --- Problem areas ---
	b.WriteString("## Problem Areas\n\n")
	cats := computeCategoryStats(s.results)
	if len(cats) == 0 {
		b.WriteString("No open findings.\n\n")
	}
	for _, cs := range cats {
		fmt.Fprintf(&b, "- **%s**: %d finding(s) in %d workspace(s) (%s)\n",
			cs.Name, cs.Effects, len(cs.Workspaces), formatList(sortedKeys(cs.Rules), 5))
	}
	if len(cats) > 0 {
		b.WriteString("\n")
	}

	// --- Workspaces needing attention ---
	b.WriteString("## Workspaces Needing Attention\n\n")
	top := topWorkspaces(computeWorkspaceStats(s.results), topWorkspaceCount)
	if len(top) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| Workspace | Diagnostics | Fixable | Fixed |\n|---|---|---|---|\n")
		for _, ws := range top {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", escapeCell(ws.Label()), ws.Diagnostics, ws.Fixable, ws.Fixed)
		}
		b.WriteString("\n")
	}

	// --- Diagnostics ---
	b.WriteString("## Diagnostics\n\n")
	if len(diagnostics) == 0 {
		b.WriteString("None.\n\n")
	} else {
		byRule := groupByRule(diagnostics)
		for _, id := range sortedRuleIDs(byRule) {
			fmt.Fprintf(&b, "### %s\n\n", id)
			for _, e := range byRule[id] {
				fmt.Fprintf(&b, "- `%s`: %s\n", e.Workspace, e.Message)
			}
			b.WriteString("\n")
		}
	}

	// --- Staged changes ---
	b.WriteString("## Staged Changes\n\n")
	if len(staged) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| Workspace | Rule | Change | Status |\n|---|---|---|---|\n")
		for _, e := range staged {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escapeCell(e.Workspace), e.RuleID, escapeCell(e.Describe()), e.Status)
		}
		b.WriteString("\n")
	}
	if len(s.applied) > 0 {
		b.WriteString("Manifests written:\n\n")
		files := append([]string(nil), s.applied...)
		sort.Strings(files)
		for _, f := range files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}

	// --- Errors ---
	b.WriteString("## Errors\n\n")
	if len(errs) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, r := range errs {
			fmt.Fprintf(&b, "- **%s**: %s\n", r.RuleID, normalizeErrorReason(r.Message))
		}
		b.WriteString("\n")
	}

	// --- Rules evaluated ---
	b.WriteString("## Rules Evaluated\n\n")
	for _, r := range s.results {
		fmt.Fprintf(&b, "- %s: %s\n", r.RuleID, r.Status)
	}
	b.WriteString("\n")

	if s.command != "" {
		b.WriteString("## Reproduce\n\n")
		fmt.Fprintf(&b, "```sh\n%s\n```\n", s.command)
	}

	return b.String()
}

func groupByRule(effects []rules.Effect) map[string][]rules.Effect {
	out := make(map[string][]rules.Effect)
	for _, e := range effects {
		out[e.RuleID] = append(out[e.RuleID], e)
	}
	return out
}

func sortedRuleIDs(m map[string][]rules.Effect) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
