package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"pkgmedic/internal/rules"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []rules.Result // For JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses ...string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) allowed(st rules.Status) bool {
	return len(s.allowedStatuses) == 0 || s.allowedStatuses[string(st)]
}

// resultAllowed keeps a result when its own status or any of its effect
// statuses passes the filter.
func (s *ConsoleSink) resultAllowed(r rules.Result) bool {
	if s.allowed(r.Status) {
		return true
	}
	for _, e := range r.Effects {
		if s.allowed(e.Status) {
			return true
		}
	}
	return false
}

func (s *ConsoleSink) writeLocked(v any) error {
	if r, ok := v.(rules.Result); ok && !s.resultAllowed(r) {
		return nil
	}

	switch s.format {
	case "json":
		r, ok := v.(rules.Result)
		if !ok {
			// Ignore non-result events in JSON console mode.
			return nil
		}
		s.results = append(s.results, r)
		return nil
	case "ndjson":
		return writeNDJSON(s.writer, v)
	case "text":
		switch t := v.(type) {
		case rules.Result:
			if err := writeResultText(s.writer, t, s.allowed); err != nil {
				return err
			}
		case Event:
			if t.Type != EventChangesApplied {
				return nil
			}
			if _, err := fmt.Fprintf(s.writer, "Applied %d change(s) to %d manifest(s).\n", t.Changes, len(t.Files)); err != nil {
				return err
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func statusTag(st rules.Status) string {
	tag := "[" + string(st) + "]"
	switch st {
	case rules.StatusPass, rules.StatusFixed:
		return color.GreenString(tag)
	case rules.StatusFail, rules.StatusError:
		return color.RedString(tag)
	case rules.StatusFixable:
		return color.YellowString(tag)
	default:
		return tag
	}
}

// writeResultText prints the rule line followed by one indented line per
// effect whose status passes the filter.
func writeResultText(w io.Writer, r rules.Result, allowed func(rules.Status) bool) error {
	line := fmt.Sprintf("%s %s", statusTag(r.Status), r.RuleID)
	if r.Message != "" {
		line += " - " + r.Message
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, e := range r.Effects {
		if !allowed(e.Status) {
			continue
		}
		target := e.Workspace
		if e.Ident != "" {
			target = fmt.Sprintf("%s (%s)", e.Workspace, e.Ident)
		}
		if _, err := fmt.Fprintf(w, "  %s %s: %s\n", statusTag(e.Status), target, e.Describe()); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		return writeJSONArray(s.writer, s.results)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
