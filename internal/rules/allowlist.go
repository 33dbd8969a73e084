package rules

import (
	"path"
	"strings"
)

// AllowList handles common allow-listing logic for rules.
// It supports allowing workspaces by cwd or package name, exactly or by glob pattern.
type AllowList struct {
	Workspaces map[string]bool
	Patterns   []string
}

// Options returns the standard configuration options for allow-listing.
func (a *AllowList) Options() []Option {
	return []Option{
		{
			Name:        "allow.workspaces",
			Description: "Comma-separated list of allowed workspaces (cwd such as packages/legacy, or package name).",
		},
		{
			Name:        "allow.patterns",
			Description: "Comma-separated list of wildcard patterns matched against workspace cwd and package name (e.g. examples/*, @acme/internal-*).",
		},
	}
}

// Configure parses the configuration options to populate the AllowList.
func (a *AllowList) Configure(opts map[string]string) {
	a.Workspaces = make(map[string]bool)
	a.Patterns = nil

	for _, s := range SplitList(opts["allow.workspaces"]) {
		a.Workspaces[s] = true
	}
	a.Patterns = append(a.Patterns, SplitList(opts["allow.patterns"])...)
}

// IsAllowed checks whether the workspace identified by cwd/ident is allowed.
// It returns true and a reason string if allowed, otherwise false and empty string.
func (a *AllowList) IsAllowed(cwd, ident string) (bool, string) {
	if a.Workspaces[cwd] || (ident != "" && a.Workspaces[ident]) {
		return true, "allow.workspaces"
	}

	for _, pattern := range a.Patterns {
		if matched, _ := path.Match(pattern, cwd); matched {
			return true, "allow.patterns"
		}
		if ident == "" {
			continue
		}
		if matched, _ := path.Match(pattern, ident); matched {
			return true, "allow.patterns"
		}
	}

	return false, ""
}

// Filter drops the effects that target allowed workspaces.
func (a *AllowList) Filter(effects []Effect) []Effect {
	if len(a.Workspaces) == 0 && len(a.Patterns) == 0 {
		return effects
	}
	out := effects[:0]
	for _, e := range effects {
		if allowed, _ := a.IsAllowed(e.Workspace, e.Ident); allowed {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SplitList splits a comma-separated option value, trimming blanks.
func SplitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitAssignments parses a comma-separated list of key=value pairs.
// Keys may not be empty; values may.
func SplitAssignments(val string) ([][2]string, bool) {
	var out [][2]string
	for _, s := range SplitList(val) {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, false
		}
		out = append(out, [2]string{k, strings.TrimSpace(v)})
	}
	return out, true
}
