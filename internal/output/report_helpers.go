package output

import (
	"sort"
	"strings"

	"pkgmedic/internal/rules"
)

// Categories
const (
	CategoryManifestFields   = "Manifest fields are missing or drift from policy"
	CategoryDependencyRanges = "Dependency ranges drift between workspaces or from policy"
	CategoryForbidden        = "Forbidden dependencies are declared"
	CategoryInstalled        = "Installed versions do not satisfy declared ranges"
	CategoryStaging          = "Rules staged conflicting corrections"
	CategoryOther            = "Other"
)

var ruleCategories = map[string]string{
	"required-fields":  CategoryManifestFields,
	"required-scripts": CategoryManifestFields,
	"field-values":     CategoryManifestFields,
	"banned-fields":    CategoryManifestFields,

	"dependency-ranges":       CategoryDependencyRanges,
	"consistent-dependencies": CategoryDependencyRanges,
	"workspace-protocol":      CategoryDependencyRanges,

	"forbidden-dependencies": CategoryForbidden,

	"resolved-satisfies-range": CategoryInstalled,

	"staging-conflict": CategoryStaging,
}

var categoryPriority = map[string]int{
	CategoryStaging:          1,
	CategoryForbidden:        2,
	CategoryInstalled:        3,
	CategoryDependencyRanges: 4,
	CategoryManifestFields:   5,
}

func getCategory(ruleID string) string {
	if cat, ok := ruleCategories[ruleID]; ok {
		return cat
	}
	return CategoryOther
}

func getPriority(category string) int {
	if p, ok := categoryPriority[category]; ok {
		return p
	}
	return 999
}

// normalizeErrorReason collapses whitespace and truncates long messages.
func normalizeErrorReason(errText string) string {
	s := strings.Join(strings.Fields(errText), " ")
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}

// escapeCell keeps table cells on one line and pipe-free.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

type workspaceStats struct {
	Workspace   string
	Ident       string
	Diagnostics int
	Fixable     int
	Fixed       int
}

func (w *workspaceStats) Total() int {
	return w.Diagnostics + w.Fixable + w.Fixed
}

func (w *workspaceStats) Label() string {
	if w.Ident == "" {
		return w.Workspace
	}
	return w.Workspace + " (" + w.Ident + ")"
}

func computeWorkspaceStats(results []rules.Result) map[string]*workspaceStats {
	out := make(map[string]*workspaceStats)
	for _, r := range results {
		for _, e := range r.Effects {
			ws, ok := out[e.Workspace]
			if !ok {
				ws = &workspaceStats{Workspace: e.Workspace, Ident: e.Ident}
				out[e.Workspace] = ws
			}
			switch e.Status {
			case rules.StatusFail:
				ws.Diagnostics++
			case rules.StatusFixable:
				ws.Fixable++
			case rules.StatusFixed:
				ws.Fixed++
			}
		}
	}
	return out
}

// topWorkspaces orders workspaces by open issues (diagnostics, then fixable)
// and returns at most n of them.
func topWorkspaces(stats map[string]*workspaceStats, n int) []*workspaceStats {
	var list []*workspaceStats
	for _, ws := range stats {
		if ws.Diagnostics+ws.Fixable > 0 {
			list = append(list, ws)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Diagnostics != b.Diagnostics {
			return a.Diagnostics > b.Diagnostics
		}
		if a.Fixable != b.Fixable {
			return a.Fixable > b.Fixable
		}
		return a.Workspace < b.Workspace
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

type categoryStats struct {
	Name       string
	Effects    int
	Workspaces map[string]struct{}
	Rules      map[string]struct{}
}

func computeCategoryStats(results []rules.Result) []*categoryStats {
	byName := make(map[string]*categoryStats)
	for _, r := range results {
		for _, e := range r.Effects {
			if e.Status != rules.StatusFail && e.Status != rules.StatusFixable {
				continue
			}
			name := getCategory(e.RuleID)
			cs, ok := byName[name]
			if !ok {
				cs = &categoryStats{Name: name, Workspaces: map[string]struct{}{}, Rules: map[string]struct{}{}}
				byName[name] = cs
			}
			cs.Effects++
			cs.Workspaces[e.Workspace] = struct{}{}
			cs.Rules[e.RuleID] = struct{}{}
		}
	}

	list := make([]*categoryStats, 0, len(byName))
	for _, cs := range byName {
		list = append(list, cs)
	}
	sort.Slice(list, func(i, j int) bool {
		pi, pj := getPriority(list[i].Name), getPriority(list[j].Name)
		if pi != pj {
			return pi < pj
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func formatList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + ", ..."
}
