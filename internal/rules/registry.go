package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Rule)
	mu       sync.RWMutex
)

func Register(r Rule) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[r.ID()]; exists {
		panic(fmt.Sprintf("rule %s already registered", r.ID()))
	}
	// Wrap the rule with AllowListWrapper to provide automatic allowlist support
	registry[r.ID()] = &AllowListWrapper{Rule: r}
}

func List() []Rule {
	mu.RLock()
	defer mu.RUnlock()
	return listLocked()
}

func listLocked() []Rule {
	var rules []Rule
	for _, r := range registry {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID() < rules[j].ID()
	})
	return rules
}

// Resolve selects rules by a comma-separated list of IDs, keeping the
// selector's order. An empty selector selects every rule.
func Resolve(selector string) ([]Rule, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return listLocked(), nil
	}

	seen := make(map[string]bool)
	var selected []Rule
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		r, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		seen[id] = true
		selected = append(selected, r)
	}
	return selected, nil
}
