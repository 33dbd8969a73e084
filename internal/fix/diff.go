package fix

import (
	"fmt"
	"path"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders the change as a unified diff with three lines of context.
func Diff(c *Change) (string, error) {
	name := path.Join(c.Workspace().Cwd, "package.json")
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(c.Before)),
		B:        difflib.SplitLines(string(c.After)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "", fmt.Errorf("diffing %s: %w", name, err)
	}
	return out, nil
}
