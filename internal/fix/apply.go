package fix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"pkgmedic/internal/workspace"
)

const defaultIndent = "  "

// Change is a manifest rewritten by a patch.
type Change struct {
	Patch  *ManifestPatch
	Before []byte
	After  []byte
}

// Workspace returns the workspace the change belongs to.
func (c *Change) Workspace() *workspace.Workspace {
	return c.Patch.Workspace
}

// Apply runs the patch against the manifest bytes captured in the snapshot.
// Untouched keys keep their order and the manifest's indentation is reused.
func Apply(p *ManifestPatch) (*Change, error) {
	ws := p.Workspace
	doc, err := p.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding patch for %s: %w", ws.Cwd, err)
	}
	patch, err := jsonpatch.DecodePatch(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding patch for %s: %w", ws.Cwd, err)
	}

	opts := jsonpatch.NewApplyOptions()
	opts.EnsurePathExistsOnAdd = true
	opts.AllowMissingPathOnRemove = true
	opts.EscapeHTML = false

	compact, err := patch.ApplyWithOptions(ws.Raw, opts)
	if err != nil {
		return nil, fmt.Errorf("patching %s: %w", ws.ManifestPath, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", DetectIndent(ws.Raw)); err != nil {
		return nil, fmt.Errorf("formatting %s: %w", ws.ManifestPath, err)
	}
	buf.WriteByte('\n')

	return &Change{Patch: p, Before: ws.Raw, After: buf.Bytes()}, nil
}

// ApplyAll applies every patch, stopping at the first failure.
func ApplyAll(patches []*ManifestPatch) ([]*Change, error) {
	changes := make([]*Change, 0, len(patches))
	for _, p := range patches {
		c, err := Apply(p)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// DetectIndent returns the whitespace used before the first indented line,
// or two spaces when the document is not indented.
func DetectIndent(raw []byte) string {
	lines := bytes.Split(raw, []byte("\n"))
	for _, line := range lines[min(1, len(lines)):] {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == 0 || len(trimmed) == len(line) {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return defaultIndent
}

// Write commits the rewritten manifest to disk, keeping the file mode.
func Write(c *Change) error {
	path := c.Workspace().ManifestPath
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, c.After, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
