package workspace

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DependencyType names the manifest section a dependency is declared in.
type DependencyType string

const (
	Dependencies         DependencyType = "dependencies"
	DevDependencies      DependencyType = "devDependencies"
	PeerDependencies     DependencyType = "peerDependencies"
	OptionalDependencies DependencyType = "optionalDependencies"
)

// DependencyTypes lists the dependency sections in enumeration order.
var DependencyTypes = []DependencyType{
	Dependencies,
	DevDependencies,
	PeerDependencies,
	OptionalDependencies,
}

// RootCwd is the Cwd of the project's root workspace.
const RootCwd = "."

// Workspace is one package of the project.
type Workspace struct {
	// Cwd is the slash-separated path of the workspace relative to the
	// project root ("." for the root workspace).
	Cwd string

	// Ident is the package name declared in the manifest (may be empty).
	Ident string

	// ManifestPath locates the manifest for the commit step. It is a filesystem
	// path for local projects and a repository path for remote ones.
	ManifestPath string

	// Manifest is the decoded manifest document.
	Manifest map[string]any

	// Raw holds the manifest bytes as loaded.
	Raw []byte

	Dependencies []*Dependency
}

// Dependency is a single dependency declaration of a workspace.
type Dependency struct {
	Workspace *Workspace
	Ident     string
	Range     string
	Type      DependencyType

	// Resolved is the installed version, when the loader could determine it.
	Resolved string
}

// Path returns the manifest path of the dependency declaration.
func (d *Dependency) Path() []string {
	return []string{string(d.Type), d.Ident}
}

func (d *Dependency) String() string {
	return fmt.Sprintf("%s@%s (%s)", d.Ident, d.Range, d.Type)
}

// NewWorkspace decodes a manifest and extracts its dependency declarations.
// Non-string ranges are ignored.
func NewWorkspace(cwd, manifestPath string, raw []byte) (*Workspace, error) {
	var manifest map[string]any
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", manifestPath, err)
	}
	if manifest == nil {
		return nil, fmt.Errorf("parsing manifest %s: expected a JSON object", manifestPath)
	}

	ws := &Workspace{
		Cwd:          cwd,
		ManifestPath: manifestPath,
		Manifest:     manifest,
		Raw:          raw,
	}
	if name, ok := manifest["name"].(string); ok {
		ws.Ident = name
	}

	for _, typ := range DependencyTypes {
		section, ok := manifest[string(typ)].(map[string]any)
		if !ok {
			continue
		}
		idents := make([]string, 0, len(section))
		for ident := range section {
			idents = append(idents, ident)
		}
		sort.Strings(idents)
		for _, ident := range idents {
			rng, ok := section[ident].(string)
			if !ok {
				continue
			}
			ws.Dependencies = append(ws.Dependencies, &Dependency{
				Workspace: ws,
				Ident:     ident,
				Range:     rng,
				Type:      typ,
			})
		}
	}

	return ws, nil
}

// Get returns the manifest value at path. An empty path returns the whole manifest.
func (w *Workspace) Get(path ...string) (any, bool) {
	if w == nil {
		return nil, false
	}
	var cur any = w.Manifest
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether the manifest defines path.
func (w *Workspace) Has(path ...string) bool {
	_, ok := w.Get(path...)
	return ok
}

// Label is the display form used in diagnostics: the cwd, followed by the
// package name when one is declared.
func (w *Workspace) Label() string {
	if w.Ident == "" {
		return w.Cwd
	}
	return fmt.Sprintf("%s (%s)", w.Cwd, w.Ident)
}
