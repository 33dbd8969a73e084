package workspace

import (
	"fmt"
	"sort"
)

// WorkspaceFilter selects workspaces. Zero-valued fields match anything.
type WorkspaceFilter struct {
	Cwd   string
	Ident string
}

func (f WorkspaceFilter) matches(w *Workspace) bool {
	if f.Cwd != "" && f.Cwd != w.Cwd {
		return false
	}
	if f.Ident != "" && f.Ident != w.Ident {
		return false
	}
	return true
}

// DependencyFilter selects dependencies. Zero-valued fields match anything.
type DependencyFilter struct {
	Ident     string
	Type      DependencyType
	Workspace string
}

func (f DependencyFilter) matches(d *Dependency) bool {
	if f.Ident != "" && f.Ident != d.Ident {
		return false
	}
	if f.Type != "" && f.Type != d.Type {
		return false
	}
	if f.Workspace != "" && f.Workspace != d.Workspace.Cwd {
		return false
	}
	return true
}

// Project is an immutable snapshot of every workspace in a project.
type Project struct {
	// Root labels where the snapshot came from (a directory or OWNER/REPO@REF).
	Root string

	// ReadOnly marks snapshots whose manifests cannot be written back.
	ReadOnly bool

	workspaces []*Workspace
	byCwd      map[string]*Workspace
}

// NewProject orders workspaces (root first, then by cwd) and indexes them.
// Duplicate cwds are rejected.
func NewProject(root string, workspaces []*Workspace) (*Project, error) {
	p := &Project{
		Root:       root,
		workspaces: make([]*Workspace, 0, len(workspaces)),
		byCwd:      make(map[string]*Workspace, len(workspaces)),
	}
	for _, w := range workspaces {
		if w == nil {
			continue
		}
		if _, exists := p.byCwd[w.Cwd]; exists {
			return nil, fmt.Errorf("duplicate workspace %q", w.Cwd)
		}
		p.byCwd[w.Cwd] = w
		p.workspaces = append(p.workspaces, w)
	}
	sort.SliceStable(p.workspaces, func(i, j int) bool {
		a, b := p.workspaces[i].Cwd, p.workspaces[j].Cwd
		if a == RootCwd || b == RootCwd {
			return a == RootCwd && b != RootCwd
		}
		return a < b
	})
	return p, nil
}

// Workspaces returns the workspaces matching f in project order.
func (p *Project) Workspaces(f WorkspaceFilter) []*Workspace {
	if p == nil {
		return nil
	}
	var out []*Workspace
	for _, w := range p.workspaces {
		if f.matches(w) {
			out = append(out, w)
		}
	}
	return out
}

// Dependencies returns the dependencies matching f, enumerated by workspace,
// then dependency type, then ident.
func (p *Project) Dependencies(f DependencyFilter) []*Dependency {
	if p == nil {
		return nil
	}
	var out []*Dependency
	for _, w := range p.workspaces {
		if f.Workspace != "" && f.Workspace != w.Cwd {
			continue
		}
		for _, d := range w.Dependencies {
			if f.matches(d) {
				out = append(out, d)
			}
		}
	}
	return out
}

// Workspace returns the workspace at cwd.
func (p *Project) Workspace(cwd string) (*Workspace, bool) {
	if p == nil {
		return nil, false
	}
	w, ok := p.byCwd[cwd]
	return w, ok
}

// WorkspaceByIdent returns the first workspace declaring ident as its name.
func (p *Project) WorkspaceByIdent(ident string) (*Workspace, bool) {
	if p == nil || ident == "" {
		return nil, false
	}
	for _, w := range p.workspaces {
		if w.Ident == ident {
			return w, true
		}
	}
	return nil, false
}

// Len returns the number of workspaces.
func (p *Project) Len() int {
	if p == nil {
		return 0
	}
	return len(p.workspaces)
}
