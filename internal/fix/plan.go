package fix

import (
	"encoding/json"
	"fmt"
	"strings"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/workspace"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string
	Path  string
	Value any
}

// MarshalJSON omits value for remove operations only; add always carries
// one, even when it is false or null.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.Op == OpRemove {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	return json.Marshal(struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Value any    `json:"value"`
	}{o.Op, o.Path, o.Value})
}

// ManifestPatch is the set of operations staged for one workspace manifest.
type ManifestPatch struct {
	Workspace  *workspace.Workspace
	Operations []Operation
	Effects    []rules.Effect
}

// JSON encodes the operations as a JSON Patch document.
func (p *ManifestPatch) JSON() ([]byte, error) {
	return json.Marshal(p.Operations)
}

// Pointer renders path segments as an RFC 6901 JSON pointer.
func Pointer(path []string) string {
	var b strings.Builder
	for _, seg := range path {
		b.WriteByte('/')
		b.WriteString(escaper.Replace(seg))
	}
	return b.String()
}

var escaper = strings.NewReplacer("~", "~0", "/", "~1")

// Plan groups change effects by workspace, in project order. Diagnostics are
// ignored. An effect naming a workspace absent from the project is an error.
func Plan(p *workspace.Project, effects []rules.Effect) ([]*ManifestPatch, error) {
	byCwd := make(map[string]*ManifestPatch)
	for _, e := range effects {
		if !e.Kind.IsChange() {
			continue
		}
		if len(e.Path) == 0 {
			return nil, fmt.Errorf("effect from %s on %s has no path", e.RuleID, e.Workspace)
		}
		mp, ok := byCwd[e.Workspace]
		if !ok {
			ws, found := p.Workspace(e.Workspace)
			if !found {
				return nil, fmt.Errorf("effect from %s targets unknown workspace %q", e.RuleID, e.Workspace)
			}
			mp = &ManifestPatch{Workspace: ws}
			byCwd[e.Workspace] = mp
		}

		op := Operation{Op: OpAdd, Path: Pointer(e.Path), Value: e.Value}
		if e.Kind.Removes() {
			op = Operation{Op: OpRemove, Path: Pointer(e.Path)}
		}
		mp.Operations = append(mp.Operations, op)
		mp.Effects = append(mp.Effects, e)
	}

	var out []*ManifestPatch
	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		if mp, ok := byCwd[ws.Cwd]; ok {
			out = append(out, mp)
		}
	}
	return out, nil
}
