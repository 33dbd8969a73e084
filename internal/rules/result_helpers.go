package rules

import (
	"fmt"

	"pkgmedic/internal/workspace"
)

// Rule IDs are backfilled by the engine, so helpers leave RuleID empty.

func Error(ws *workspace.Workspace, message string) Effect {
	return Effect{
		Kind:      KindError,
		Workspace: ws.Cwd,
		Ident:     ws.Ident,
		Message:   message,
	}
}

func Errorf(ws *workspace.Workspace, format string, args ...any) Effect {
	return Error(ws, fmt.Sprintf(format, args...))
}

func DependencyError(dep *workspace.Dependency, message string) Effect {
	e := Error(dep.Workspace, message)
	e.Dependency = dep.Ident
	e.DependencyType = dep.Type
	e.Path = dep.Path()
	return e
}

func SetField(ws *workspace.Workspace, path []string, value any) Effect {
	e := Effect{
		Kind:      KindSetField,
		Workspace: ws.Cwd,
		Ident:     ws.Ident,
		Path:      append([]string(nil), path...),
		Value:     value,
	}
	if cur, ok := ws.Get(path...); ok {
		e.Current = cur
	}
	return e
}

func UnsetField(ws *workspace.Workspace, path []string) Effect {
	e := Effect{
		Kind:      KindUnsetField,
		Workspace: ws.Cwd,
		Ident:     ws.Ident,
		Path:      append([]string(nil), path...),
	}
	if cur, ok := ws.Get(path...); ok {
		e.Current = cur
	}
	return e
}

func UpdateRange(dep *workspace.Dependency, rng string) Effect {
	return Effect{
		Kind:           KindUpdateRange,
		Workspace:      dep.Workspace.Cwd,
		Ident:          dep.Workspace.Ident,
		Dependency:     dep.Ident,
		DependencyType: dep.Type,
		Path:           dep.Path(),
		Value:          rng,
		Current:        dep.Range,
	}
}

func DeleteDependency(dep *workspace.Dependency) Effect {
	return Effect{
		Kind:           KindDeleteDependency,
		Workspace:      dep.Workspace.Cwd,
		Ident:          dep.Workspace.Ident,
		Dependency:     dep.Ident,
		DependencyType: dep.Type,
		Path:           dep.Path(),
		Current:        dep.Range,
	}
}
