// Package workspace models a read-only snapshot of a multi-package project:
// the workspaces it contains, their manifests and their declared dependencies.
//
// A Project is built once per evaluation run by a loader (see package source)
// and is never mutated afterwards. Rules read it through the Workspaces and
// Dependencies accessors and describe corrections as effects instead of
// editing manifests in place.
package workspace
