// Package fix turns staged change effects into JSON Patch documents, applies
// them to manifests without disturbing key order, and renders or writes the
// result.
package fix
