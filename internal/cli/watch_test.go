package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkgmedic/internal/engine"
	"pkgmedic/internal/source"
	"pkgmedic/internal/testutil"
)

func TestCheckAndList(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"package.json":            `{"name":"root","workspaces":["packages/*"]}`,
		"packages/a/package.json": `{"name":"a"}`,
	})

	saved := *cfg
	t.Cleanup(func() { *cfg = saved })
	cfg.Source.Cwd = dir
	cfg.Rules.Selector = "required-fields"

	loader := source.NewLocalLoader(dir)
	eng := engine.NewEngine(loader, engine.WithStdout(io.Discard), engine.WithStderr(io.Discard))

	var status bytes.Buffer
	dirs := checkAndList(context.Background(), eng, loader, &status)
	assert.Equal(t, []string{dir, filepath.Join(dir, "packages", "a")}, dirs)
	assert.Contains(t, status.String(), "Check finished (exit code 0); watching 2 workspace(s).")

	// A new workspace shows up in the next listing.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "packages", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packages", "b", "package.json"), []byte(`{"version":"1.0.0"}`), 0644))
	cfg.Output.NoConsole = true
	status.Reset()
	dirs = checkAndList(context.Background(), eng, loader, &status)
	assert.Len(t, dirs, 3)
	assert.Empty(t, status.String())

	require.NoError(t, os.Remove(filepath.Join(dir, "package.json")))
	assert.Nil(t, checkAndList(context.Background(), eng, loader, &status))
}
