package fix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkgmedic/internal/rules"
	"pkgmedic/internal/testutil"
	"pkgmedic/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `{
    "name": "app",
    "version": "1.0.0",
    "scripts": {
        "build": "tsc && echo <done>"
    },
    "dependencies": {
        "expo": "49.0.0",
        "left-pad": "1.3.0"
    },
    "license": "ISC"
}
`

func TestApply_PreservesOrderAndIndent(t *testing.T) {
	project := testutil.Project(t, map[string]string{".": manifest})
	ws, _ := project.Workspace(".")
	expo := ws.Dependencies[0]
	leftPad := ws.Dependencies[1]

	patches, err := Plan(project, []rules.Effect{
		rules.UpdateRange(expo, "~50.0.0"),
		rules.DeleteDependency(leftPad),
		rules.SetField(ws, []string{"license"}, "MIT"),
		rules.SetField(ws, []string{"engines", "node"}, ">=18"),
		rules.UnsetField(ws, []string{"missing"}),
	})
	require.NoError(t, err)
	require.Len(t, patches, 1)

	change, err := Apply(patches[0])
	require.NoError(t, err)

	want := `{
    "name": "app",
    "version": "1.0.0",
    "scripts": {
        "build": "tsc && echo <done>"
    },
    "dependencies": {
        "expo": "~50.0.0"
    },
    "license": "MIT",
    "engines": {
        "node": ">=18"
    }
}
`
	assert.Equal(t, want, string(change.After))
	assert.Equal(t, manifest, string(change.Before))
}

func TestApply_ReloadIsClean(t *testing.T) {
	project := testutil.Project(t, map[string]string{".": manifest})
	ws, _ := project.Workspace(".")

	patches, err := Plan(project, []rules.Effect{rules.UpdateRange(ws.Dependencies[0], "~50.0.0")})
	require.NoError(t, err)
	change, err := Apply(patches[0])
	require.NoError(t, err)

	reloaded, err := workspace.NewWorkspace(".", "package.json", change.After)
	require.NoError(t, err)
	assert.Equal(t, "~50.0.0", reloaded.Dependencies[0].Range)
}

func TestDetectIndent(t *testing.T) {
	assert.Equal(t, "    ", DetectIndent([]byte(manifest)))
	assert.Equal(t, "\t", DetectIndent([]byte("{\n\t\"a\": 1\n}")))
	assert.Equal(t, "  ", DetectIndent([]byte(`{"a":1}`)))
	assert.Equal(t, "  ", DetectIndent(nil))
}

func TestWrite(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{"package.json": manifest})
	path := filepath.Join(dir, "package.json")

	ws, err := workspace.NewWorkspace(".", path, []byte(manifest))
	require.NoError(t, err)
	project, err := workspace.NewProject(dir, []*workspace.Workspace{ws})
	require.NoError(t, err)

	patches, err := Plan(project, []rules.Effect{rules.SetField(ws, []string{"private"}, true)})
	require.NoError(t, err)
	changes, err := ApplyAll(patches)
	require.NoError(t, err)
	require.NoError(t, Write(changes[0]))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(got), "    \"private\": true\n}\n"))
}

func TestDiff(t *testing.T) {
	project := testutil.Project(t, map[string]string{"packages/app": manifest})
	ws, _ := project.Workspace("packages/app")

	patches, err := Plan(project, []rules.Effect{rules.UpdateRange(ws.Dependencies[0], "~50.0.0")})
	require.NoError(t, err)
	change, err := Apply(patches[0])
	require.NoError(t, err)

	out, err := Diff(change)
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/packages/app/package.json")
	assert.Contains(t, out, "+++ b/packages/app/package.json")
	assert.Contains(t, out, `-        "expo": "49.0.0",`)
	assert.Contains(t, out, `+        "expo": "~50.0.0",`)
}
