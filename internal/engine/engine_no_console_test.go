package engine

import (
	"strings"
	"testing"

	"pkgmedic/internal/config"
	"pkgmedic/internal/testutil"
)

func TestEngine_Run_NoConsole(t *testing.T) {
	p := testutil.Project(t, map[string]string{
		".":   `{"name":"root"}`,
		"app": `{"version":"1.0.0"}`,
	})

	cfg := config.New()
	cfg.Rules.Selector = "required-fields"
	cfg.Output.NoConsole = true

	_, stdout, stderr := runEngine(t, staticLoader{project: p}, cfg)
	if strings.TrimSpace(stdout+stderr) != "" {
		t.Errorf("expected no console output when NoConsole is true; got:\n%s%s", stdout, stderr)
	}
}

func TestEngine_Run_Console_Default(t *testing.T) {
	p := testutil.Project(t, map[string]string{
		".":   `{"name":"root"}`,
		"app": `{"version":"1.0.0"}`,
	})

	cfg := config.New()
	cfg.Rules.Selector = "required-fields"

	_, stdout, stderr := runEngine(t, staticLoader{project: p}, cfg)
	if !strings.Contains(stderr, "Loading project...") {
		t.Errorf("expected progress on stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "required-fields") || !strings.Contains(stdout, `missing required field "name"`) {
		t.Errorf("expected rule output on stdout, got %q", stdout)
	}
}
