package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// AuthTokenSource records where a token came from. It is safe to log.
type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceEnvGH    AuthTokenSource = "env:GH_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

const ghCLITimeout = 5 * time.Second

// tokenLookup returns a token, or "" when its source has none.
type tokenLookup func(ctx context.Context) (string, error)

type tokenProvider struct {
	source AuthTokenSource
	lookup tokenLookup
}

func envLookup(name string) tokenLookup {
	return func(context.Context) (string, error) {
		return strings.TrimSpace(os.Getenv(name)), nil
	}
}

// tokenProviders lists the sources tried after an explicit token, in order.
var tokenProviders = []tokenProvider{
	{source: AuthTokenSourceEnv, lookup: envLookup("GITHUB_TOKEN")},
	{source: AuthTokenSourceEnvGH, lookup: envLookup("GH_TOKEN")},
	{source: AuthTokenSourceGitHubCL, lookup: ghCLIToken},
}

// ResolveAuthToken picks the token used to read remote manifests: provided,
// then GITHUB_TOKEN, GH_TOKEN and finally `gh auth token`. An empty result
// is not an error since public repositories load unauthenticated.
func ResolveAuthToken(ctx context.Context, provided string) (string, AuthTokenSource, error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}
	for _, p := range tokenProviders {
		tok, err := p.lookup(ctx)
		if err != nil {
			return "", "", err
		}
		if tok != "" {
			return tok, p.source, nil
		}
	}
	return "", "", nil
}

// ghCLIToken asks an installed and logged in GitHub CLI for its token.
// A missing or logged out gh yields no token; gh's output is never surfaced.
func ghCLIToken(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ghCLITimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "token", "-h", "github.com")
	// Later entries win over inherited ones.
	cmd.Env = append(os.Environ(), "GH_PAGER=cat", "GH_PROMPT_DISABLED=1", "NO_COLOR=1")
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, nil
}
