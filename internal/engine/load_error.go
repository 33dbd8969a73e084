package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
)

// presentLoadError renders a snapshot load failure for the console. GitHub
// API errors are reduced to status and message so request URLs are not
// printed unless verbose is set.
func presentLoadError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}
	full := err.Error()
	if verbose {
		return full
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			code := er.Response.StatusCode
			hint := ""
			switch code {
			case http.StatusNotFound:
				hint = " (check the repository name and that the token can read it)"
			case http.StatusUnauthorized, http.StatusForbidden:
				hint = " (check GITHUB_TOKEN or gh auth status)"
			}
			return fmt.Sprintf("GitHub API request failed (%d %s): %s%s", code, http.StatusText(code), msg, hint)
		}
		return fmt.Sprintf("GitHub API request failed: %s", msg)
	}

	if scrubbed := scrubGitHubRequest(full); scrubbed != "" {
		return scrubbed
	}
	return full
}

// scrubGitHubRequest drops the "GET https://...: " prefix go-github puts on
// errors, keeping any wrapping context before it.
func scrubGitHubRequest(s string) string {
	for _, m := range []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE "} {
		i := strings.Index(s, m+"https://")
		if i < 0 {
			continue
		}
		rest := s[i+len(m):]
		j := strings.Index(rest, ": ")
		if j < 0 {
			return ""
		}
		return s[:i] + strings.TrimSpace(rest[j+2:])
	}
	return ""
}
