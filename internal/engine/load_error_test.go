package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"
)

func TestPresentLoadError_GitHubNotFound_AddsHint(t *testing.T) {
	err := fmt.Errorf("loading project: %w", &github.ErrorResponse{
		Response: &http.Response{StatusCode: 404, Status: "404 Not Found"},
		Message:  "Not Found",
	})

	got := presentLoadError(err, false)
	if !strings.HasPrefix(got, "GitHub API request failed (404 Not Found): Not Found") {
		t.Fatalf("unexpected message %q", got)
	}
	if !strings.Contains(got, "check the repository name") {
		t.Fatalf("expected hint, got %q", got)
	}
}

func TestPresentLoadError_Verbose_KeepsFullError(t *testing.T) {
	err := errors.New("GET https://api.github.com/repos/acme/mono: 500 boom []")
	if got := presentLoadError(err, true); got != err.Error() {
		t.Fatalf("expected full error, got %q", got)
	}
}

func TestPresentLoadError_PlainError(t *testing.T) {
	err := errors.New("reading package.json: no such file or directory")
	if got := presentLoadError(err, false); got != err.Error() {
		t.Fatalf("expected unchanged error, got %q", got)
	}
}

func TestScrubGitHubRequest_StripsURLPrefix(t *testing.T) {
	s := "loading project: GET https://api.github.com/repos/acme/mono/git/trees/main: 403 some message []"
	want := "loading project: 403 some message []"
	if got := scrubGitHubRequest(s); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := scrubGitHubRequest("no request here"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
