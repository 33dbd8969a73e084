package github

import (
	"fmt"
	"strings"
)

// RepoRef names a repository and an optional ref (branch, tag or sha).
type RepoRef struct {
	Owner string
	Repo  string
	Ref   string
}

func (r RepoRef) String() string {
	s := r.Owner + "/" + r.Repo
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// ParseRepoRef parses OWNER/REPO[@REF]. The ref may contain slashes.
func ParseRepoRef(s string) (RepoRef, error) {
	s = strings.TrimSpace(s)
	name, ref, _ := strings.Cut(s, "@")
	owner, repo, ok := strings.Cut(name, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return RepoRef{}, fmt.Errorf("invalid repository %q: expected OWNER/REPO[@REF]", s)
	}
	return RepoRef{Owner: owner, Repo: repo, Ref: ref}, nil
}
