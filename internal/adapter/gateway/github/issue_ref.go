package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IssueRef identifies one issue as owner/repo#number
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

// String renders the canonical owner/repo#number form
func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// RepoSlug returns owner/repo
func (r IssueRef) RepoSlug() string {
	return r.Owner + "/" + r.Repo
}

var (
	shortRefPattern = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)#(\d+)$`)
	urlRefPattern   = regexp.MustCompile(`^https://github\.com/([\w.-]+)/([\w.-]+)/issues/(\d+)/?$`)
)

// ParseIssueRef accepts "owner/repo#42" or a full issue URL
func ParseIssueRef(s string) (IssueRef, error) {
	s = strings.TrimSpace(s)
	m := shortRefPattern.FindStringSubmatch(s)
	if m == nil {
		m = urlRefPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return IssueRef{}, fmt.Errorf("invalid issue reference %q (want owner/repo#number or an issue URL)", s)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil || n <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue number in %q", s)
	}
	return IssueRef{Owner: m[1], Repo: m[2], Number: n}, nil
}
