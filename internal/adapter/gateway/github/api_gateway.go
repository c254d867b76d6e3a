package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// APIGateway talks to the GitHub REST API directly. It serves as the
// fallback when the gh CLI is missing or unauthenticated; it needs a
// token with repo scope.
type APIGateway struct {
	issues *gh.IssuesService
	pulls  *gh.PullRequestsService
}

// NewAPIGateway creates a REST gateway authenticated with token
func NewAPIGateway(ctx context.Context, token string) (*APIGateway, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no GitHub token configured", ErrUnavailable)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))
	return &APIGateway{issues: client.Issues, pulls: client.PullRequests}, nil
}

// FetchIssue reads the issue via the REST API
func (g *APIGateway) FetchIssue(ctx context.Context, ref IssueRef) (*Issue, error) {
	raw, _, err := g.issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch issue %s: %w", ref, err)
	}

	issue := &Issue{
		Ref:   ref,
		Title: raw.GetTitle(),
		Body:  raw.GetBody(),
		State: strings.ToLower(raw.GetState()),
		URL:   raw.GetHTMLURL(),
	}
	if ts := raw.GetUpdatedAt(); !ts.IsZero() {
		issue.UpdatedAt = ts.Time
	}
	for _, l := range raw.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	return issue, nil
}

// ListIssues lists open issues via the REST API. Pull requests come
// back from the issues endpoint too and are filtered out.
func (g *APIGateway) ListIssues(ctx context.Context, repo IssueRef, labels []string, limit int) ([]*Issue, error) {
	if limit <= 0 {
		limit = 30
	}
	raw, _, err := g.issues.ListByRepo(ctx, repo.Owner, repo.Repo, &gh.IssueListByRepoOptions{
		State:       "open",
		Labels:      labels,
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("list issues for %s: %w", repo.RepoSlug(), err)
	}

	issues := make([]*Issue, 0, len(raw))
	for _, r := range raw {
		if r.IsPullRequest() {
			continue
		}
		issue := &Issue{
			Ref:   IssueRef{Owner: repo.Owner, Repo: repo.Repo, Number: r.GetNumber()},
			Title: r.GetTitle(),
			Body:  r.GetBody(),
			State: strings.ToLower(r.GetState()),
			URL:   r.GetHTMLURL(),
		}
		if ts := r.GetUpdatedAt(); !ts.IsZero() {
			issue.UpdatedAt = ts.Time
		}
		for _, l := range r.Labels {
			issue.Labels = append(issue.Labels, l.GetName())
		}
		issues = append(issues, issue)
		if len(issues) == limit {
			break
		}
	}
	return issues, nil
}

// PullRequestComments reads conversation comments via the REST API
func (g *APIGateway) PullRequestComments(ctx context.Context, repo IssueRef, number int) ([]Comment, error) {
	raw, _, err := g.issues.ListComments(ctx, repo.Owner, repo.Repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("list comments for %s#%d: %w", repo.RepoSlug(), number, err)
	}
	comments := make([]Comment, 0, len(raw))
	for _, c := range raw {
		comment := Comment{Author: c.GetUser().GetLogin(), Body: c.GetBody()}
		if ts := c.GetCreatedAt(); !ts.IsZero() {
			comment.CreatedAt = ts.Time
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// CreatePullRequest opens a PR via the REST API
func (g *APIGateway) CreatePullRequest(ctx context.Context, repo IssueRef, params PullRequestParams) (*PullRequest, error) {
	base := params.Base
	if base == "" {
		base = "main"
	}
	raw, _, err := g.pulls.Create(ctx, repo.Owner, repo.Repo, &gh.NewPullRequest{
		Title: gh.String(params.Title),
		Body:  gh.String(params.Body),
		Head:  gh.String(params.Head),
		Base:  gh.String(base),
		Draft: gh.Bool(params.Draft),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request for %s: %w", repo.RepoSlug(), err)
	}
	return &PullRequest{
		Number: raw.GetNumber(),
		URL:    raw.GetHTMLURL(),
		State:  strings.ToLower(raw.GetState()),
		Title:  raw.GetTitle(),
	}, nil
}

// PullRequestStatus reads PR state via the REST API
func (g *APIGateway) PullRequestStatus(ctx context.Context, repo IssueRef, number int) (*PullRequest, error) {
	raw, _, err := g.pulls.Get(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request %s#%d: %w", repo.RepoSlug(), number, err)
	}
	return &PullRequest{
		Number: raw.GetNumber(),
		URL:    raw.GetHTMLURL(),
		State:  strings.ToLower(raw.GetState()),
		Title:  raw.GetTitle(),
		Merged: raw.GetMerged(),
	}, nil
}
