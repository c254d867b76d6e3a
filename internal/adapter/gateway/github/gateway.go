package github

import (
	"context"
	"errors"
	"time"
)

// ErrIssueClosed is returned when intake targets an issue that is no
// longer open. Closed issues are never worked on.
var ErrIssueClosed = errors.New("issue is closed")

// Issue is the subset of issue data the workflow consumes
type Issue struct {
	Ref       IssueRef  `json:"ref"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"` // open or closed
	Labels    []string  `json:"labels,omitempty"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the issue can be worked on
func (i *Issue) IsOpen() bool { return i.State == "open" }

// PullRequestParams describes the PR to open
type PullRequestParams struct {
	Title string
	Body  string
	Head  string // source branch
	Base  string // target branch, empty means repository default
	Draft bool
}

// PullRequest is the subset of PR data the workflow consumes
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	State  string `json:"state"`
	Title  string `json:"title"`
	Merged bool   `json:"merged"`
}

// Comment is one conversation comment on a pull request
type Comment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Gateway talks to GitHub for issue intake and PR publication
type Gateway interface {
	FetchIssue(ctx context.Context, ref IssueRef) (*Issue, error)
	ListIssues(ctx context.Context, repo IssueRef, labels []string, limit int) ([]*Issue, error)
	CreatePullRequest(ctx context.Context, repo IssueRef, params PullRequestParams) (*PullRequest, error)
	PullRequestStatus(ctx context.Context, repo IssueRef, number int) (*PullRequest, error)
	PullRequestComments(ctx context.Context, repo IssueRef, number int) ([]Comment, error)
}

// FallbackGateway tries the primary gateway (gh CLI) and falls back to
// the secondary (REST API) when the primary is unavailable. A definite
// answer from the primary, including an error about the issue itself,
// is never retried against the secondary.
type FallbackGateway struct {
	primary   Gateway
	secondary Gateway
}

// NewFallbackGateway composes primary and secondary gateways
func NewFallbackGateway(primary, secondary Gateway) *FallbackGateway {
	return &FallbackGateway{primary: primary, secondary: secondary}
}

// ErrUnavailable marks a gateway that cannot serve requests at all
// (binary missing, no credentials), as opposed to a request that
// failed on its merits.
var ErrUnavailable = errors.New("github gateway unavailable")

func (g *FallbackGateway) FetchIssue(ctx context.Context, ref IssueRef) (*Issue, error) {
	issue, err := g.primary.FetchIssue(ctx, ref)
	if errors.Is(err, ErrUnavailable) && g.secondary != nil {
		return g.secondary.FetchIssue(ctx, ref)
	}
	return issue, err
}

func (g *FallbackGateway) ListIssues(ctx context.Context, repo IssueRef, labels []string, limit int) ([]*Issue, error) {
	issues, err := g.primary.ListIssues(ctx, repo, labels, limit)
	if errors.Is(err, ErrUnavailable) && g.secondary != nil {
		return g.secondary.ListIssues(ctx, repo, labels, limit)
	}
	return issues, err
}

func (g *FallbackGateway) PullRequestComments(ctx context.Context, repo IssueRef, number int) ([]Comment, error) {
	comments, err := g.primary.PullRequestComments(ctx, repo, number)
	if errors.Is(err, ErrUnavailable) && g.secondary != nil {
		return g.secondary.PullRequestComments(ctx, repo, number)
	}
	return comments, err
}

func (g *FallbackGateway) CreatePullRequest(ctx context.Context, repo IssueRef, params PullRequestParams) (*PullRequest, error) {
	pr, err := g.primary.CreatePullRequest(ctx, repo, params)
	if errors.Is(err, ErrUnavailable) && g.secondary != nil {
		return g.secondary.CreatePullRequest(ctx, repo, params)
	}
	return pr, err
}

func (g *FallbackGateway) PullRequestStatus(ctx context.Context, repo IssueRef, number int) (*PullRequest, error) {
	pr, err := g.primary.PullRequestStatus(ctx, repo, number)
	if errors.Is(err, ErrUnavailable) && g.secondary != nil {
		return g.secondary.PullRequestStatus(ctx, repo, number)
	}
	return pr, err
}
