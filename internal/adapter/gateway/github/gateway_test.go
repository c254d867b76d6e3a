package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/app"
)

func TestParseIssueRef(t *testing.T) {
	tests := []struct {
		input   string
		want    IssueRef
		wantErr bool
	}{
		{"owner/repo#42", IssueRef{"owner", "repo", 42}, false},
		{"  owner/repo#42  ", IssueRef{"owner", "repo", 42}, false},
		{"https://github.com/owner/repo/issues/42", IssueRef{"owner", "repo", 42}, false},
		{"https://github.com/owner/repo/issues/42/", IssueRef{"owner", "repo", 42}, false},
		{"my-org/my.repo#7", IssueRef{"my-org", "my.repo", 7}, false},
		{"owner/repo#0", IssueRef{}, true},
		{"owner/repo", IssueRef{}, true},
		{"#42", IssueRef{}, true},
		{"https://github.com/owner/repo/pull/42", IssueRef{}, true},
		{"", IssueRef{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIssueRef(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIssueRef_String(t *testing.T) {
	ref := IssueRef{"owner", "repo", 42}
	assert.Equal(t, "owner/repo#42", ref.String())
	assert.Equal(t, "owner/repo", ref.RepoSlug())
}

// cliRunnerStub replays scripted gh output keyed by joined arguments
type cliRunnerStub struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newCLIRunnerStub() *cliRunnerStub {
	return &cliRunnerStub{outputs: map[string]string{}, errs: map[string]error{}}
}

func (s *cliRunnerStub) Run(_ context.Context, args ...string) (string, error) {
	s.calls = append(s.calls, args)
	key := strings.Join(args, " ")
	return s.outputs[key], s.errs[key]
}

func TestCLIGateway_FetchIssue(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["issue view 42 --repo owner/repo --json number,title,body,state,url,labels,updatedAt"] = `{
		"number": 42,
		"title": "Crash on empty input",
		"body": "Steps to reproduce...",
		"state": "OPEN",
		"url": "https://github.com/owner/repo/issues/42",
		"labels": [{"name": "bug"}]
	}`
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	issue, err := g.FetchIssue(context.Background(), IssueRef{"owner", "repo", 42})
	require.NoError(t, err)
	assert.Equal(t, "Crash on empty input", issue.Title)
	assert.Equal(t, "open", issue.State)
	assert.True(t, issue.IsOpen())
	assert.Equal(t, []string{"bug"}, issue.Labels)
}

func TestCLIGateway_FetchIssueClosed(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["issue view 9 --repo o/r --json number,title,body,state,url,labels,updatedAt"] = `{"number":9,"state":"CLOSED"}`
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	issue, err := g.FetchIssue(context.Background(), IssueRef{"o", "r", 9})
	require.NoError(t, err)
	assert.False(t, issue.IsOpen())
}

func TestCLIGateway_CreatePullRequest(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["pr create --repo owner/repo --title fix: crash --body Fixes #42 --head fix/issue-42"] =
		"Creating pull request for fix/issue-42 into main in owner/repo\n\nhttps://github.com/owner/repo/pull/97\n"
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	pr, err := g.CreatePullRequest(context.Background(), IssueRef{Owner: "owner", Repo: "repo"}, PullRequestParams{
		Title: "fix: crash",
		Body:  "Fixes #42",
		Head:  "fix/issue-42",
	})
	require.NoError(t, err)
	assert.Equal(t, 97, pr.Number)
	assert.Equal(t, "https://github.com/owner/repo/pull/97", pr.URL)
	assert.Equal(t, "open", pr.State)
}

func TestCLIGateway_PullRequestStatus(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["pr view 97 --repo owner/repo --json number,title,state,url"] = `{
		"number": 97, "title": "fix: crash", "state": "MERGED",
		"url": "https://github.com/owner/repo/pull/97"
	}`
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	pr, err := g.PullRequestStatus(context.Background(), IssueRef{Owner: "owner", Repo: "repo"}, 97)
	require.NoError(t, err)
	assert.True(t, pr.Merged)
	assert.Equal(t, "merged", pr.State)
}

func TestCLIGateway_ListIssues(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["issue list --repo owner/repo --state open --limit 2 --json number,title,body,state,url,labels,updatedAt --label bug"] = `[
		{"number": 7, "title": "First bug", "state": "OPEN", "labels": [{"name": "bug"}]},
		{"number": 9, "title": "Second bug", "state": "OPEN", "labels": [{"name": "bug"}]}
	]`
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	issues, err := g.ListIssues(context.Background(), IssueRef{Owner: "owner", Repo: "repo"}, []string{"bug"}, 2)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 7, issues[0].Ref.Number)
	assert.Equal(t, "First bug", issues[0].Title)
	assert.Equal(t, []string{"bug"}, issues[1].Labels)
}

func TestCLIGateway_PullRequestComments(t *testing.T) {
	stub := newCLIRunnerStub()
	stub.outputs["pr view 97 --repo owner/repo --json comments"] = `{
		"comments": [
			{"author": {"login": "reviewer"}, "body": "Please add a test.", "createdAt": "2025-06-01T10:00:00Z"}
		]
	}`
	g := NewCLIGatewayWithRunner(stub, app.NopLogger{})

	comments, err := g.PullRequestComments(context.Background(), IssueRef{Owner: "owner", Repo: "repo"}, 97)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "reviewer", comments[0].Author)
	assert.Equal(t, "Please add a test.", comments[0].Body)
}

// fixedGateway answers every call with the same issue or error
type fixedGateway struct {
	issue *Issue
	err   error
	calls int
}

func (g *fixedGateway) FetchIssue(context.Context, IssueRef) (*Issue, error) {
	g.calls++
	return g.issue, g.err
}

func (g *fixedGateway) CreatePullRequest(context.Context, IssueRef, PullRequestParams) (*PullRequest, error) {
	g.calls++
	return nil, g.err
}

func (g *fixedGateway) PullRequestStatus(context.Context, IssueRef, int) (*PullRequest, error) {
	g.calls++
	return nil, g.err
}

func (g *fixedGateway) ListIssues(context.Context, IssueRef, []string, int) ([]*Issue, error) {
	g.calls++
	if g.issue != nil {
		return []*Issue{g.issue}, g.err
	}
	return nil, g.err
}

func (g *fixedGateway) PullRequestComments(context.Context, IssueRef, int) ([]Comment, error) {
	g.calls++
	return nil, g.err
}

func TestFallbackGateway_UsesSecondaryWhenPrimaryUnavailable(t *testing.T) {
	primary := &fixedGateway{err: fmt.Errorf("%w: gh binary not found", ErrUnavailable)}
	secondary := &fixedGateway{issue: &Issue{Title: "from api"}}
	g := NewFallbackGateway(primary, secondary)

	issue, err := g.FetchIssue(context.Background(), IssueRef{"o", "r", 1})
	require.NoError(t, err)
	assert.Equal(t, "from api", issue.Title)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackGateway_DefiniteErrorNotRetried(t *testing.T) {
	primary := &fixedGateway{err: errors.New("issue not found")}
	secondary := &fixedGateway{issue: &Issue{}}
	g := NewFallbackGateway(primary, secondary)

	_, err := g.FetchIssue(context.Background(), IssueRef{"o", "r", 1})
	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls, "definite failures must not fall through")
}
