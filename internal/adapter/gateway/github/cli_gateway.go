package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Hell1213/Oss-Dev/internal/app"
)

// CLIRunner executes one gh subcommand. Tests substitute a stub.
type CLIRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

type execCLIRunner struct{}

func (execCLIRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: gh binary not found", ErrUnavailable)
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "auth login") || strings.Contains(msg, "authentication") {
			return "", fmt.Errorf("%w: gh is not authenticated", ErrUnavailable)
		}
		return "", fmt.Errorf("gh %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return stdout.String(), nil
}

// CLIGateway drives the gh command line client. It is the primary
// backend: gh reuses the user's existing login and handles SSO and
// enterprise hosts without extra configuration.
type CLIGateway struct {
	run    CLIRunner
	logger app.Logger
}

// NewCLIGateway creates a gateway shelling out to gh
func NewCLIGateway(logger app.Logger) *CLIGateway {
	return NewCLIGatewayWithRunner(execCLIRunner{}, logger)
}

// NewCLIGatewayWithRunner wires a custom runner (tests)
func NewCLIGatewayWithRunner(run CLIRunner, logger app.Logger) *CLIGateway {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &CLIGateway{run: run, logger: logger}
}

type ghIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FetchIssue reads the issue via gh issue view
func (g *CLIGateway) FetchIssue(ctx context.Context, ref IssueRef) (*Issue, error) {
	out, err := g.run.Run(ctx,
		"issue", "view", strconv.Itoa(ref.Number),
		"--repo", ref.RepoSlug(),
		"--json", "number,title,body,state,url,labels,updatedAt",
	)
	if err != nil {
		return nil, err
	}

	var raw ghIssue
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("decode gh issue output: %w", err)
	}

	issue := &Issue{
		Ref:       ref,
		Title:     raw.Title,
		Body:      raw.Body,
		State:     strings.ToLower(raw.State),
		URL:       raw.URL,
		UpdatedAt: raw.UpdatedAt,
	}
	for _, l := range raw.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	return issue, nil
}

// ListIssues lists open issues via gh issue list
func (g *CLIGateway) ListIssues(ctx context.Context, repo IssueRef, labels []string, limit int) ([]*Issue, error) {
	if limit <= 0 {
		limit = 30
	}
	args := []string{
		"issue", "list",
		"--repo", repo.RepoSlug(),
		"--state", "open",
		"--limit", strconv.Itoa(limit),
		"--json", "number,title,body,state,url,labels,updatedAt",
	}
	for _, l := range labels {
		args = append(args, "--label", l)
	}

	out, err := g.run.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var raw []ghIssue
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("decode gh issue list output: %w", err)
	}

	issues := make([]*Issue, 0, len(raw))
	for _, r := range raw {
		issue := &Issue{
			Ref:       IssueRef{Owner: repo.Owner, Repo: repo.Repo, Number: r.Number},
			Title:     r.Title,
			Body:      r.Body,
			State:     strings.ToLower(r.State),
			URL:       r.URL,
			UpdatedAt: r.UpdatedAt,
		}
		for _, l := range r.Labels {
			issue.Labels = append(issue.Labels, l.Name)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// PullRequestComments reads conversation comments via gh pr view
func (g *CLIGateway) PullRequestComments(ctx context.Context, repo IssueRef, number int) ([]Comment, error) {
	out, err := g.run.Run(ctx,
		"pr", "view", strconv.Itoa(number),
		"--repo", repo.RepoSlug(),
		"--json", "comments",
	)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Comments []struct {
			Author struct {
				Login string `json:"login"`
			} `json:"author"`
			Body      string    `json:"body"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"comments"`
	}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("decode gh pr comments output: %w", err)
	}

	comments := make([]Comment, 0, len(raw.Comments))
	for _, c := range raw.Comments {
		comments = append(comments, Comment{Author: c.Author.Login, Body: c.Body, CreatedAt: c.CreatedAt})
	}
	return comments, nil
}

// CreatePullRequest opens a PR via gh pr create
func (g *CLIGateway) CreatePullRequest(ctx context.Context, repo IssueRef, params PullRequestParams) (*PullRequest, error) {
	args := []string{
		"pr", "create",
		"--repo", repo.RepoSlug(),
		"--title", params.Title,
		"--body", params.Body,
		"--head", params.Head,
	}
	if params.Base != "" {
		args = append(args, "--base", params.Base)
	}
	if params.Draft {
		args = append(args, "--draft")
	}

	out, err := g.run.Run(ctx, args...)
	if err != nil {
		return nil, err
	}

	// gh prints the PR URL as the last line
	url := lastNonEmptyLine(out)
	number := prNumberFromURL(url)
	g.logger.Info("pull request created: %s", url)
	return &PullRequest{Number: number, URL: url, State: "open", Title: params.Title}, nil
}

// PullRequestStatus reads PR state via gh pr view
func (g *CLIGateway) PullRequestStatus(ctx context.Context, repo IssueRef, number int) (*PullRequest, error) {
	out, err := g.run.Run(ctx,
		"pr", "view", strconv.Itoa(number),
		"--repo", repo.RepoSlug(),
		"--json", "number,title,state,url",
	)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		State  string `json:"state"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("decode gh pr output: %w", err)
	}
	state := strings.ToLower(raw.State)
	return &PullRequest{
		Number: raw.Number,
		Title:  raw.Title,
		State:  state,
		URL:    raw.URL,
		Merged: state == "merged",
	}, nil
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func prNumberFromURL(url string) int {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(url[idx+1:])
	return n
}
