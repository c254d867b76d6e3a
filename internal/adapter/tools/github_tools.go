package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// GitHubTools builds the registry entries for issue intake and PR
// publication.
type GitHubTools struct {
	gateway github.Gateway
}

// NewGitHubTools wires GitHub tools over a gateway
func NewGitHubTools(gateway github.Gateway) *GitHubTools {
	return &GitHubTools{gateway: gateway}
}

// Registrations returns all GitHub tool registry entries
func (g *GitHubTools) Registrations() []service.Registration {
	return []service.Registration{
		{
			Schema: output.ToolSchema{
				Name: "fetch_issue",
				Description: "Fetch a GitHub issue by reference (owner/repo#number or URL). " +
					"Closed issues are rejected: they must not be worked on.",
				Parameters: objectSchema([]string{"ref"}, map[string]interface{}{
					"ref": prop("string", "Issue reference, e.g. owner/repo#42"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.fetchIssue),
			Phases:  []workflow.Phase{workflow.PhaseIssueIntake},
		},
		{
			Schema: output.ToolSchema{
				Name:        "list_issues",
				Description: "List open issues in a repository, optionally filtered by label.",
				Parameters: objectSchema([]string{"repo"}, map[string]interface{}{
					"repo":   prop("string", "Repository slug, e.g. owner/repo"),
					"labels": prop("string", "Comma-separated label filter"),
					"limit":  prop("number", "Maximum issues to return (default 30)"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.listIssues),
			Phases:  []workflow.Phase{workflow.PhaseIssueIntake},
		},
		{
			Schema: output.ToolSchema{
				Name:        "create_pr",
				Description: "Open a pull request for the pushed branch. Reference the issue in the body (Fixes #N).",
				Parameters: objectSchema([]string{"repo", "title", "body", "head"}, map[string]interface{}{
					"repo":  prop("string", "Repository slug, e.g. owner/repo"),
					"title": prop("string", "PR title"),
					"body":  prop("string", "PR description; include Fixes #N"),
					"head":  prop("string", "Source branch"),
					"base":  prop("string", "Target branch (default: repository default)"),
					"draft": prop("boolean", "Open as draft"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.createPR),
			Phases:  []workflow.Phase{workflow.PhaseCommitAndPR},
		},
		{
			Schema: output.ToolSchema{
				Name:        "get_pr_status",
				Description: "Check the state of a pull request.",
				Parameters: objectSchema([]string{"repo", "number"}, map[string]interface{}{
					"repo":   prop("string", "Repository slug, e.g. owner/repo"),
					"number": prop("number", "PR number"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.prStatus),
			Phases:  []workflow.Phase{workflow.PhaseCommitAndPR},
		},
		{
			Schema: output.ToolSchema{
				Name:        "check_pr_comments",
				Description: "Read the conversation comments on a pull request.",
				Parameters: objectSchema([]string{"repo", "number"}, map[string]interface{}{
					"repo":   prop("string", "Repository slug, e.g. owner/repo"),
					"number": prop("number", "PR number"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.prComments),
			Phases:  []workflow.Phase{workflow.PhaseCommitAndPR},
		},
	}
}

func (g *GitHubTools) fetchIssue(ctx context.Context, args map[string]interface{}) (string, error) {
	refArg, err := stringArg(args, "ref")
	if err != nil {
		return "", err
	}
	ref, err := github.ParseIssueRef(refArg)
	if err != nil {
		return "", err
	}

	issue, err := g.gateway.FetchIssue(ctx, ref)
	if err != nil {
		return "", err
	}
	if !issue.IsOpen() {
		return "", fmt.Errorf("%w: %s (%q)", github.ErrIssueClosed, ref, issue.Title)
	}

	data, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *GitHubTools) createPR(ctx context.Context, args map[string]interface{}) (string, error) {
	repoArg, err := stringArg(args, "repo")
	if err != nil {
		return "", err
	}
	repo, err := parseRepoSlug(repoArg)
	if err != nil {
		return "", err
	}
	title, err := stringArg(args, "title")
	if err != nil {
		return "", err
	}
	body, err := stringArg(args, "body")
	if err != nil {
		return "", err
	}
	head, err := stringArg(args, "head")
	if err != nil {
		return "", err
	}

	pr, err := g.gateway.CreatePullRequest(ctx, repo, github.PullRequestParams{
		Title: title,
		Body:  body,
		Head:  head,
		Base:  optionalStringArg(args, "base", ""),
		Draft: boolArg(args, "draft"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pull request #%d opened: %s", pr.Number, pr.URL), nil
}

func (g *GitHubTools) prStatus(ctx context.Context, args map[string]interface{}) (string, error) {
	repoArg, err := stringArg(args, "repo")
	if err != nil {
		return "", err
	}
	repo, err := parseRepoSlug(repoArg)
	if err != nil {
		return "", err
	}
	numberArg, ok := args["number"].(float64) // JSON numbers decode as float64
	if !ok {
		return "", fmt.Errorf("argument \"number\" must be a number")
	}

	pr, err := g.gateway.PullRequestStatus(ctx, repo, int(numberArg))
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(pr, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *GitHubTools) listIssues(ctx context.Context, args map[string]interface{}) (string, error) {
	repoArg, err := stringArg(args, "repo")
	if err != nil {
		return "", err
	}
	repo, err := parseRepoSlug(repoArg)
	if err != nil {
		return "", err
	}
	var labels []string
	for _, l := range strings.Split(optionalStringArg(args, "labels", ""), ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}

	issues, err := g.gateway.ListIssues(ctx, repo, labels, limit)
	if err != nil {
		return "", err
	}
	if len(issues) == 0 {
		return "no open issues found", nil
	}
	var b strings.Builder
	for _, issue := range issues {
		fmt.Fprintf(&b, "#%d %s", issue.Ref.Number, issue.Title)
		if len(issue.Labels) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(issue.Labels, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (g *GitHubTools) prComments(ctx context.Context, args map[string]interface{}) (string, error) {
	repoArg, err := stringArg(args, "repo")
	if err != nil {
		return "", err
	}
	repo, err := parseRepoSlug(repoArg)
	if err != nil {
		return "", err
	}
	numberArg, ok := args["number"].(float64)
	if !ok {
		return "", fmt.Errorf("argument \"number\" must be a number")
	}

	comments, err := g.gateway.PullRequestComments(ctx, repo, int(numberArg))
	if err != nil {
		return "", err
	}
	if len(comments) == 0 {
		return "no comments yet", nil
	}
	var b strings.Builder
	for _, c := range comments {
		fmt.Fprintf(&b, "%s (%s):\n%s\n\n", c.Author, c.CreatedAt.Format("2006-01-02 15:04"), c.Body)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// parseRepoSlug accepts owner/repo by reusing the issue reference
// parser with a placeholder number.
func parseRepoSlug(s string) (github.IssueRef, error) {
	ref, err := github.ParseIssueRef(s + "#1")
	if err != nil {
		return github.IssueRef{}, fmt.Errorf("invalid repository slug %q (want owner/repo)", s)
	}
	ref.Number = 0
	return ref, nil
}
