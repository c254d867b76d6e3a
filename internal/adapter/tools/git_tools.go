package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/git"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// gitPhases are the phases in which the working tree is inspected or
// mutated; earlier phases have no business touching git.
var gitInspectPhases = []workflow.Phase{
	workflow.PhasePlanning,
	workflow.PhaseImplementation,
	workflow.PhaseVerification,
	workflow.PhaseValidation,
	workflow.PhaseCommitAndPR,
}

// GitTools builds the registry entries for working-tree operations
type GitTools struct {
	runner *git.Runner
}

// NewGitTools wires git tools over a runner
func NewGitTools(runner *git.Runner) *GitTools {
	return &GitTools{runner: runner}
}

// Registrations returns all git tool registry entries
func (g *GitTools) Registrations() []service.Registration {
	return []service.Registration{
		{
			Schema: output.ToolSchema{
				Name:        "git_status",
				Description: "Show working tree status (porcelain format, including branch info).",
				Parameters:  objectSchema(nil, map[string]interface{}{}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, _ map[string]interface{}) (string, error) {
				out, err := g.runner.Status(ctx)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "working tree clean", nil
				}
				return out, nil
			}),
			Phases: gitInspectPhases,
		},
		{
			Schema: output.ToolSchema{
				Name:        "git_diff",
				Description: "Show the current diff. Set staged=true for staged changes only.",
				Parameters: objectSchema(nil, map[string]interface{}{
					"staged": prop("boolean", "Diff staged changes instead of unstaged"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				out, err := g.runner.Diff(ctx, boolArg(args, "staged"))
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "no changes", nil
				}
				return out, nil
			}),
			Phases: gitInspectPhases,
		},
		{
			Schema: output.ToolSchema{
				Name: "git_branch",
				Description: "Branch operations: switch (default, creates if needed), " +
					"list local branches, or show the current branch.",
				Parameters: objectSchema(nil, map[string]interface{}{
					"action": enumProp("Branch action (default switch)", "switch", "list", "current"),
					"name":   prop("string", "For switch: branch name, e.g. fix/issue-42"),
					"create": prop("boolean", "For switch: create the branch if it does not exist (default true)"),
				}),
			},
			Handler: service.ToolHandlerFunc(g.branch),
			Phases:  []workflow.Phase{workflow.PhaseImplementation},
		},
		{
			Schema: output.ToolSchema{
				Name:        "git_fetch",
				Description: "Fetch the remote so rebase and merge see current refs.",
				Parameters: objectSchema(nil, map[string]interface{}{
					"remote": prop("string", "Remote name (default origin)"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				out, err := g.runner.Fetch(ctx, optionalStringArg(args, "remote", ""))
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "fetched", nil
				}
				return out, nil
			}),
			Phases: gitInspectPhases,
		},
		{
			Schema: output.ToolSchema{
				Name: "git_rebase",
				Description: "Rebase the current branch onto an upstream ref, e.g. origin/main. " +
					"Conflicted rebases are aborted automatically.",
				Parameters: objectSchema([]string{"upstream"}, map[string]interface{}{
					"upstream": prop("string", "Upstream ref to rebase onto"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				upstream, err := stringArg(args, "upstream")
				if err != nil {
					return "", err
				}
				out, err := g.runner.Rebase(ctx, upstream)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "rebased onto " + upstream, nil
				}
				return out, nil
			}),
			Phases: []workflow.Phase{workflow.PhaseImplementation, workflow.PhaseCommitAndPR},
		},
		{
			Schema: output.ToolSchema{
				Name: "git_merge",
				Description: "Merge a branch into the current one. " +
					"Conflicted merges are aborted automatically.",
				Parameters: objectSchema([]string{"branch"}, map[string]interface{}{
					"branch": prop("string", "Branch to merge"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				branch, err := stringArg(args, "branch")
				if err != nil {
					return "", err
				}
				out, err := g.runner.Merge(ctx, branch)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "merged " + branch, nil
				}
				return out, nil
			}),
			Phases: []workflow.Phase{workflow.PhaseImplementation, workflow.PhaseCommitAndPR},
		},
		{
			Schema: output.ToolSchema{
				Name:        "git_commit",
				Description: "Stage all changes and commit with a conventional commit message.",
				Parameters: objectSchema([]string{"message"}, map[string]interface{}{
					"message": prop("string", "Commit message, e.g. \"fix(auth): handle nil session on refresh\""),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				message, err := stringArg(args, "message")
				if err != nil {
					return "", err
				}
				return g.runner.Commit(ctx, message)
			}),
			Phases: []workflow.Phase{workflow.PhaseCommitAndPR},
		},
		{
			Schema: output.ToolSchema{
				Name:        "git_push",
				Description: "Push the branch to the remote, setting the upstream.",
				Parameters: objectSchema([]string{"branch"}, map[string]interface{}{
					"branch": prop("string", "Branch to push"),
					"remote": prop("string", "Remote name (default origin)"),
				}),
			},
			Handler: service.ToolHandlerFunc(func(ctx context.Context, args map[string]interface{}) (string, error) {
				branch, err := stringArg(args, "branch")
				if err != nil {
					return "", err
				}
				out, err := g.runner.Push(ctx, optionalStringArg(args, "remote", ""), branch)
				if err != nil {
					return "", err
				}
				if strings.TrimSpace(out) == "" {
					return "pushed " + branch, nil
				}
				return out, nil
			}),
			Phases: []workflow.Phase{workflow.PhaseCommitAndPR},
		},
	}
}

func (g *GitTools) branch(ctx context.Context, args map[string]interface{}) (string, error) {
	switch optionalStringArg(args, "action", "switch") {
	case "switch":
		name, err := stringArg(args, "name")
		if err != nil {
			return "", err
		}
		create := true
		if v, ok := args["create"].(bool); ok {
			create = v
		}
		out, err := g.runner.SwitchBranch(ctx, name, create)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(out) == "" {
			return "switched to branch " + name, nil
		}
		return out, nil

	case "list":
		names, err := g.runner.Branches(ctx)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "no local branches", nil
		}
		return strings.Join(names, "\n"), nil

	case "current":
		branch, hash, err := g.runner.Head(ctx)
		if err != nil {
			return "", err
		}
		if branch == "" {
			return "detached HEAD at " + hash, nil
		}
		return fmt.Sprintf("%s (%s)", branch, hash), nil

	default:
		return "", fmt.Errorf("unknown branch action %q", args["action"])
	}
}
