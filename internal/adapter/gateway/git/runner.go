package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Hell1213/Oss-Dev/internal/app"
)

// CommandRunner executes one git subcommand and returns its combined
// output. Tests substitute a recording stub.
type CommandRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct {
	dir string
}

func (r *execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// Runner wraps git operations on one working tree. Mutations shell out
// to the git binary so hooks, credential helpers, and user config
// behave exactly as they would for a human; inspection goes through
// go-git and needs no subprocess.
type Runner struct {
	dir    string
	run    CommandRunner
	logger app.Logger
}

// NewRunner creates a git runner for the repository at dir
func NewRunner(dir string, logger app.Logger) *Runner {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &Runner{dir: dir, run: &execRunner{dir: dir}, logger: logger}
}

// NewRunnerWithCommand wires a custom command runner (tests)
func NewRunnerWithCommand(dir string, run CommandRunner, logger app.Logger) *Runner {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &Runner{dir: dir, run: run, logger: logger}
}

// Status returns porcelain status output; empty means a clean tree
func (r *Runner) Status(ctx context.Context) (string, error) {
	return r.run.Run(ctx, "status", "--porcelain=v1", "--branch")
}

// Diff returns the diff of unstaged (or staged) changes
func (r *Runner) Diff(ctx context.Context, staged bool) (string, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	return r.run.Run(ctx, args...)
}

// SwitchBranch checks out the named branch, creating it when create is
// set and it does not exist yet.
func (r *Runner) SwitchBranch(ctx context.Context, name string, create bool) (string, error) {
	if err := validateBranchName(name); err != nil {
		return "", err
	}
	if create {
		out, err := r.run.Run(ctx, "checkout", "-b", name)
		if err == nil {
			return out, nil
		}
		if !strings.Contains(out, "already exists") {
			return out, err
		}
		// Fall through to a plain checkout of the existing branch
	}
	return r.run.Run(ctx, "checkout", name)
}

// Commit stages everything and commits with the given message.
// An empty tree is reported as an error so the oracle sees it.
func (r *Runner) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit message cannot be empty")
	}
	if _, err := r.run.Run(ctx, "add", "-A"); err != nil {
		return "", err
	}
	out, err := r.run.Run(ctx, "commit", "-m", message)
	if err != nil && strings.Contains(out, "nothing to commit") {
		return "", fmt.Errorf("nothing to commit: working tree is clean")
	}
	return out, err
}

// Push publishes the branch, setting the upstream on first push
func (r *Runner) Push(ctx context.Context, remote, branch string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	if err := validateBranchName(branch); err != nil {
		return "", err
	}
	return r.run.Run(ctx, "push", "--set-upstream", remote, branch)
}

// Fetch updates remote-tracking refs for the named remote
func (r *Runner) Fetch(ctx context.Context, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	return r.run.Run(ctx, "fetch", remote)
}

// Rebase replays the current branch onto the given upstream ref.
// A conflicted rebase is aborted so the tree is never left mid-rebase.
func (r *Runner) Rebase(ctx context.Context, upstream string) (string, error) {
	if err := validateBranchName(upstream); err != nil {
		return "", err
	}
	out, err := r.run.Run(ctx, "rebase", upstream)
	if err != nil && strings.Contains(out, "CONFLICT") {
		if _, abortErr := r.run.Run(ctx, "rebase", "--abort"); abortErr != nil {
			r.logger.Warn("rebase --abort failed: %v", abortErr)
		}
		return "", fmt.Errorf("rebase onto %s hit conflicts and was aborted", upstream)
	}
	return out, err
}

// Merge merges the named branch into the current one. A conflicted
// merge is aborted so the tree is never left mid-merge.
func (r *Runner) Merge(ctx context.Context, branch string) (string, error) {
	if err := validateBranchName(branch); err != nil {
		return "", err
	}
	out, err := r.run.Run(ctx, "merge", "--no-edit", branch)
	if err != nil && strings.Contains(out, "CONFLICT") {
		if _, abortErr := r.run.Run(ctx, "merge", "--abort"); abortErr != nil {
			r.logger.Warn("merge --abort failed: %v", abortErr)
		}
		return "", fmt.Errorf("merge of %s hit conflicts and was aborted", branch)
	}
	return out, err
}

// Branches lists local branch names via go-git
func (r *Runner) Branches(_ context.Context) ([]string, error) {
	repo, err := gogit.PlainOpen(r.dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", r.dir, err)
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Head reports the current branch and commit hash via go-git
func (r *Runner) Head(_ context.Context) (branch, hash string, err error) {
	repo, err := gogit.PlainOpen(r.dir)
	if err != nil {
		return "", "", fmt.Errorf("open repository %s: %w", r.dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if ref.Name().IsBranch() {
		branch = ref.Name().Short()
	}
	return branch, ref.Hash().String(), nil
}

// RemoteURL reports the fetch URL of the named remote via go-git
func (r *Runner) RemoteURL(_ context.Context, name string) (string, error) {
	repo, err := gogit.PlainOpen(r.dir)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", r.dir, err)
	}
	remote, err := repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("resolve remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// validateBranchName rejects names that could smuggle extra arguments
// into the git invocation.
func validateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("invalid branch name %q", name)
	}
	for _, r := range name {
		if r == ' ' || r == '\t' || r == '\n' || r == '~' || r == '^' || r == ':' {
			return fmt.Errorf("invalid branch name %q", name)
		}
	}
	return nil
}
