package orchestrator

import (
	"fmt"

	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// IdentityPrompt is pinned as the system message for every unit
const IdentityPrompt = `You are an OSS contribution agent. You work through a fixed pipeline:
repository understanding, issue intake, planning, implementation,
verification, validation, commit and PR. Stay strictly within the scope
of the issue you are fixing. Keep diffs minimal and intentional. When
you judge the current phase finished, call the workflow tool with
action "mark_phase_complete" and the phase you are completing; that is
the only way to advance. Never skip phases.`

// instructionFor builds the instruction payload injected into the
// conversation when a phase is entered.
func instructionFor(phase workflow.Phase, unitID string) *InstructionPayload {
	p := &InstructionPayload{Phase: phase}
	switch phase {
	case workflow.PhaseRepoUnderstanding:
		p.Text = fmt.Sprintf(`Phase 1/7: Repository understanding (unit %s).

Analyze the repository structure. Use the analyze_repository tool to
understand the codebase architecture, entry points, test strategy, and
CI setup. Use check_start_here to see whether a START_HERE.md
navigation document exists; create it with create_start_here if it
does not. When you understand the repository, mark this phase complete.`, unitID)
		p.Tools = []string{"analyze_repository", "check_start_here", "create_start_here", "update_start_here", "workflow"}

	case workflow.PhaseIssueIntake:
		p.Text = fmt.Sprintf(`Phase 2/7: Issue intake (unit %s).

Fetch the issue with the fetch_issue tool. Summarize what is being
asked and what is explicitly out of scope. Closed issues must not be
worked on; if the issue is closed, abort. Store the issue intent with
the branch_memory tool, then mark this phase complete.`, unitID)
		p.Tools = []string{"fetch_issue", "list_issues", "branch_memory", "workflow"}

	case workflow.PhasePlanning:
		p.Text = `Phase 3/7: Planning.

Plan the fix. Identify which files need to change, which tests need
updates, and a step-by-step strategy. Use git_status and git_diff to
inspect current state. Do NOT write any code yet. If the fix scope is
unclear, ask ONE precise clarification question via user_confirm.
When the plan is complete, record it with branch_memory and mark this
phase complete.`
		p.Tools = []string{"git_status", "git_diff", "branch_memory", "user_confirm", "workflow"}

	case workflow.PhaseImplementation:
		p.Text = `Phase 4/7: Implementation.

Create or switch to the feature branch with git_branch, then implement
the planned fix. Implementation rules: stay strictly within issue
scope, no drive-by refactors, no reformatting of unrelated files, fix
core logic rather than symptoms, follow existing patterns in the
repository. When the change is made, mark this phase complete.`
		p.Tools = []string{"git_branch", "git_status", "git_diff", "git_fetch", "git_rebase", "git_merge", "branch_memory", "workflow"}

	case workflow.PhaseVerification:
		p.Text = `Phase 5/7: Verification.

Verify the fix with the repository's test suite, using the test
strategy recorded during repository understanding (see START_HERE.md
or the analysis cache). If tests fail, fix regressions before
proceeding. Document any known limitations. When tests pass, mark
this phase complete.`
		p.Tools = []string{"git_status", "git_diff", "analyze_repository", "branch_memory", "workflow"}

	case workflow.PhaseValidation:
		p.Text = `Phase 6/7: Validation.

Validate the change against the original issue. Use git_status and
git_diff to review everything that changed, re-read the issue intent
from branch_memory, and explicitly verify: does this fully resolve
what was asked, were unrelated changes avoided, are edge cases
covered. Adjust before committing if the fix does not match the issue
scope. Then mark this phase complete.`
		p.Tools = []string{"git_status", "git_diff", "branch_memory", "workflow"}

	case workflow.PhaseCommitAndPR:
		p.Text = `Phase 7/7: Commit and PR.

Stage and commit the change with git_commit using a conventional
message (type(scope): description, e.g. "fix(auth): handle nil session
on refresh"). Push the branch with git_push, then open a pull request
with create_pr referencing the issue ("Fixes #N") and describing what
was fixed and how it was verified. Confirm with user_confirm before
pushing. When the PR exists, mark this phase complete.`
		p.Tools = []string{"git_status", "git_commit", "git_push", "create_pr", "get_pr_status", "check_pr_comments", "user_confirm", "workflow"}

	default:
		p.Text = "Continue with the current workflow phase."
		p.Tools = []string{"workflow"}
	}
	return p
}
