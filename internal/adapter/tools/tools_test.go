package tools

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/git"
	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
	"github.com/Hell1213/Oss-Dev/internal/infra/analysis"
	inframem "github.com/Hell1213/Oss-Dev/internal/infra/repository/memory"
)

type memRepoStub struct {
	snaps map[string]*memory.Snapshot
}

func (r *memRepoStub) Save(_ context.Context, s *memory.Snapshot) error {
	r.snaps[s.UnitID()] = s
	return nil
}

func (r *memRepoStub) Load(_ context.Context, unitID string) (*memory.Snapshot, error) {
	s, ok := r.snaps[unitID]
	if !ok {
		return nil, memory.ErrSnapshotNotFound
	}
	return s, nil
}

func (r *memRepoStub) List(context.Context) ([]*memory.Snapshot, error) { return nil, nil }
func (r *memRepoStub) Delete(context.Context, string) error             { return nil }

type nullGitRunner struct{}

func (nullGitRunner) Run(context.Context, ...string) (string, error) { return "", nil }

type githubStub struct {
	issue *github.Issue
}

func (g *githubStub) FetchIssue(context.Context, github.IssueRef) (*github.Issue, error) {
	return g.issue, nil
}

func (g *githubStub) CreatePullRequest(context.Context, github.IssueRef, github.PullRequestParams) (*github.PullRequest, error) {
	return &github.PullRequest{Number: 1, URL: "https://github.com/o/r/pull/1", State: "open"}, nil
}

func (g *githubStub) PullRequestStatus(context.Context, github.IssueRef, int) (*github.PullRequest, error) {
	return &github.PullRequest{Number: 1, State: "open"}, nil
}

func (g *githubStub) ListIssues(context.Context, github.IssueRef, []string, int) ([]*github.Issue, error) {
	return []*github.Issue{g.issue}, nil
}

func (g *githubStub) PullRequestComments(context.Context, github.IssueRef, int) ([]github.Comment, error) {
	return nil, nil
}

func buildTestDeps(t *testing.T, unitID string) (Deps, *orchestrator.Orchestrator) {
	t.Helper()
	fs := afero.NewMemMapFs()
	orch := orchestrator.NewOrchestrator(&memRepoStub{snaps: map[string]*memory.Snapshot{}}, app.NopLogger{}, 100_000)
	deps := Deps{
		UnitID:       unitID,
		Orchestrator: orch,
		GitRunner:    git.NewRunnerWithCommand("/repo", nullGitRunner{}, app.NopLogger{}),
		GitHub:       &githubStub{issue: &github.Issue{Title: "t", State: "open"}},
		Analyzer:     analysis.NewAnalyzer(fs, ".ossdev/analysis.json"),
		StartHere:    analysis.NewStartHere(fs, "/repo"),
		Notes:        inframem.NewNotesStore(fs, ".ossdev/branches"),
		Confirmer:    AutoConfirmer{Answer: true},
		RepoDir:      "/repo",
	}
	return deps, orch
}

func TestBuildRegistry_PhaseAvailability(t *testing.T) {
	deps, _ := buildTestDeps(t, "u1")
	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	names := func(phase workflow.Phase) []string {
		var out []string
		for _, s := range reg.SchemasFor(phase) {
			out = append(out, s.Name)
		}
		return out
	}

	understanding := names(workflow.PhaseRepoUnderstanding)
	assert.Contains(t, understanding, "workflow")
	assert.Contains(t, understanding, "analyze_repository")
	assert.Contains(t, understanding, "check_start_here")
	assert.NotContains(t, understanding, "git_commit")
	assert.NotContains(t, understanding, "fetch_issue")

	intake := names(workflow.PhaseIssueIntake)
	assert.Contains(t, intake, "fetch_issue")
	assert.Contains(t, intake, "branch_memory")
	assert.NotContains(t, intake, "git_status")

	commit := names(workflow.PhaseCommitAndPR)
	assert.Contains(t, commit, "git_commit")
	assert.Contains(t, commit, "git_push")
	assert.Contains(t, commit, "create_pr")
	assert.Contains(t, commit, "user_confirm")
	assert.NotContains(t, commit, "create_start_here")
}

func TestWorkflowTool_MarkPhaseComplete(t *testing.T) {
	deps, orch := buildTestDeps(t, "u1")
	_, _, err := orch.Start(context.Background(), "u1")
	require.NoError(t, err)

	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID:   "c1",
		Name: "workflow",
		Arguments: map[string]interface{}{
			"action": "mark_phase_complete",
			"phase":  "repo_understanding",
		},
	})
	require.False(t, res.IsError(), res.Err)
	assert.Contains(t, res.Output, "issue_intake")

	phase, ok := orch.CurrentPhase("u1")
	require.True(t, ok)
	assert.Equal(t, workflow.PhaseIssueIntake, phase)
}

func TestWorkflowTool_WrongPhaseAssertion(t *testing.T) {
	deps, orch := buildTestDeps(t, "u1")
	_, _, err := orch.Start(context.Background(), "u1")
	require.NoError(t, err)

	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID:   "c1",
		Name: "workflow",
		Arguments: map[string]interface{}{
			"action": "mark_phase_complete",
			"phase":  "planning",
		},
	})
	assert.True(t, res.IsError())
	assert.Contains(t, res.Err, "invalid phase transition")
}

func TestWorkflowTool_GetStatusAndPrompt(t *testing.T) {
	deps, orch := buildTestDeps(t, "u1")
	_, _, err := orch.Start(context.Background(), "u1")
	require.NoError(t, err)

	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "workflow",
		Arguments: map[string]interface{}{"action": "get_status"},
	})
	require.False(t, res.IsError(), res.Err)
	assert.Contains(t, res.Output, `"current_phase": "repo_understanding"`)

	res = reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c2", Name: "workflow",
		Arguments: map[string]interface{}{"action": "get_phase_prompt"},
	})
	require.False(t, res.IsError(), res.Err)
	assert.Contains(t, res.Output, "Repository understanding")
}

func TestFetchIssueTool_RejectsClosedIssue(t *testing.T) {
	deps, _ := buildTestDeps(t, "u1")
	deps.GitHub = &githubStub{issue: &github.Issue{Title: "old bug", State: "closed"}}

	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "fetch_issue",
		Arguments: map[string]interface{}{"ref": "owner/repo#42"},
	})
	assert.True(t, res.IsError())
	assert.Contains(t, res.Err, "closed")
}

func TestMemoryTool_RoundTrip(t *testing.T) {
	deps, _ := buildTestDeps(t, "u1")
	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "branch_memory",
		Arguments: map[string]interface{}{"action": "set", "key": "plan", "value": "patch the parser"},
	})
	require.False(t, res.IsError(), res.Err)

	res = reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c2", Name: "branch_memory",
		Arguments: map[string]interface{}{"action": "get", "key": "plan"},
	})
	require.False(t, res.IsError(), res.Err)
	assert.Equal(t, "patch the parser", res.Output)

	res = reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c3", Name: "branch_memory",
		Arguments: map[string]interface{}{"action": "get", "key": "missing"},
	})
	assert.True(t, res.IsError())
}

func TestConfirmTool_AutoAnswers(t *testing.T) {
	deps, _ := buildTestDeps(t, "u1")
	deps.Confirmer = AutoConfirmer{Answer: false}

	reg, err := BuildRegistry(deps)
	require.NoError(t, err)

	res := reg.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "user_confirm",
		Arguments: map[string]interface{}{"question": "Push the branch?"},
	})
	require.False(t, res.IsError(), res.Err)
	assert.Equal(t, "operator answered: no", res.Output)
}
