package git

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/app"
)

// recordingRunner captures git invocations and replays scripted output
type recordingRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func (r *recordingRunner) Run(_ context.Context, args ...string) (string, error) {
	r.calls = append(r.calls, args)
	key := strings.Join(args, " ")
	return r.outputs[key], r.errs[key]
}

func newTestRunner(rec *recordingRunner) *Runner {
	return NewRunnerWithCommand("/repo", rec, app.NopLogger{})
}

func TestRunner_Status(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["status --porcelain=v1 --branch"] = "## main\n M file.go\n"

	out, err := newTestRunner(rec).Status(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "M file.go")
}

func TestRunner_DiffStaged(t *testing.T) {
	rec := newRecordingRunner()
	_, err := newTestRunner(rec).Diff(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"diff", "--cached"}, rec.calls[0])
}

func TestRunner_SwitchBranchCreate(t *testing.T) {
	rec := newRecordingRunner()
	_, err := newTestRunner(rec).SwitchBranch(context.Background(), "fix/issue-42", true)
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"checkout", "-b", "fix/issue-42"}, rec.calls[0])
}

func TestRunner_SwitchBranchExistingFallsBack(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["checkout -b fix/issue-42"] = "fatal: a branch named 'fix/issue-42' already exists"
	rec.errs["checkout -b fix/issue-42"] = errors.New("exit status 128")

	_, err := newTestRunner(rec).SwitchBranch(context.Background(), "fix/issue-42", true)
	require.NoError(t, err)
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"checkout", "fix/issue-42"}, rec.calls[1])
}

func TestRunner_RejectsHostileBranchNames(t *testing.T) {
	r := newTestRunner(newRecordingRunner())
	for _, name := range []string{"", "-delete-everything", "has space", "a:b"} {
		_, err := r.SwitchBranch(context.Background(), name, false)
		assert.Error(t, err, "branch %q must be rejected", name)
	}
}

func TestRunner_CommitStagesEverything(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["commit -m fix(auth): handle nil session"] = "[fix/issue-42 abc1234] fix(auth): handle nil session"

	out, err := newTestRunner(rec).Commit(context.Background(), "fix(auth): handle nil session")
	require.NoError(t, err)
	assert.Contains(t, out, "abc1234")
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"add", "-A"}, rec.calls[0])
}

func TestRunner_CommitEmptyTree(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["commit -m msg"] = "nothing to commit, working tree clean"
	rec.errs["commit -m msg"] = errors.New("exit status 1")

	_, err := newTestRunner(rec).Commit(context.Background(), "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to commit")
}

func TestRunner_CommitEmptyMessage(t *testing.T) {
	_, err := newTestRunner(newRecordingRunner()).Commit(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRunner_PushDefaultsRemote(t *testing.T) {
	rec := newRecordingRunner()
	_, err := newTestRunner(rec).Push(context.Background(), "", "fix/issue-42")
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"push", "--set-upstream", "origin", "fix/issue-42"}, rec.calls[0])
}

func TestRunner_FetchDefaultsRemote(t *testing.T) {
	rec := newRecordingRunner()
	_, err := newTestRunner(rec).Fetch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"fetch", "origin"}, rec.calls[0])
}

func TestRunner_RebaseConflictAborts(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["rebase origin/main"] = "CONFLICT (content): merge conflict in file.go"
	rec.errs["rebase origin/main"] = errors.New("exit status 1")

	_, err := newTestRunner(rec).Rebase(context.Background(), "origin/main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"rebase", "--abort"}, rec.calls[1])
}

func TestRunner_MergeConflictAborts(t *testing.T) {
	rec := newRecordingRunner()
	rec.outputs["merge --no-edit feature"] = "CONFLICT (content): merge conflict in file.go"
	rec.errs["merge --no-edit feature"] = errors.New("exit status 1")

	_, err := newTestRunner(rec).Merge(context.Background(), "feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"merge", "--abort"}, rec.calls[1])
}
