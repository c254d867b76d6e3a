package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/adapter/gateway/github"
)

func TestBranchNameFor(t *testing.T) {
	ref, err := github.ParseIssueRef("octocat/hello-world#42")
	require.NoError(t, err)

	assert.Equal(t, "fix/issue-42", branchNameFor("fix/issue-{number}", ref))
	assert.Equal(t, "octocat/hello-world/42", branchNameFor("{owner}/{repo}/{number}", ref))
	assert.Equal(t, "static-branch", branchNameFor("static-branch", ref))
}

func TestNewRoot_RegistersCommands(t *testing.T) {
	root := NewRoot()

	want := []string{"init", "fix", "resume", "status", "list", "abort", "journal", "version"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}
