package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_Next(t *testing.T) {
	tests := []struct {
		phase Phase
		next  Phase
		ok    bool
	}{
		{PhaseRepoUnderstanding, PhaseIssueIntake, true},
		{PhaseIssueIntake, PhasePlanning, true},
		{PhasePlanning, PhaseImplementation, true},
		{PhaseImplementation, PhaseVerification, true},
		{PhaseVerification, PhaseValidation, true},
		{PhaseValidation, PhaseCommitAndPR, true},
		{PhaseCommitAndPR, PhaseDone, true},
		{PhaseDone, "", false},
		{PhaseAborted, "", false},
		{Phase("bogus"), "", false},
	}
	for _, tt := range tests {
		next, ok := tt.phase.Next()
		assert.Equal(t, tt.ok, ok, "phase %s", tt.phase)
		assert.Equal(t, tt.next, next, "phase %s", tt.phase)
	}
}

func TestPhase_IsTerminal(t *testing.T) {
	assert.True(t, PhaseDone.IsTerminal())
	assert.True(t, PhaseAborted.IsTerminal())
	assert.False(t, PhaseRepoUnderstanding.IsTerminal())
	assert.False(t, PhaseCommitAndPR.IsTerminal())
}

func TestPhase_IsValid(t *testing.T) {
	for _, p := range Phases() {
		assert.True(t, p.IsValid(), "phase %s", p)
	}
	assert.True(t, PhaseAborted.IsValid())
	assert.False(t, Phase("").IsValid())
	assert.False(t, Phase("review").IsValid())
}

func TestPhase_Ordinal(t *testing.T) {
	assert.Equal(t, 0, PhaseRepoUnderstanding.Ordinal())
	assert.Equal(t, 6, PhaseCommitAndPR.Ordinal())
	assert.Equal(t, 7, PhaseDone.Ordinal())
	assert.Equal(t, -1, PhaseAborted.Ordinal())
}
