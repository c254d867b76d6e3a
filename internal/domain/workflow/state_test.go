package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	s, err := NewState("owner/repo#1", now)
	require.NoError(t, err)
	assert.Equal(t, PhaseRepoUnderstanding, s.CurrentPhase)
	assert.Len(t, s.History, 1)
	assert.Nil(t, s.History[0].ExitedAt)

	_, err = NewState("", now)
	assert.Error(t, err)
}

func TestState_AdvanceThroughPipeline(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, err := NewState("owner/repo#1", now)
	require.NoError(t, err)

	for i := 0; !s.IsTerminal(); i++ {
		now = now.Add(time.Minute)
		require.NoError(t, s.Advance(s.CurrentPhase, now))
		assert.Equal(t, i+1, s.CompletedPhases())
	}

	assert.Equal(t, PhaseDone, s.CurrentPhase)
	assert.Equal(t, 7, s.CompletedPhases())
	assert.Len(t, s.History, 8)

	err = s.Advance(PhaseDone, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestState_AdvanceWrongAssertionLeavesStateUnchanged(t *testing.T) {
	now := time.Now().UTC()
	s, err := NewState("owner/repo#1", now)
	require.NoError(t, err)

	err = s.Advance(PhasePlanning, now.Add(time.Second))
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, PhaseRepoUnderstanding, s.CurrentPhase)
	assert.Equal(t, 0, s.CompletedPhases())
	assert.Equal(t, now, s.UpdatedAt)
}

func TestState_Abort(t *testing.T) {
	now := time.Now().UTC()
	s, err := NewState("owner/repo#1", now)
	require.NoError(t, err)

	s.Abort("operator gave up", now.Add(time.Minute))
	assert.Equal(t, PhaseAborted, s.CurrentPhase)
	assert.Equal(t, "operator gave up", s.AbortReason)
	assert.True(t, s.IsTerminal())

	// idempotent: a second abort keeps the original reason
	s.Abort("something else", now.Add(2*time.Minute))
	assert.Equal(t, "operator gave up", s.AbortReason)
	assert.Len(t, s.History, 2)
}

func TestState_Validate(t *testing.T) {
	now := time.Now().UTC()
	s, err := NewState("owner/repo#1", now)
	require.NoError(t, err)
	assert.NoError(t, s.Validate())

	bad := *s
	bad.UnitID = ""
	assert.Error(t, bad.Validate())

	bad = *s
	bad.CurrentPhase = Phase("bogus")
	assert.Error(t, bad.Validate())

	bad = *s
	bad.History = nil
	assert.Error(t, bad.Validate())

	bad = *s
	bad.CurrentPhase = PhasePlanning // history tail still repo_understanding
	assert.Error(t, bad.Validate())
}
