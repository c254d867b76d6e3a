package workflow

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTransition is returned when a phase completion is
	// asserted for a phase other than the current one, or when the
	// workflow is already terminal.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrAlreadyActive is returned when starting a unit that already
	// has a live (non-terminal) workflow state.
	ErrAlreadyActive = errors.New("workflow already active for unit")
)

// PhaseRecord tracks when a phase was entered and exited
type PhaseRecord struct {
	Phase     Phase      `json:"phase"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

// State is the workflow state for one unit of work (a branch/issue
// reference). The current phase only advances forward through the
// fixed order; Abort is the only other transition.
type State struct {
	UnitID       string        `json:"unit_id"`
	CurrentPhase Phase         `json:"current_phase"`
	AbortReason  string        `json:"abort_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	History      []PhaseRecord `json:"history"`
}

// NewState creates a workflow state at the first pipeline phase
func NewState(unitID string, now time.Time) (*State, error) {
	if unitID == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}
	return &State{
		UnitID:       unitID,
		CurrentPhase: PhaseRepoUnderstanding,
		CreatedAt:    now,
		UpdatedAt:    now,
		History:      []PhaseRecord{{Phase: PhaseRepoUnderstanding, EnteredAt: now}},
	}, nil
}

// IsTerminal returns true if the workflow reached Done or Aborted
func (s *State) IsTerminal() bool {
	return s.CurrentPhase.IsTerminal()
}

// Advance completes the asserted phase and moves to its successor.
// It fails with ErrInvalidTransition when the assertion does not match
// the current phase or the workflow is terminal; the state is left
// unchanged on failure.
func (s *State) Advance(asserted Phase, now time.Time) error {
	if s.IsTerminal() {
		return fmt.Errorf("%w: workflow for %s is already %s", ErrInvalidTransition, s.UnitID, s.CurrentPhase)
	}
	if asserted != s.CurrentPhase {
		return fmt.Errorf("%w: asserted %s but current phase is %s", ErrInvalidTransition, asserted, s.CurrentPhase)
	}
	next, ok := s.CurrentPhase.Next()
	if !ok {
		return fmt.Errorf("%w: %s has no successor", ErrInvalidTransition, s.CurrentPhase)
	}

	s.closeCurrentRecord(now)
	s.CurrentPhase = next
	s.UpdatedAt = now
	s.History = append(s.History, PhaseRecord{Phase: next, EnteredAt: now})
	return nil
}

// Abort transitions the workflow to Aborted with the given reason.
// Idempotent if already aborted.
func (s *State) Abort(reason string, now time.Time) {
	if s.CurrentPhase == PhaseAborted {
		return
	}
	s.closeCurrentRecord(now)
	s.CurrentPhase = PhaseAborted
	s.AbortReason = reason
	s.UpdatedAt = now
	s.History = append(s.History, PhaseRecord{Phase: PhaseAborted, EnteredAt: now})
}

// CompletedPhases returns the number of phases with a recorded exit
func (s *State) CompletedPhases() int {
	n := 0
	for _, r := range s.History {
		if r.ExitedAt != nil {
			n++
		}
	}
	return n
}

// Validate checks structural integrity of a state loaded from storage
func (s *State) Validate() error {
	if s.UnitID == "" {
		return fmt.Errorf("state has empty unit ID")
	}
	if !s.CurrentPhase.IsValid() {
		return fmt.Errorf("state has unknown phase %q", s.CurrentPhase)
	}
	if len(s.History) == 0 {
		return fmt.Errorf("state has empty phase history")
	}
	if last := s.History[len(s.History)-1]; last.Phase != s.CurrentPhase {
		return fmt.Errorf("state history tail %q does not match current phase %q", last.Phase, s.CurrentPhase)
	}
	return nil
}

func (s *State) closeCurrentRecord(now time.Time) {
	if len(s.History) == 0 {
		return
	}
	last := &s.History[len(s.History)-1]
	if last.ExitedAt == nil {
		t := now
		last.ExitedAt = &t
	}
}
