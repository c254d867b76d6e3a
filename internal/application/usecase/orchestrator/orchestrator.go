package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

var (
	// ErrNotActive is returned when a unit has no in-memory session
	ErrNotActive = errors.New("no active workflow for unit")

	// ErrResume is returned when a unit cannot be resumed from its
	// snapshot. It wraps the underlying snapshot error.
	ErrResume = errors.New("resume failed")
)

// InstructionPayload carries the instructions injected into the
// conversation when a phase is entered: the phase objective and the
// tool names the oracle is expected to use.
type InstructionPayload struct {
	Phase workflow.Phase `json:"phase"`
	Text  string         `json:"text"`
	Tools []string       `json:"tools"`
}

// TerminalStatus summarizes a workflow that reached Done or Aborted
type TerminalStatus struct {
	UnitID          string         `json:"unit_id"`
	Phase           workflow.Phase `json:"phase"`
	CompletedPhases int            `json:"completed_phases"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	AbortReason     string         `json:"abort_reason,omitempty"`
}

// Summary renders a one-line human-readable outcome
func (t *TerminalStatus) Summary() string {
	if t.Phase == workflow.PhaseAborted {
		return fmt.Sprintf("unit %s aborted after %d completed phase(s): %s", t.UnitID, t.CompletedPhases, t.AbortReason)
	}
	return fmt.Sprintf("unit %s completed all %d phases in %s", t.UnitID, t.CompletedPhases, t.FinishedAt.Sub(t.StartedAt).Round(time.Second))
}

type session struct {
	state   *workflow.State
	cm      *service.ContextManager
	pending *InstructionPayload
}

// Orchestrator owns the phase state machine for each unit of work.
// Phase completion is asserted through MarkPhaseComplete (reached via
// the workflow tool); there is no other way to advance. Every
// transition persists a snapshot before it is acknowledged.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*session

	memRepo memory.Repository
	logger  app.Logger
	budget  int
	clock   func() time.Time
}

// NewOrchestrator creates an orchestrator backed by the given snapshot
// repository. budget is the context token budget for new sessions.
func NewOrchestrator(memRepo memory.Repository, logger app.Logger, budget int) *Orchestrator {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &Orchestrator{
		sessions: make(map[string]*session),
		memRepo:  memRepo,
		logger:   logger,
		budget:   budget,
		clock:    time.Now,
	}
}

// WithClock overrides the time source (tests)
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	return o
}

// Start registers a new unit of work at the first phase, seeds its
// conversation with the identity prompt and the first phase
// instructions, and persists the initial snapshot. Fails with
// workflow.ErrAlreadyActive when a live (non-terminal) workflow for
// the unit exists in memory or in storage.
func (o *Orchestrator) Start(ctx context.Context, unitID string) (*InstructionPayload, *service.ContextManager, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if sess, ok := o.sessions[unitID]; ok && !sess.state.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: %s", workflow.ErrAlreadyActive, unitID)
	}
	if snap, err := o.memRepo.Load(ctx, unitID); err == nil {
		if snap.State != nil && !snap.State.IsTerminal() {
			return nil, nil, fmt.Errorf("%w: %s has a resumable snapshot (use resume)", workflow.ErrAlreadyActive, unitID)
		}
	} else if !errors.Is(err, memory.ErrSnapshotNotFound) {
		return nil, nil, fmt.Errorf("check existing snapshot for %s: %w", unitID, err)
	}

	now := o.clock()
	state, err := workflow.NewState(unitID, now)
	if err != nil {
		return nil, nil, err
	}

	cm := service.NewContextManager(o.budget)
	if err := cm.Pin(conversation.Message{Role: conversation.RoleSystem, Content: IdentityPrompt}); err != nil {
		return nil, nil, err
	}
	payload := instructionFor(state.CurrentPhase, unitID)
	cm.Append(conversation.NewUserMessage(payload.Text))

	sess := &session{state: state, cm: cm}
	if err := o.persistLocked(ctx, sess, now); err != nil {
		return nil, nil, err
	}
	o.sessions[unitID] = sess
	o.logger.Info("workflow started: unit=%s phase=%s", unitID, state.CurrentPhase)
	return payload, cm, nil
}

// Resume restores a unit from its latest snapshot. Load failures and
// malformed snapshots surface as ErrResume wrapping the cause; resume
// never fabricates state.
func (o *Orchestrator) Resume(ctx context.Context, unitID string) (*InstructionPayload, *service.ContextManager, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if sess, ok := o.sessions[unitID]; ok && !sess.state.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: %s", workflow.ErrAlreadyActive, unitID)
	}

	snap, err := o.memRepo.Load(ctx, unitID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrResume, unitID, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrResume, unitID, err)
	}
	if snap.State.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: %s already finished in phase %s", ErrResume, unitID, snap.State.CurrentPhase)
	}

	cm := service.RestoreContextManager(snap.Window, o.budget)
	payload := instructionFor(snap.State.CurrentPhase, unitID)
	cm.Append(conversation.NewUserMessage(
		fmt.Sprintf("Resuming interrupted work in phase %s. Review the conversation so far and continue.\n\n%s", snap.State.CurrentPhase, payload.Text)))

	sess := &session{state: snap.State, cm: cm}
	o.sessions[unitID] = sess
	o.logger.Info("workflow resumed: unit=%s phase=%s snapshot=%s", unitID, snap.State.CurrentPhase, snap.SnapshotID)
	return payload, cm, nil
}

// MarkPhaseComplete asserts completion of the given phase and advances
// to its successor. On a non-terminal transition it returns the next
// phase's instruction payload, which is also queued for the agent loop
// via TakePendingInstruction. On reaching Done it returns a terminal
// status and no payload. The new state is persisted before returning.
func (o *Orchestrator) MarkPhaseComplete(ctx context.Context, unitID string, asserted workflow.Phase) (*InstructionPayload, *TerminalStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.sessions[unitID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotActive, unitID)
	}

	now := o.clock()
	if err := sess.state.Advance(asserted, now); err != nil {
		return nil, nil, err
	}
	if err := o.persistLocked(ctx, sess, now); err != nil {
		return nil, nil, err
	}

	if sess.state.IsTerminal() {
		o.logger.Info("workflow finished: unit=%s phase=%s", unitID, sess.state.CurrentPhase)
		return nil, o.terminalStatusLocked(sess, now), nil
	}

	payload := instructionFor(sess.state.CurrentPhase, unitID)
	sess.pending = payload
	o.logger.Info("phase transition: unit=%s %s -> %s", unitID, asserted, sess.state.CurrentPhase)
	return payload, nil, nil
}

// TakePendingInstruction returns and clears the instruction payload
// queued by the most recent phase transition, if any. The agent loop
// consumes this after its dispatch barrier to inject the next phase's
// objective into the conversation.
func (o *Orchestrator) TakePendingInstruction(unitID string) *InstructionPayload {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[unitID]
	if !ok || sess.pending == nil {
		return nil
	}
	p := sess.pending
	sess.pending = nil
	return p
}

// CurrentInstruction re-renders the instruction payload for the
// unit's current phase without touching the pending queue. Backs the
// workflow tool's get_phase_prompt action.
func (o *Orchestrator) CurrentInstruction(unitID string) (*InstructionPayload, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[unitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, unitID)
	}
	return instructionFor(sess.state.CurrentPhase, unitID), nil
}

// Abort moves the unit to the Aborted terminal phase with the given
// reason and persists. Idempotent for already-aborted units.
func (o *Orchestrator) Abort(ctx context.Context, unitID, reason string) (*TerminalStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock()
	sess, ok := o.sessions[unitID]
	if !ok {
		snap, err := o.memRepo.Load(ctx, unitID)
		if err != nil {
			return nil, fmt.Errorf("abort %s: %w", unitID, err)
		}
		if err := snap.Validate(); err != nil {
			return nil, fmt.Errorf("abort %s: %w", unitID, err)
		}
		sess = &session{state: snap.State, cm: service.RestoreContextManager(snap.Window, o.budget)}
		o.sessions[unitID] = sess
	}

	sess.state.Abort(reason, now)
	sess.pending = nil
	if err := o.persistLocked(ctx, sess, now); err != nil {
		return nil, err
	}
	o.logger.Warn("workflow aborted: unit=%s reason=%s", unitID, reason)
	return o.terminalStatusLocked(sess, now), nil
}

// TerminalStatus reports the outcome of a unit that reached Done or
// Aborted. Returns an error while the workflow is still live.
func (o *Orchestrator) TerminalStatus(unitID string) (*TerminalStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[unitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, unitID)
	}
	if !sess.state.IsTerminal() {
		return nil, fmt.Errorf("unit %s has not finished: phase %s", unitID, sess.state.CurrentPhase)
	}
	finished := o.clock()
	if n := len(sess.state.History); n > 0 {
		finished = sess.state.History[n-1].EnteredAt
	}
	return o.terminalStatusLocked(sess, finished), nil
}

// CurrentPhase reports the live phase for a unit, if it is active
func (o *Orchestrator) CurrentPhase(unitID string) (workflow.Phase, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[unitID]
	if !ok {
		return "", false
	}
	return sess.state.CurrentPhase, true
}

// State returns a copy of the workflow state for a unit, consulting
// storage when the unit is not live in this process.
func (o *Orchestrator) State(ctx context.Context, unitID string) (*workflow.State, error) {
	o.mu.Lock()
	if sess, ok := o.sessions[unitID]; ok {
		st := *sess.state
		st.History = append([]workflow.PhaseRecord(nil), sess.state.History...)
		o.mu.Unlock()
		return &st, nil
	}
	o.mu.Unlock()

	snap, err := o.memRepo.Load(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if snap.State == nil {
		return nil, memory.ErrSnapshotMalformed
	}
	return snap.State, nil
}

// Persist saves the unit's current state and conversation window as a
// fresh snapshot and returns its ID. The agent loop calls this at the
// end of every turn so an interruption at any point is resumable.
func (o *Orchestrator) Persist(ctx context.Context, unitID string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[unitID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotActive, unitID)
	}
	now := o.clock()
	snap := memory.NewSnapshot(sess.state, sess.cm.Window(), now)
	if err := o.memRepo.Save(ctx, snap); err != nil {
		return "", fmt.Errorf("persist snapshot for %s: %w", unitID, err)
	}
	return snap.SnapshotID, nil
}

// persistLocked saves a snapshot for sess. Caller holds o.mu.
func (o *Orchestrator) persistLocked(ctx context.Context, sess *session, now time.Time) error {
	snap := memory.NewSnapshot(sess.state, sess.cm.Window(), now)
	if err := o.memRepo.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot for %s: %w", sess.state.UnitID, err)
	}
	return nil
}

func (o *Orchestrator) terminalStatusLocked(sess *session, now time.Time) *TerminalStatus {
	return &TerminalStatus{
		UnitID:          sess.state.UnitID,
		Phase:           sess.state.CurrentPhase,
		CompletedPhases: sess.state.CompletedPhases(),
		StartedAt:       sess.state.CreatedAt,
		FinishedAt:      now,
		AbortReason:     sess.state.AbortReason,
	}
}
