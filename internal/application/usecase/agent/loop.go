package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// ErrTurnBudgetExceeded signals that the loop stopped because it used
// up its turn budget before the workflow finished. The run is fully
// resumable; callers distinguish this from hard failures.
var ErrTurnBudgetExceeded = errors.New("turn budget exceeded")

// StopReason explains why a run ended
type StopReason string

const (
	// StopCompleted: the workflow reached Done
	StopCompleted StopReason = "completed"
	// StopAborted: the workflow reached Aborted
	StopAborted StopReason = "aborted"
	// StopStalled: the oracle produced no tool calls and no phase
	// transition was pending, so there was nothing left to drive
	StopStalled StopReason = "stalled"
	// StopTurnBudget: the configured turn ceiling was reached
	StopTurnBudget StopReason = "turn_budget"
	// StopWallClock: the wall-clock deadline expired
	StopWallClock StopReason = "wall_clock"
	// StopOracleFailure: the oracle failed past its retry budget
	StopOracleFailure StopReason = "oracle_failure"
	// StopCanceled: the caller canceled the run
	StopCanceled StopReason = "canceled"
)

// RunResult summarizes one loop run over a unit of work
type RunResult struct {
	UnitID         string
	StopReason     StopReason
	Turns          int
	FinalPhase     workflow.Phase
	Terminal       *orchestrator.TerminalStatus
	LastSnapshotID string
}

// Loop drives the oracle/tool conversation for one unit of work. Each
// turn sends the window to the oracle, executes every requested tool
// call in issue order, feeds results back, and persists a snapshot.
// Turn and wall-clock ceilings bound the run; hitting either leaves a
// resumable snapshot behind.
type Loop struct {
	oracle   output.OracleGateway
	registry *service.ToolRegistry
	orch     *orchestrator.Orchestrator
	journal  output.JournalWriter
	logger   app.Logger

	maxTurns  int
	wallClock time.Duration
	clock     func() time.Time
}

// NewLoop wires a loop. journal may be nil when auditing is disabled.
func NewLoop(
	oracle output.OracleGateway,
	registry *service.ToolRegistry,
	orch *orchestrator.Orchestrator,
	journal output.JournalWriter,
	logger app.Logger,
	maxTurns int,
	wallClock time.Duration,
) *Loop {
	if logger == nil {
		logger = app.NopLogger{}
	}
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Loop{
		oracle:    oracle,
		registry:  registry,
		orch:      orch,
		journal:   journal,
		logger:    logger,
		maxTurns:  maxTurns,
		wallClock: wallClock,
		clock:     time.Now,
	}
}

// Run executes turns for the unit until the workflow is terminal, the
// oracle has nothing further to do, a budget runs out, or the context
// is canceled. cm must be the context manager registered with the
// orchestrator for this unit (from Start or Resume).
func (l *Loop) Run(ctx context.Context, unitID string, cm *service.ContextManager) (*RunResult, error) {
	if l.wallClock > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wallClock)
		defer cancel()
	}

	result := &RunResult{UnitID: unitID}

	for turn := 1; turn <= l.maxTurns; turn++ {
		result.Turns = turn
		turnStart := l.clock()

		phase, ok := l.orch.CurrentPhase(unitID)
		if !ok {
			return result, fmt.Errorf("%w: %s", orchestrator.ErrNotActive, unitID)
		}
		result.FinalPhase = phase

		resp, err := l.oracle.Invoke(ctx, cm.Messages(), l.registry.SchemasFor(phase))
		if err != nil {
			reason := StopOracleFailure
			if ctx.Err() != nil {
				reason = l.cancelReason(ctx)
			}
			result.StopReason = reason
			l.persistAndJournal(unitID, result, turn, phase, nil, turnStart, err)
			return result, fmt.Errorf("oracle invocation on turn %d: %w", turn, err)
		}

		cm.Append(conversation.NewAssistantMessage(resp.Content, resp.ToolCalls))

		// Every issued call gets exactly one result before the next
		// oracle invocation, even when cancellation interrupts the turn.
		results, interrupted := l.dispatchAll(ctx, resp.ToolCalls)
		if len(results) > 0 {
			cm.AppendToolResults(results)
		}

		// A phase transition queued during dispatch grants one more turn
		// so the oracle sees the new phase instructions, even if this
		// turn would otherwise have ended the run.
		transitioned := false
		if payload := l.orch.TakePendingInstruction(unitID); payload != nil {
			cm.Append(conversation.NewUserMessage(payload.Text))
			transitioned = true
		}

		phase, _ = l.orch.CurrentPhase(unitID)
		result.FinalPhase = phase

		if phase.IsTerminal() {
			if phase == workflow.PhaseAborted {
				result.StopReason = StopAborted
			} else {
				result.StopReason = StopCompleted
			}
			if status, err := l.orch.TerminalStatus(unitID); err == nil {
				result.Terminal = status
			}
			l.persistAndJournal(unitID, result, turn, phase, resp.ToolCalls, turnStart, nil)
			return result, nil
		}

		if interrupted {
			result.StopReason = l.cancelReason(ctx)
			l.persistAndJournal(unitID, result, turn, phase, resp.ToolCalls, turnStart, ctx.Err())
			return result, fmt.Errorf("run interrupted on turn %d: %w", turn, ctx.Err())
		}

		if len(resp.ToolCalls) == 0 && !transitioned {
			result.StopReason = StopStalled
			l.persistAndJournal(unitID, result, turn, phase, nil, turnStart, nil)
			l.logger.Warn("loop stalled: unit=%s phase=%s turn=%d", unitID, phase, turn)
			return result, nil
		}

		l.persistAndJournal(unitID, result, turn, phase, resp.ToolCalls, turnStart, nil)
	}

	result.StopReason = StopTurnBudget
	l.logger.Warn("turn budget reached: unit=%s turns=%d phase=%s", unitID, l.maxTurns, result.FinalPhase)
	return result, fmt.Errorf("%w: %d turns used, workflow in phase %s", ErrTurnBudgetExceeded, l.maxTurns, result.FinalPhase)
}

// dispatchAll executes calls in issue order. When the context dies
// mid-turn the remaining calls get synthesized cancellation results so
// the result set still matches the issued calls one to one.
func (l *Loop) dispatchAll(ctx context.Context, calls []conversation.ToolCall) ([]conversation.ToolResult, bool) {
	results := make([]conversation.ToolResult, 0, len(calls))
	interrupted := false
	for _, call := range calls {
		if interrupted || ctx.Err() != nil {
			interrupted = true
			results = append(results, conversation.ToolResult{
				CallID: call.ID,
				Err:    "canceled before execution",
			})
			continue
		}
		res := l.registry.Dispatch(ctx, call)
		if res.IsError() {
			l.logger.Debug("tool call failed: name=%s err=%s", call.Name, res.Err)
		}
		results = append(results, res)
		if ctx.Err() != nil {
			interrupted = true
		}
	}
	return results, interrupted
}

func (l *Loop) cancelReason(ctx context.Context) StopReason {
	if l.wallClock > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StopWallClock
	}
	return StopCanceled
}

// persistAndJournal snapshots the unit and appends a journal entry for
// the turn. Neither failure interrupts the run outcome; both are logged.
func (l *Loop) persistAndJournal(unitID string, result *RunResult, turn int, phase workflow.Phase, calls []conversation.ToolCall, turnStart time.Time, turnErr error) {
	// Persistence uses a background context: a canceled run must still
	// leave a resumable snapshot behind.
	snapID, err := l.orch.Persist(context.Background(), unitID)
	if err != nil {
		l.logger.Error("snapshot persist failed: unit=%s turn=%d err=%v", unitID, turn, err)
	} else {
		result.LastSnapshotID = snapID
	}

	if l.journal == nil {
		return
	}
	entry := &output.JournalEntry{
		TS:         l.clock().UTC().Format(time.RFC3339Nano),
		UnitID:     unitID,
		Turn:       turn,
		Phase:      string(phase),
		ElapsedMs:  l.clock().Sub(turnStart).Milliseconds(),
		StopReason: string(result.StopReason),
		SnapshotID: snapID,
	}
	for _, c := range calls {
		entry.ToolCalls = append(entry.ToolCalls, c.Name)
	}
	if turnErr != nil {
		entry.Error = turnErr.Error()
	}
	if err := l.journal.Append(context.Background(), entry); err != nil {
		l.logger.Warn("journal append failed: unit=%s turn=%d err=%v", unitID, turn, err)
	}
}
