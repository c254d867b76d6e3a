package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/application/usecase/orchestrator"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// WorkflowTool is the reserved control tool. Calling it with
// mark_phase_complete is the only way the oracle can advance the
// pipeline; get_phase_prompt and get_status are read-only helpers.
type WorkflowTool struct {
	orch   *orchestrator.Orchestrator
	unitID string
}

// NewWorkflowTool binds the control tool to one unit of work
func NewWorkflowTool(orch *orchestrator.Orchestrator, unitID string) *WorkflowTool {
	return &WorkflowTool{orch: orch, unitID: unitID}
}

// Registration returns the tool's registry entry, available in every phase
func (t *WorkflowTool) Registration() service.Registration {
	return service.Registration{
		Schema: output.ToolSchema{
			Name: "workflow",
			Description: "Control the contribution workflow. Use mark_phase_complete when the " +
				"current phase's objective is met; use get_phase_prompt to re-read the current " +
				"objective; use get_status to see overall progress.",
			Parameters: objectSchema([]string{"action"}, map[string]interface{}{
				"action": enumProp("Workflow action to perform", "mark_phase_complete", "get_phase_prompt", "get_status"),
				"phase":  prop("string", "For mark_phase_complete: the phase being completed (must match the current phase)"),
			}),
		},
		Handler: service.ToolHandlerFunc(t.execute),
	}
}

func (t *WorkflowTool) execute(ctx context.Context, args map[string]interface{}) (string, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return "", err
	}

	switch action {
	case "mark_phase_complete":
		phaseArg, err := stringArg(args, "phase")
		if err != nil {
			return "", err
		}
		phase := workflow.Phase(phaseArg)
		if !phase.IsValid() {
			return "", fmt.Errorf("unknown phase %q", phaseArg)
		}
		payload, terminal, err := t.orch.MarkPhaseComplete(ctx, t.unitID, phase)
		if err != nil {
			return "", err
		}
		if terminal != nil {
			return terminal.Summary(), nil
		}
		return fmt.Sprintf("Phase %s complete. Now in phase %s; instructions follow.", phase, payload.Phase), nil

	case "get_phase_prompt":
		payload, err := t.orch.CurrentInstruction(t.unitID)
		if err != nil {
			return "", err
		}
		return payload.Text, nil

	case "get_status":
		state, err := t.orch.State(ctx, t.unitID)
		if err != nil {
			return "", err
		}
		status := map[string]interface{}{
			"unit_id":          state.UnitID,
			"current_phase":    state.CurrentPhase,
			"completed_phases": state.CompletedPhases(),
			"total_phases":     len(workflow.Phases()) - 1, // Done is not a working phase
		}
		if state.AbortReason != "" {
			status["abort_reason"] = state.AbortReason
		}
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("unknown workflow action %q", action)
	}
}
