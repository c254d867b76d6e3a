package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// Confirmer asks the operator a yes/no question. The default
// implementation prompts on the terminal; non-interactive runs inject
// an auto-approver.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PromptConfirmer asks on the controlling terminal
type PromptConfirmer struct{}

func (PromptConfirmer) Confirm(_ context.Context, question string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err == promptui.ErrAbort {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return true, nil
}

// AutoConfirmer answers every question the same way without prompting
type AutoConfirmer struct {
	Answer bool
}

func (a AutoConfirmer) Confirm(context.Context, string) (bool, error) {
	return a.Answer, nil
}

// ConfirmTool lets the oracle ask the operator before irreversible
// steps (pushing, opening the PR) and for scope clarifications.
type ConfirmTool struct {
	confirmer Confirmer
}

// NewConfirmTool wires the confirmation tool
func NewConfirmTool(confirmer Confirmer) *ConfirmTool {
	return &ConfirmTool{confirmer: confirmer}
}

// Registration returns the tool's registry entry
func (t *ConfirmTool) Registration() service.Registration {
	return service.Registration{
		Schema: output.ToolSchema{
			Name: "user_confirm",
			Description: "Ask the operator a single yes/no question. Use before pushing or opening " +
				"the PR, and for scope clarifications during planning.",
			Parameters: objectSchema([]string{"question"}, map[string]interface{}{
				"question": prop("string", "The yes/no question to ask"),
			}),
		},
		Handler: service.ToolHandlerFunc(t.execute),
		Phases: []workflow.Phase{
			workflow.PhasePlanning,
			workflow.PhaseCommitAndPR,
		},
	}
}

func (t *ConfirmTool) execute(ctx context.Context, args map[string]interface{}) (string, error) {
	question, err := stringArg(args, "question")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	yes, err := t.confirmer.Confirm(ctx, question)
	if err != nil {
		return "", err
	}
	if yes {
		return "operator answered: yes", nil
	}
	return "operator answered: no", nil
}
