package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/application/service"
	inframem "github.com/Hell1213/Oss-Dev/internal/infra/repository/memory"
)

// MemoryTool exposes the per-unit notes store to the oracle so issue
// intent, plan, and known limitations survive context eviction and
// resumes.
type MemoryTool struct {
	store  *inframem.NotesStore
	unitID string
}

// NewMemoryTool binds the notes store to one unit of work
func NewMemoryTool(store *inframem.NotesStore, unitID string) *MemoryTool {
	return &MemoryTool{store: store, unitID: unitID}
}

// Registration returns the tool's registry entry, available in every phase
func (t *MemoryTool) Registration() service.Registration {
	return service.Registration{
		Schema: output.ToolSchema{
			Name: "branch_memory",
			Description: "Durable notes for this unit of work. Store the issue intent, the plan, " +
				"and known limitations so they survive interruptions; read them back in later phases.",
			Parameters: objectSchema([]string{"action"}, map[string]interface{}{
				"action": enumProp("Memory action", "set", "get", "list"),
				"key":    prop("string", "Note key, e.g. issue_intent or plan"),
				"value":  prop("string", "For set: the note content"),
			}),
		},
		Handler: service.ToolHandlerFunc(t.execute),
	}
}

func (t *MemoryTool) execute(ctx context.Context, args map[string]interface{}) (string, error) {
	action, err := stringArg(args, "action")
	if err != nil {
		return "", err
	}

	switch action {
	case "set":
		key, err := stringArg(args, "key")
		if err != nil {
			return "", err
		}
		value, err := stringArg(args, "value")
		if err != nil {
			return "", err
		}
		if err := t.store.Set(ctx, t.unitID, key, value); err != nil {
			return "", err
		}
		return fmt.Sprintf("stored note %q", key), nil

	case "get":
		key, err := stringArg(args, "key")
		if err != nil {
			return "", err
		}
		value, ok, err := t.store.Get(ctx, t.unitID, key)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("no note stored under %q", key)
		}
		return value, nil

	case "list":
		notes, keys, err := t.store.All(ctx, t.unitID)
		if err != nil {
			return "", err
		}
		if len(keys) == 0 {
			return "no notes stored", nil
		}
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, notes[k])
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("unknown memory action %q", action)
	}
}
