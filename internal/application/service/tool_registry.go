package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

// ErrDuplicateName is returned when registering a tool name twice
var ErrDuplicateName = errors.New("tool name already registered")

// ToolHandler executes one named action. Handlers report failures as
// errors; they are never allowed to crash the loop.
type ToolHandler interface {
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolHandlerFunc adapts a function to the ToolHandler interface
type ToolHandlerFunc func(ctx context.Context, args map[string]interface{}) (string, error)

func (f ToolHandlerFunc) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return f(ctx, args)
}

// Registration binds a tool schema to its handler and the phases in
// which the oracle is offered the tool. An empty Phases list means the
// tool is available in every phase.
type Registration struct {
	Schema  output.ToolSchema
	Handler ToolHandler
	Phases  []workflow.Phase
}

// ToolRegistry maps action names to handlers and dispatches calls.
// The mapping is frozen before loop execution starts, so concurrent
// dispatch from independent workflow instances is safe.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Registration
	order []string
}

// NewToolRegistry creates an empty registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Registration)}
}

// Register adds a tool. Fails with ErrDuplicateName if the name is taken.
func (r *ToolRegistry) Register(reg Registration) error {
	if reg.Schema.Name == "" {
		return fmt.Errorf("tool schema has empty name")
	}
	if reg.Handler == nil {
		return fmt.Errorf("tool %s has nil handler", reg.Schema.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[reg.Schema.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, reg.Schema.Name)
	}
	r.tools[reg.Schema.Name] = reg
	r.order = append(r.order, reg.Schema.Name)
	return nil
}

// SchemasFor returns the schemas offered to the oracle in the given
// phase, in registration order for deterministic prompting.
func (r *ToolRegistry) SchemasFor(phase workflow.Phase) []output.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]output.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		reg := r.tools[name]
		if len(reg.Phases) == 0 {
			out = append(out, reg.Schema)
			continue
		}
		for _, p := range reg.Phases {
			if p == phase {
				out = append(out, reg.Schema)
				break
			}
		}
	}
	return out
}

// Dispatch runs the handler for a call and converts every failure
// mode, including handler panics and unknown names, into a structured
// result. It never propagates an uncaught fault: the oracle observes
// failures inside the conversation instead of crashing the loop.
func (r *ToolRegistry) Dispatch(ctx context.Context, call conversation.ToolCall) (res conversation.ToolResult) {
	res = conversation.ToolResult{CallID: call.ID}

	defer func() {
		if p := recover(); p != nil {
			res.Output = ""
			res.Err = fmt.Sprintf("tool %s panicked: %v", call.Name, p)
		}
	}()

	r.mu.RLock()
	reg, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		res.Err = fmt.Sprintf("unknown tool: %s", call.Name)
		return res
	}

	out, err := reg.Handler.Execute(ctx, call.Arguments)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Output = out
	return res
}

// Names returns all registered tool names in registration order
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
