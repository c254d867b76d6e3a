package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

// MockGateway replays a scripted sequence of responses. It backs the
// "mock" oracle backend for offline runs and is the deterministic
// substitute required by loop tests.
type MockGateway struct {
	mu        sync.Mutex
	script    []*output.OracleResponse
	pos       int
	callCount int
}

// NewMockGateway creates a gateway that replays script in order.
// After the script runs out every invocation answers with empty
// content and no tool calls.
func NewMockGateway(script []*output.OracleResponse) *MockGateway {
	return &MockGateway{script: script}
}

func (g *MockGateway) Name() string { return "mock" }

// Invoke returns the next scripted response
func (g *MockGateway) Invoke(ctx context.Context, _ []conversation.Message, _ []output.ToolSchema) (*output.OracleResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.callCount++
	if g.pos >= len(g.script) {
		return &output.OracleResponse{Content: fmt.Sprintf("mock script exhausted after %d steps", len(g.script))}, nil
	}
	resp := g.script[g.pos]
	g.pos++
	return resp, nil
}

// CallCount reports how many times Invoke ran
func (g *MockGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callCount
}
