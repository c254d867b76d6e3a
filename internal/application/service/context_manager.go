package service

import (
	"fmt"
	"sync"

	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

// DefaultContextBudget is used when no budget is configured
const DefaultContextBudget = 32_000

// ContextManager owns the ordered message sequence sent to the oracle.
// It enforces the token budget by evicting the oldest evictable
// messages, replacing the elided span with a single summary entry.
// Pinned entries (system instructions, the current phase objective)
// are exempt from eviction; a budget violation from pinned content
// alone is a configuration error, not an eviction target.
type ContextManager struct {
	mu     sync.Mutex
	window *conversation.Window
	budget int
}

// NewContextManager creates a manager with an empty window
func NewContextManager(budget int) *ContextManager {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &ContextManager{window: conversation.NewWindow(), budget: budget}
}

// RestoreContextManager wraps a window loaded from a snapshot
func RestoreContextManager(window *conversation.Window, budget int) *ContextManager {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	if window == nil {
		window = conversation.NewWindow()
	}
	return &ContextManager{window: window, budget: budget}
}

// Pin appends a non-evictable message. Fails if pinned content alone
// would exceed the budget, since eviction could never recover from that.
func (c *ContextManager) Pin(m conversation.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.window.PinnedTokens()+m.EstimateTokens() > c.budget {
		return fmt.Errorf("pinned content exceeds context budget %d tokens: configuration error", c.budget)
	}
	c.window.AppendPinned(m)
	c.evictLocked()
	return nil
}

// Append adds a message to the tail of the evictable partition and
// enforces the budget.
func (c *ContextManager) Append(m conversation.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window.Append(m)
	c.evictLocked()
}

// AppendToolResults appends one tool message per result, preserving
// call-id correspondence with the preceding assistant message.
func (c *ContextManager) AppendToolResults(results []conversation.ToolResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, res := range results {
		c.window.Append(conversation.NewToolMessage(res))
	}
	c.evictLocked()
}

// Messages returns pinned entries followed by evictable entries in
// insertion order. The same ordered sequence is produced for identical
// window contents, which the oracle contract requires.
func (c *ContextManager) Messages() []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Messages()
}

// Window returns a deep copy of the current window for snapshotting
func (c *ContextManager) Window() *conversation.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Clone()
}

// TotalTokens returns the estimated size of the current window
func (c *ContextManager) TotalTokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.TotalTokens()
}

// evictLocked trims oldest evictable messages until the window fits
// the budget, leaving one summary entry in place of the elided span.
// Caller holds c.mu.
func (c *ContextManager) evictLocked() {
	if c.window.TotalTokens() <= c.budget {
		return
	}
	// Reserve room for the summary entry so the post-eviction window
	// stays within budget.
	const summaryReserve = 20
	evicted := c.window.EvictOldest(c.budget - summaryReserve)
	if evicted == 0 {
		return
	}
	summary := conversation.Message{
		Role:    conversation.RoleUser,
		Content: fmt.Sprintf("[%d earlier messages elided to fit the context budget]", evicted),
	}
	// When pinned content sits close enough to the budget that the
	// summary itself would not fit, drop the elided span without one.
	if c.window.TotalTokens()+summary.EstimateTokens() > c.budget {
		return
	}
	// Prepend the summary to the evictable partition without consuming
	// a fresh sequence number slot out of order.
	summary.Seq = c.window.NextSeq
	c.window.NextSeq++
	c.window.Evictable = append([]conversation.Message{summary}, c.window.Evictable...)
}
