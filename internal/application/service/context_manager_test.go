package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

func TestContextManager_PinRejectsOversizedPinnedContent(t *testing.T) {
	cm := NewContextManager(100)

	require.NoError(t, cm.Pin(conversation.Message{
		Role: conversation.RoleSystem, Content: strings.Repeat("a", 200), // 50 tokens
	}))
	err := cm.Pin(conversation.Message{
		Role: conversation.RoleSystem, Content: strings.Repeat("b", 400), // 100 tokens
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestContextManager_EvictionInsertsSummary(t *testing.T) {
	cm := NewContextManager(300)
	require.NoError(t, cm.Pin(conversation.Message{
		Role: conversation.RoleSystem, Content: strings.Repeat("p", 80), // 20 tokens
	}))

	for i := 0; i < 6; i++ {
		cm.Append(conversation.NewUserMessage(fmt.Sprintf("%d:%s", i, strings.Repeat("x", 240)))) // ~60 tokens
	}

	msgs := cm.Messages()
	assert.LessOrEqual(t, cm.TotalTokens(), 300)

	// pinned entry survives, then one summary, then the newest turns
	assert.Equal(t, conversation.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "earlier messages elided")
	last := msgs[len(msgs)-1]
	assert.True(t, strings.HasPrefix(last.Content, "5:"))
}

func TestContextManager_EvictionSkipsSummaryWhenPinnedNearBudget(t *testing.T) {
	cm := NewContextManager(30)
	require.NoError(t, cm.Pin(conversation.Message{
		Role: conversation.RoleSystem, Content: strings.Repeat("p", 112), // 28 tokens
	}))

	// Eviction empties the evictable partition; the summary entry must
	// not be inserted when it would push the total back over budget.
	cm.Append(conversation.NewUserMessage(strings.Repeat("x", 40))) // 10 tokens

	assert.LessOrEqual(t, cm.TotalTokens(), 30)
	msgs := cm.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, conversation.RoleSystem, msgs[0].Role)
}

func TestContextManager_OrderIsStable(t *testing.T) {
	cm := NewContextManager(10_000)
	cm.Append(conversation.NewUserMessage("one"))
	cm.Append(conversation.NewAssistantMessage("two", nil))
	cm.AppendToolResults([]conversation.ToolResult{
		{CallID: "c1", Output: "three"},
		{CallID: "c2", Err: "four failed"},
	})

	msgs := cm.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "c1", msgs[2].ToolCallID)
	assert.Equal(t, "ERROR: four failed", msgs[3].Content)

	// Messages is repeatable for unchanged content
	assert.Equal(t, msgs, cm.Messages())
}

func TestRestoreContextManager(t *testing.T) {
	w := conversation.NewWindow()
	w.AppendPinned(conversation.Message{Role: conversation.RoleSystem, Content: "identity"})
	w.Append(conversation.NewUserMessage("history"))

	cm := RestoreContextManager(w.Clone(), 0)
	msgs := cm.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "identity", msgs[0].Content)

	// nil window restores to an empty manager
	empty := RestoreContextManager(nil, 500)
	assert.Empty(t, empty.Messages())
}

func TestContextManager_WindowIsDeepCopy(t *testing.T) {
	cm := NewContextManager(1000)
	cm.Append(conversation.NewUserMessage("original"))

	snap := cm.Window()
	snap.Append(conversation.NewUserMessage("snapshot only"))

	assert.Len(t, cm.Messages(), 1)
	assert.Equal(t, 2, snap.Len())
}
