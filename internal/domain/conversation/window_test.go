package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_AppendAssignsStableSeq(t *testing.T) {
	w := NewWindow()
	w.AppendPinned(Message{Role: RoleSystem, Content: "identity"})
	w.Append(NewUserMessage("first"))
	w.Append(NewUserMessage("second"))

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, 0, msgs[0].Seq)
	assert.Equal(t, 1, msgs[1].Seq)
	assert.Equal(t, 2, msgs[2].Seq)

	// pinned entries come first regardless of append order
	w.AppendPinned(Message{Role: RoleSystem, Content: "late pin"})
	msgs = w.Messages()
	assert.Equal(t, RoleSystem, msgs[1].Role)
	assert.Equal(t, 3, msgs[1].Seq)
}

func TestWindow_EvictOldestSparesPinned(t *testing.T) {
	w := NewWindow()
	w.AppendPinned(Message{Role: RoleSystem, Content: strings.Repeat("p", 40)})
	for i := 0; i < 5; i++ {
		w.Append(NewUserMessage(strings.Repeat("x", 400))) // ~100 tokens each
	}

	evicted := w.EvictOldest(250)
	assert.Equal(t, 3, evicted)
	assert.Len(t, w.Pinned, 1)
	assert.Len(t, w.Evictable, 2)
	assert.LessOrEqual(t, w.TotalTokens(), 250)

	// oldest-first: the survivors are the most recent appends
	assert.Equal(t, 4, w.Evictable[0].Seq)
}

func TestWindow_EvictOldestStopsWhenOnlyPinnedRemain(t *testing.T) {
	w := NewWindow()
	w.AppendPinned(Message{Role: RoleSystem, Content: strings.Repeat("p", 400)})
	w.Append(NewUserMessage("small"))

	evicted := w.EvictOldest(10)
	assert.Equal(t, 1, evicted)
	assert.Empty(t, w.Evictable)
	assert.Greater(t, w.TotalTokens(), 10)
}

func TestWindow_CloneIsIndependent(t *testing.T) {
	w := NewWindow()
	w.Append(NewAssistantMessage("working", []ToolCall{{ID: "c1", Name: "git_status"}}))

	c := w.Clone()
	c.Append(NewUserMessage("only in clone"))
	c.Evictable[0].ToolCalls[0].Name = "mutated"

	assert.Equal(t, 1, w.Len())
	assert.Equal(t, "git_status", w.Evictable[0].ToolCalls[0].Name)
	assert.Equal(t, 2, c.Len())
}

func TestMessage_EstimateTokens(t *testing.T) {
	assert.Equal(t, 1, Message{Content: ""}.EstimateTokens())
	assert.Equal(t, 25, Message{Content: strings.Repeat("a", 100)}.EstimateTokens())
}

func TestToolResult_ModelOutput(t *testing.T) {
	ok := ToolResult{CallID: "c1", Output: "clean"}
	assert.False(t, ok.IsError())
	assert.Equal(t, "clean", ok.ModelOutput())

	bad := ToolResult{CallID: "c2", Err: "remote hung up"}
	assert.True(t, bad.IsError())
	assert.Equal(t, "ERROR: remote hung up", bad.ModelOutput())
}
