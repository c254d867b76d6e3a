package conversation

// Role identifies the author of a message in the oracle conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// IsValid returns true if the role is one of the known conversation roles
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// ToolCall is a single action requested by the oracle within a turn.
// The ID is unique within the turn and correlates the call with its result.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ToolResult is the outcome of exactly one ToolCall, matched by CallID.
type ToolResult struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
	Err    string `json:"error,omitempty"`
}

// IsError returns true if the result carries an error
func (r ToolResult) IsError() bool {
	return r.Err != ""
}

// ModelOutput renders the result as the text fed back to the oracle
func (r ToolResult) ModelOutput() string {
	if r.Err != "" {
		return "ERROR: " + r.Err
	}
	return r.Output
}

// Message is one entry of the conversation fed to the oracle.
// Assistant messages may carry tool calls; tool messages carry the
// result for exactly one call, identified by ToolCallID.
type Message struct {
	Seq        int        `json:"seq"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewUserMessage creates an unsequenced user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an unsequenced assistant message with optional tool calls
func NewAssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage creates an unsequenced tool message from a result
func NewToolMessage(res ToolResult) Message {
	return Message{Role: RoleTool, Content: res.ModelOutput(), ToolCallID: res.CallID}
}

// EstimateTokens returns a rough token count for the message content.
// Four characters per token is a close enough estimate for budgeting.
func (m Message) EstimateTokens() int {
	n := len(m.Content) / 4
	for _, tc := range m.ToolCalls {
		n += (len(tc.Name) + len(tc.ID)) / 4
	}
	if n == 0 {
		n = 1
	}
	return n
}
