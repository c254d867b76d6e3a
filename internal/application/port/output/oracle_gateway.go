package output

import (
	"context"
	"errors"

	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

// ErrOracleUnavailable wraps failures that exhausted the bounded retry
// budget. The loop halts on it after persisting state; the run stays
// resumable.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// ToolSchema describes one tool offered to the oracle for a turn.
// Parameters is a JSON-schema object in the shape the oracle backend
// expects for function calling.
type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// OracleResponse is the oracle's answer for one invocation: free text,
// a set of tool calls, or both. An empty ToolCalls slice means the
// oracle judged the current task complete.
type OracleResponse struct {
	Content    string
	ToolCalls  []conversation.ToolCall
	TokensUsed int
}

// OracleGateway is the interface to the external reasoning oracle.
// Implementations must treat the message sequence as opaque ordered
// input; tests substitute a deterministic stub.
type OracleGateway interface {
	// Invoke sends the conversation and available tool schemas and
	// returns the oracle's next step
	Invoke(ctx context.Context, messages []conversation.Message, tools []ToolSchema) (*OracleResponse, error)

	// Name identifies the backend (openai, mock)
	Name() string
}

// TransientError marks an oracle failure as retryable (network blip,
// rate limit). Gateways wrap such failures so the retry layer can
// distinguish them from permanent faults.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient oracle failure: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is marked retryable
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
