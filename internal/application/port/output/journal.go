package output

import "context"

// JournalEntry records one agent-loop turn for auditing
type JournalEntry struct {
	TS         string   `json:"ts"`
	UnitID     string   `json:"unit_id"`
	Turn       int      `json:"turn"`
	Phase      string   `json:"phase"`
	ToolCalls  []string `json:"tool_calls"`
	StopReason string   `json:"stop_reason,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
	Error      string   `json:"error,omitempty"`
	SnapshotID string   `json:"snapshot_id,omitempty"`
}

// JournalWriter appends turn records to the audit journal. Journal
// failures are reported but must never block loop execution.
type JournalWriter interface {
	Append(ctx context.Context, entry *JournalEntry) error
}
