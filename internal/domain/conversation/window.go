package conversation

// Window is the ordered message sequence presented to the oracle.
// It is partitioned into a pinned section (system instructions, the
// current phase objective) that is never evicted, and an evictable
// section (turn history) that is trimmed oldest-first under budget
// pressure. Sequence numbers are assigned on append and are stable
// across eviction so callers can reason about insertion order.
type Window struct {
	Pinned    []Message `json:"pinned"`
	Evictable []Message `json:"evictable"`
	NextSeq   int       `json:"next_seq"`
}

// NewWindow creates an empty context window
func NewWindow() *Window {
	return &Window{}
}

// AppendPinned adds a message to the pinned partition
func (w *Window) AppendPinned(m Message) {
	m.Seq = w.NextSeq
	w.NextSeq++
	w.Pinned = append(w.Pinned, m)
}

// Append adds a message to the tail of the evictable partition
func (w *Window) Append(m Message) {
	m.Seq = w.NextSeq
	w.NextSeq++
	w.Evictable = append(w.Evictable, m)
}

// Messages returns pinned entries followed by evictable entries in
// insertion order. The returned slice is a copy; mutating it does not
// affect the window.
func (w *Window) Messages() []Message {
	out := make([]Message, 0, len(w.Pinned)+len(w.Evictable))
	out = append(out, w.Pinned...)
	out = append(out, w.Evictable...)
	return out
}

// Len returns the total number of messages in the window
func (w *Window) Len() int {
	return len(w.Pinned) + len(w.Evictable)
}

// PinnedTokens returns the estimated token count of the pinned partition
func (w *Window) PinnedTokens() int {
	n := 0
	for _, m := range w.Pinned {
		n += m.EstimateTokens()
	}
	return n
}

// TotalTokens returns the estimated token count of the whole window
func (w *Window) TotalTokens() int {
	n := w.PinnedTokens()
	for _, m := range w.Evictable {
		n += m.EstimateTokens()
	}
	return n
}

// EvictOldest removes evictable messages oldest-first until the total
// estimated token count is at or under budget, and returns how many
// messages were removed. Pinned entries are never touched.
func (w *Window) EvictOldest(budget int) int {
	evicted := 0
	for w.TotalTokens() > budget && len(w.Evictable) > 0 {
		w.Evictable = w.Evictable[1:]
		evicted++
	}
	return evicted
}

// Clone returns a deep copy of the window, safe for snapshotting while
// the original continues to be mutated.
func (w *Window) Clone() *Window {
	c := &Window{NextSeq: w.NextSeq}
	c.Pinned = cloneMessages(w.Pinned)
	c.Evictable = cloneMessages(w.Evictable)
	return c
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	for i := range out {
		if out[i].ToolCalls != nil {
			calls := make([]ToolCall, len(out[i].ToolCalls))
			copy(calls, out[i].ToolCalls)
			out[i].ToolCalls = calls
		}
	}
	return out
}
