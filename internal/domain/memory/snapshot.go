package memory

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
	"github.com/Hell1213/Oss-Dev/internal/domain/workflow"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a unit
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotMalformed is returned when a persisted snapshot cannot
	// be decoded or fails validation. Resume never fabricates state from
	// a malformed snapshot.
	ErrSnapshotMalformed = errors.New("snapshot malformed")
)

// Snapshot is the durable source of truth for one unit of work.
// Newer snapshots supersede older ones for the same unit ID.
type Snapshot struct {
	SnapshotID string               `json:"snapshot_id"`
	State      *workflow.State      `json:"state"`
	Window     *conversation.Window `json:"window"`
	SavedAt    time.Time            `json:"saved_at"`
}

// NewSnapshot captures the given state and window under a fresh ULID
func NewSnapshot(state *workflow.State, window *conversation.Window, now time.Time) *Snapshot {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	return &Snapshot{
		SnapshotID: id.String(),
		State:      state,
		Window:     window,
		SavedAt:    now,
	}
}

// UnitID returns the unit the snapshot belongs to
func (s *Snapshot) UnitID() string {
	if s.State == nil {
		return ""
	}
	return s.State.UnitID
}

// Validate checks that a loaded snapshot is usable for resume
func (s *Snapshot) Validate() error {
	if s.State == nil || s.Window == nil {
		return ErrSnapshotMalformed
	}
	if err := s.State.Validate(); err != nil {
		return errors.Join(ErrSnapshotMalformed, err)
	}
	return nil
}

// Repository persists snapshots keyed by unit ID. Save is
// overwrite-on-write, last-writer-wins per unit, and must be atomic:
// a crash mid-save never leaves a partially written snapshot behind.
// Implementations serialize writes to the same key.
type Repository interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, unitID string) (*Snapshot, error)
	List(ctx context.Context) ([]*Snapshot, error)
	Delete(ctx context.Context, unitID string) error
}
