package output

import (
	"context"
	"time"

	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
)

// ArchiveGateway stores finished-run snapshots in external storage
// (S3) for audit and post-mortem inspection. Archival is best-effort:
// the workflow's durable source of truth remains the local snapshot
// store.
type ArchiveGateway interface {
	// ArchiveSnapshot uploads the snapshot and returns where it landed
	ArchiveSnapshot(ctx context.Context, snap *memory.Snapshot) (*ArchiveInfo, error)

	// ListArchives lists archived snapshots for a unit, newest first
	ListArchives(ctx context.Context, unitID string) ([]*ArchiveInfo, error)
}

// ArchiveInfo describes one archived snapshot object
type ArchiveInfo struct {
	UnitID      string    `json:"unit_id"`
	SnapshotID  string    `json:"snapshot_id"`
	StoragePath string    `json:"storage_path"` // e.g. s3://bucket/key
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
