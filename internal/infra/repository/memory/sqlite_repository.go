package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Hell1213/Oss-Dev/internal/domain/memory"
)

// SQLiteRepository stores snapshots in a single SQLite table keyed by
// unit ID. The upsert replaces the previous row, giving last-writer-
// wins semantics; SQLite's transactional writes give atomicity.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (creating if needed) the snapshot
// database at path and ensures the schema exists.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	// Serialized writes; busy_timeout covers concurrent CLI invocations
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open snapshot database %s: %w", path, err)
	}
	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteRepository wraps an existing database handle (tests)
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			unit_id     TEXT PRIMARY KEY,
			snapshot_id TEXT NOT NULL,
			phase       TEXT NOT NULL,
			body        TEXT NOT NULL,
			saved_at    TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Save upserts the snapshot row for the unit
func (r *SQLiteRepository) Save(ctx context.Context, snap *memory.Snapshot) error {
	unitID := snap.UnitID()
	if unitID == "" {
		return fmt.Errorf("%w: snapshot has no unit ID", memory.ErrSnapshotMalformed)
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", unitID, err)
	}

	query := `
		INSERT INTO snapshots (unit_id, snapshot_id, phase, body, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(unit_id) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			phase = excluded.phase,
			body = excluded.body,
			saved_at = excluded.saved_at
	`
	_, err = r.db.ExecContext(ctx, query,
		unitID, snap.SnapshotID, string(snap.State.CurrentPhase), string(body), snap.SavedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", unitID, err)
	}
	return nil
}

// Load reads the snapshot for the unit
func (r *SQLiteRepository) Load(ctx context.Context, unitID string) (*memory.Snapshot, error) {
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE unit_id = ?`, unitID,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", memory.ErrSnapshotNotFound, unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", unitID, err)
	}
	return decodeSnapshot(unitID, body)
}

// List returns every snapshot ordered by unit ID. Rows that fail to
// decode are skipped, matching the file backend.
func (r *SQLiteRepository) List(ctx context.Context) ([]*memory.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT unit_id, body FROM snapshots ORDER BY unit_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*memory.Snapshot
	for rows.Next() {
		var unitID, body string
		if err := rows.Scan(&unitID, &body); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap, err := decodeSnapshot(unitID, body)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Delete removes the snapshot row for a unit
func (r *SQLiteRepository) Delete(ctx context.Context, unitID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE unit_id = ?`, unitID)
	if err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", unitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", memory.ErrSnapshotNotFound, unitID)
	}
	return nil
}

func decodeSnapshot(unitID, body string) (*memory.Snapshot, error) {
	var snap memory.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", memory.ErrSnapshotMalformed, unitID, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", unitID, err)
	}
	return &snap, nil
}
