package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-insights/internal/models"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

// SnapshotRepository keeps the latest upstream payload per student in Postgres.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot for its student.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *models.StudentSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_detail_snapshots (id, student_id, payload, fetched_at)
	VALUES ($1, $2, $3::jsonb, $4)
	ON CONFLICT (student_id) DO UPDATE SET id = EXCLUDED.id, payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at`
	// lib/pq sends []byte as bytea, so the payload travels as text
	if _, err := r.db.ExecContext(ctx, query, snapshot.ID, snapshot.StudentID, string(snapshot.Payload), snapshot.FetchedAt); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", snapshot.StudentID, err)
	}
	return nil
}

// Latest returns the stored snapshot for studentID or ErrNotFound.
func (r *SnapshotRepository) Latest(ctx context.Context, studentID string) (*models.StudentSnapshot, error) {
	const query = `SELECT id, student_id, payload, fetched_at FROM student_detail_snapshots WHERE student_id = $1`
	var snapshot models.StudentSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot for %s: %w", studentID, err)
	}
	return &snapshot, nil
}

// PruneOlderThan deletes snapshots fetched before cutoff and reports how many were removed.
func (r *SnapshotRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM student_detail_snapshots WHERE fetched_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots rows affected: %w", err)
	}
	return removed, nil
}
