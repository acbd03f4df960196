package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-insights/internal/models"
	"github.com/noah-isme/sma-adp-insights/pkg/jobs"
)

type snapshotStore interface {
	Save(ctx context.Context, snapshot *models.StudentSnapshot) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SnapshotService persists fetched payloads and expires old ones.
type SnapshotService struct {
	store     snapshotStore
	metrics   *MetricsService
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewSnapshotService constructs the service. A non-positive retention defaults to 30 days.
func NewSnapshotService(store snapshotStore, metrics *MetricsService, retention time.Duration, logger *zap.Logger) *SnapshotService {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{store: store, metrics: metrics, logger: logger, retention: retention, now: time.Now}
}

// HandleJob is the queue handler that writes one snapshot.
func (s *SnapshotService) HandleJob(ctx context.Context, job jobs.Job[models.StudentSnapshot]) error {
	snapshot := job.Payload
	start := time.Now()
	err := s.store.Save(ctx, &snapshot)
	s.metrics.ObserveDependency(DependencySnapshot, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("persist snapshot job %s: %w", job.ID, err)
	}
	s.logger.Debug("snapshot stored", zap.String("student_id", snapshot.StudentID), zap.String("job_id", job.ID))
	return nil
}

// Prune removes snapshots older than the retention window.
func (s *SnapshotService) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("snapshot prune failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, err
	}
	s.logger.Debug("snapshots pruned", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}
