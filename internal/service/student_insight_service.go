package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-adp-insights/internal/analytics"
	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
	"github.com/noah-isme/sma-adp-insights/internal/repository"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

type studentDetailSource interface {
	Fetch(ctx context.Context, studentID string) (json.RawMessage, error)
}

type snapshotReader interface {
	Latest(ctx context.Context, studentID string) (*models.StudentSnapshot, error)
}

type snapshotEnqueuer interface {
	TryEnqueue(snapshot models.StudentSnapshot) (string, error)
}

// StudentInsightConfig tunes insight behaviour.
type StudentInsightConfig struct {
	CacheTTL           time.Duration
	Location           *time.Location
	FeedbackWindowDays int
	Palette            analytics.Palette
}

// StudentInsightParams groups constructor dependencies. Snapshots and SnapshotQueue are optional.
type StudentInsightParams struct {
	Source        studentDetailSource
	Snapshots     snapshotReader
	SnapshotQueue snapshotEnqueuer
	Cache         *CacheService
	Metrics       *MetricsService
	Logger        *zap.Logger
	Config        StudentInsightConfig
}

// InsightOptions carries per-request overrides. Zero values use the service clock and timezone.
type InsightOptions struct {
	Now      time.Time
	Location *time.Location
}

// StudentInsightService loads student-detail payloads and runs the analytics engine over them.
type StudentInsightService struct {
	source    studentDetailSource
	snapshots snapshotReader
	queue     snapshotEnqueuer
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	group     singleflight.Group
	now       func() time.Time
	cfg       StudentInsightConfig
}

// NewStudentInsightService constructs the service with defaults applied.
func NewStudentInsightService(params StudentInsightParams) *StudentInsightService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FeedbackWindowDays <= 0 {
		cfg.FeedbackWindowDays = analytics.DefaultFeedbackWindowDays
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = analytics.DefaultPalette
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentInsightService{
		source:    params.Source,
		snapshots: params.Snapshots,
		queue:     params.SnapshotQueue,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Overview returns progress, the month index, the default month summary and recent feedback.
func (s *StudentInsightService) Overview(ctx context.Context, studentID string, opts InsightOptions) (*models.StudentOverview, bool, error) {
	dataset, hit, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	now, loc := s.resolve(opts)

	start := time.Now()
	overview := &models.StudentOverview{
		StudentID:      dataset.StudentID,
		Profile:        dataset.Profile,
		GeneratedAt:    now.UTC(),
		Progress:       s.progress(dataset, now),
		Months:         analytics.AvailableMonths(dataset.Lessons, loc),
		RecentFeedback: analytics.RecentFeedback(dataset.Feedback, s.cfg.FeedbackWindowDays, now.UnixMilli()),
	}
	if ym, ok := analytics.DefaultMonth(overview.Months, now.In(loc)); ok {
		summary := s.monthly(dataset, ym, loc)
		overview.SelectedMonth = &ym
		overview.Monthly = &summary
	}
	s.metrics.ObserveCompute("overview", time.Since(start))
	return overview, hit, nil
}

// Progress returns per-subject completion at opts.Now.
func (s *StudentInsightService) Progress(ctx context.Context, studentID string, opts InsightOptions) ([]models.SubjectProgress, bool, error) {
	dataset, hit, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	now, _ := s.resolve(opts)
	start := time.Now()
	rows := s.progress(dataset, now)
	s.metrics.ObserveCompute("progress", time.Since(start))
	return rows, hit, nil
}

// Months lists the months that contain lesson time in the requested timezone.
func (s *StudentInsightService) Months(ctx context.Context, studentID string, opts InsightOptions) ([]models.YearMonth, bool, error) {
	dataset, hit, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	_, loc := s.resolve(opts)
	return analytics.AvailableMonths(dataset.Lessons, loc), hit, nil
}

// Monthly aggregates lessons, classes and absences for one calendar month.
func (s *StudentInsightService) Monthly(ctx context.Context, studentID string, ym models.YearMonth, opts InsightOptions) (*models.MonthlySummary, bool, error) {
	if ym.Month < 1 || ym.Month > 12 || ym.Year < 1 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "year and month (1-12) are required")
	}
	dataset, hit, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	_, loc := s.resolve(opts)
	start := time.Now()
	summary := s.monthly(dataset, ym, loc)
	s.metrics.ObserveCompute("monthly", time.Since(start))
	return &summary, hit, nil
}

// Feedback returns entries inside the trailing window of days. days <= 0 uses the configured window.
func (s *StudentInsightService) Feedback(ctx context.Context, studentID string, days int, opts InsightOptions) ([]models.FeedbackEntry, bool, error) {
	dataset, hit, err := s.load(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if days <= 0 {
		days = s.cfg.FeedbackWindowDays
	}
	now, _ := s.resolve(opts)
	return analytics.RecentFeedback(dataset.Feedback, days, now.UnixMilli()), hit, nil
}

// Refresh discards the cached payload so the next request goes to upstream.
func (s *StudentInsightService) Refresh(ctx context.Context, studentID string) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate cached payload")
	}
	return nil
}

func (s *StudentInsightService) resolve(opts InsightOptions) (time.Time, *time.Location) {
	now := opts.Now
	if now.IsZero() {
		now = s.now()
	}
	loc := opts.Location
	if loc == nil {
		loc = s.cfg.Location
	}
	return now, loc
}

func (s *StudentInsightService) progress(dataset models.StudentDataset, now time.Time) []models.SubjectProgress {
	rows := analytics.SubjectProgress(dataset.Lessons, now.Unix())
	for i := range rows {
		rows[i].ColorIndex = s.cfg.Palette.Index(rows[i].SubjectID)
		rows[i].Color = s.cfg.Palette.Color(rows[i].SubjectID)
	}
	return rows
}

func (s *StudentInsightService) monthly(dataset models.StudentDataset, ym models.YearMonth, loc *time.Location) models.MonthlySummary {
	window := analytics.NewMonthWindow(ym.Year, ym.Month, loc)
	summary := analytics.MonthlySummary(window, dataset.Lessons, dataset.Absences)
	for i := range summary.Classes {
		summary.Classes[i].ColorIndex = s.cfg.Palette.Index(summary.Classes[i].ClassName)
		summary.Classes[i].Color = s.cfg.Palette.Color(summary.Classes[i].ClassName)
	}
	return summary
}

func (s *StudentInsightService) load(ctx context.Context, studentID string) (models.StudentDataset, bool, error) {
	if studentID == "" {
		return models.StudentDataset{}, false, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	payload, hit := s.cached(ctx, studentID)
	if !hit {
		fetched, err, _ := s.group.Do(studentID, func() (interface{}, error) {
			return s.fetch(context.WithoutCancel(ctx), studentID)
		})
		if err != nil {
			return models.StudentDataset{}, false, err
		}
		payload = fetched.(dto.StudentDetailPayload)
	}

	start := time.Now()
	dataset := analytics.NormalizePayload(studentID, payload)
	s.metrics.ObserveCompute("normalize", time.Since(start))
	return dataset, hit, nil
}

// cached decodes the cached payload. An entry that no longer decodes is dropped and counts as a miss.
func (s *StudentInsightService) cached(ctx context.Context, studentID string) (dto.StudentDetailPayload, bool) {
	key := PayloadKey(studentID)
	var raw json.RawMessage
	if hit, _ := s.cache.Get(ctx, key, &raw); !hit {
		return dto.StudentDetailPayload{}, false
	}
	payload, err := repository.Decode(raw)
	if err != nil {
		s.logger.Warn("discarding undecodable cached payload", zap.String("student_id", studentID), zap.Error(err))
		_ = s.cache.InvalidateStudent(ctx, studentID)
		return dto.StudentDetailPayload{}, false
	}
	return payload, true
}

// fetch calls upstream and decodes the response. Only a decodable payload is cached and
// snapshotted; a transport or decode failure falls back to the stored snapshot.
func (s *StudentInsightService) fetch(ctx context.Context, studentID string) (dto.StudentDetailPayload, error) {
	start := time.Now()
	raw, err := s.source.Fetch(ctx, studentID)
	if err == nil {
		var payload dto.StudentDetailPayload
		if payload, err = repository.Decode(raw); err == nil {
			s.metrics.ObserveDependency(DependencyUpstream, nil, time.Since(start))
			_ = s.cache.Set(ctx, PayloadKey(studentID), raw, s.cfg.CacheTTL)
			s.enqueueSnapshot(studentID, raw)
			return payload, nil
		}
		s.logger.Error("student detail payload rejected", zap.String("student_id", studentID), zap.Error(err))
		err = appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "student data payload is malformed")
	}
	s.metrics.ObserveDependency(DependencyUpstream, err, time.Since(start))

	s.logger.Warn("student detail fetch failed", zap.String("student_id", studentID), zap.Error(err))
	if s.snapshots == nil {
		return dto.StudentDetailPayload{}, err
	}
	start = time.Now()
	snapshot, snapErr := s.snapshots.Latest(ctx, studentID)
	s.metrics.ObserveDependency(DependencySnapshot, snapErr, time.Since(start))
	if snapErr != nil {
		if !errors.Is(snapErr, appErrors.ErrNotFound) {
			s.logger.Error("snapshot lookup failed", zap.String("student_id", studentID), zap.Error(snapErr))
		}
		return dto.StudentDetailPayload{}, err
	}
	payload, decodeErr := repository.Decode(snapshot.Payload)
	if decodeErr != nil {
		s.logger.Error("snapshot payload rejected", zap.String("student_id", studentID), zap.Error(decodeErr))
		return dto.StudentDetailPayload{}, err
	}
	s.metrics.RecordSnapshotFallback()
	s.logger.Info("serving student detail from snapshot",
		zap.String("student_id", studentID),
		zap.Time("fetched_at", snapshot.FetchedAt))
	return payload, nil
}

func (s *StudentInsightService) enqueueSnapshot(studentID string, raw json.RawMessage) {
	if s.queue == nil {
		return
	}
	snapshot := models.StudentSnapshot{StudentID: studentID, Payload: raw, FetchedAt: s.now().UTC()}
	if _, err := s.queue.TryEnqueue(snapshot); err != nil {
		s.logger.Warn("snapshot not queued", zap.String("student_id", studentID), zap.Error(err))
	}
}
