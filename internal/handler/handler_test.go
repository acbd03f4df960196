package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-insights/internal/middleware"
	"github.com/noah-isme/sma-adp-insights/internal/models"
	"github.com/noah-isme/sma-adp-insights/internal/service"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

type insightServiceStub struct {
	lastID    string
	lastYM    models.YearMonth
	lastDays  int
	lastOpts  service.InsightOptions
	hit       bool
	err       error
	refreshed string
}

func (s *insightServiceStub) Overview(ctx context.Context, studentID string, opts service.InsightOptions) (*models.StudentOverview, bool, error) {
	s.lastID, s.lastOpts = studentID, opts
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.StudentOverview{StudentID: studentID}, s.hit, nil
}

func (s *insightServiceStub) Progress(ctx context.Context, studentID string, opts service.InsightOptions) ([]models.SubjectProgress, bool, error) {
	s.lastID, s.lastOpts = studentID, opts
	return []models.SubjectProgress{{SubjectID: "sub-1", PercentComplete: 40}}, s.hit, s.err
}

func (s *insightServiceStub) Months(ctx context.Context, studentID string, opts service.InsightOptions) ([]models.YearMonth, bool, error) {
	s.lastID, s.lastOpts = studentID, opts
	return []models.YearMonth{{Year: 2024, Month: 5}}, s.hit, s.err
}

func (s *insightServiceStub) Monthly(ctx context.Context, studentID string, ym models.YearMonth, opts service.InsightOptions) (*models.MonthlySummary, bool, error) {
	s.lastID, s.lastYM, s.lastOpts = studentID, ym, opts
	return &models.MonthlySummary{LessonCount: 3}, s.hit, s.err
}

func (s *insightServiceStub) Feedback(ctx context.Context, studentID string, days int, opts service.InsightOptions) ([]models.FeedbackEntry, bool, error) {
	s.lastID, s.lastDays, s.lastOpts = studentID, days, opts
	return []models.FeedbackEntry{}, s.hit, s.err
}

func (s *insightServiceStub) Refresh(ctx context.Context, studentID string) error {
	s.refreshed = studentID
	return s.err
}

type exporterStub struct {
	format service.ExportFormat
}

func (e *exporterStub) ExportMonthly(ctx context.Context, studentID string, ym models.YearMonth, format service.ExportFormat, opts service.InsightOptions) (*service.ExportFile, bool, error) {
	e.format = format
	return &service.ExportFile{Filename: "insights_" + studentID + ".csv", ContentType: "text/csv", Body: []byte("a,b\n")}, false, nil
}

func newInsightRouter(svc *insightServiceStub, exp *exporterStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudentInsightHandler(svc, exp)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	group := r.Group("/students/:id/insights")
	group.GET("", h.Overview)
	group.GET("/progress", h.Progress)
	group.GET("/months", h.Months)
	group.GET("/monthly", h.Monthly)
	group.GET("/monthly/export", h.ExportMonthly)
	group.GET("/feedback", h.Feedback)
	group.DELETE("/cache", h.Refresh)
	return r
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func doRequest(t *testing.T, r *gin.Engine, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStudentInsightHandlerOverviewParsesOptions(t *testing.T) {
	svc := &insightServiceStub{hit: true}
	r := newInsightRouter(svc, &exporterStub{})

	rec, env := doRequest(t, r, http.MethodGet, "/students/stu-9/insights?tz=Asia/Jakarta&now=2024-06-01T07:00:00%2B07:00")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-9", svc.lastID)
	require.NotNil(t, svc.lastOpts.Location)
	assert.Equal(t, "Asia/Jakarta", svc.lastOpts.Location.String())
	assert.True(t, svc.lastOpts.Now.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestStudentInsightHandlerValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "month too large", target: "/students/s/insights/monthly?year=2024&month=13"},
		{name: "month missing", target: "/students/s/insights/monthly?year=2024"},
		{name: "month not a number", target: "/students/s/insights/monthly?year=2024&month=may"},
		{name: "unknown timezone", target: "/students/s/insights/months?tz=Mars/Olympus"},
		{name: "bad now", target: "/students/s/insights/progress?now=yesterday"},
		{name: "days out of range", target: "/students/s/insights/feedback?days=400"},
		{name: "bad export format", target: "/students/s/insights/monthly/export?year=2024&month=5&format=docx"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &insightServiceStub{}
			r := newInsightRouter(svc, &exporterStub{})

			rec, env := doRequest(t, r, http.MethodGet, tc.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
			assert.Empty(t, svc.lastID)
		})
	}
}

func TestStudentInsightHandlerMonthly(t *testing.T) {
	svc := &insightServiceStub{}
	r := newInsightRouter(svc, &exporterStub{})

	rec, env := doRequest(t, r, http.MethodGet, "/students/s/insights/monthly?year=2024&month=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.YearMonth{Year: 2024, Month: 5}, svc.lastYM)
	assert.Nil(t, svc.lastOpts.Location)
	assert.JSONEq(t, `3`, string(mustField(t, env.Data, "lesson_count")))
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestStudentInsightHandlerFeedbackDays(t *testing.T) {
	svc := &insightServiceStub{}
	r := newInsightRouter(svc, &exporterStub{})

	rec, _ := doRequest(t, r, http.MethodGet, "/students/s/insights/feedback?days=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.lastDays)
}

func TestStudentInsightHandlerExportDefaultsToCSV(t *testing.T) {
	exp := &exporterStub{}
	r := newInsightRouter(&insightServiceStub{}, exp)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/stu-1/insights/monthly/export?year=2024&month=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exp.format)
	assert.Equal(t, `attachment; filename="insights_stu-1.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestStudentInsightHandlerMapsServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: appErrors.Clone(appErrors.ErrNotFound, "student not found"), status: http.StatusNotFound},
		{err: appErrors.ErrUpstreamUnavailable, status: http.StatusBadGateway},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		svc := &insightServiceStub{err: tc.err}
		r := newInsightRouter(svc, &exporterStub{})

		rec, env := doRequest(t, r, http.MethodGet, "/students/s/insights")
		assert.Equal(t, tc.status, rec.Code)
		require.NotNil(t, env.Error)
	}
}

func TestStudentInsightHandlerRefresh(t *testing.T) {
	svc := &insightServiceStub{}
	r := newInsightRouter(svc, &exporterStub{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/students/stu-3/insights/cache", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "stu-3", svc.refreshed)
}

func TestMetricsHandlerReadyAndSystem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	h := NewMetricsHandler(metrics,
		ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	)
	r := gin.New()
	r.GET("/ready", h.Ready)
	r.GET("/health", h.Health)
	r.GET("/system/metrics", h.System)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"dial tcp: refused"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, r, http.MethodGet, "/system/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "cache_hit_ratio")
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	return fields[key]
}
