package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-adp-insights/internal/middleware"
	"github.com/noah-isme/sma-adp-insights/internal/models"
	"github.com/noah-isme/sma-adp-insights/internal/service"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
	"github.com/noah-isme/sma-adp-insights/pkg/response"
)

type studentInsightService interface {
	Overview(ctx context.Context, studentID string, opts service.InsightOptions) (*models.StudentOverview, bool, error)
	Progress(ctx context.Context, studentID string, opts service.InsightOptions) ([]models.SubjectProgress, bool, error)
	Months(ctx context.Context, studentID string, opts service.InsightOptions) ([]models.YearMonth, bool, error)
	Monthly(ctx context.Context, studentID string, ym models.YearMonth, opts service.InsightOptions) (*models.MonthlySummary, bool, error)
	Feedback(ctx context.Context, studentID string, days int, opts service.InsightOptions) ([]models.FeedbackEntry, bool, error)
	Refresh(ctx context.Context, studentID string) error
}

type monthlyExporter interface {
	ExportMonthly(ctx context.Context, studentID string, ym models.YearMonth, format service.ExportFormat, opts service.InsightOptions) (*service.ExportFile, bool, error)
}

type insightQuery struct {
	Timezone string `form:"tz" validate:"omitempty,max=64"`
	Now      string `form:"now" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type monthlyQuery struct {
	insightQuery
	Year   int    `form:"year" validate:"required,min=1970,max=9999"`
	Month  int    `form:"month" validate:"required,min=1,max=12"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

type feedbackQuery struct {
	insightQuery
	Days int `form:"days" validate:"omitempty,min=1,max=366"`
}

// StudentInsightHandler exposes per-student analytics over HTTP.
type StudentInsightHandler struct {
	service  studentInsightService
	exporter monthlyExporter
	validate *validator.Validate
}

// NewStudentInsightHandler constructs the handler.
func NewStudentInsightHandler(svc studentInsightService, exporter monthlyExporter) *StudentInsightHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &StudentInsightHandler{service: svc, exporter: exporter, validate: validate}
}

// Overview godoc
// @Summary Student insight overview
// @Description Subject progress, available months, default month summary and recent feedback.
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param tz query string false "IANA timezone used for month boundaries"
// @Param now query string false "Evaluation instant (RFC3339), defaults to server time"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/insights [get]
func (h *StudentInsightHandler) Overview(c *gin.Context) {
	var query insightQuery
	opts, ok := h.bind(c, &query, &query)
	if !ok {
		return
	}
	overview, hit, err := h.service.Overview(c.Request.Context(), c.Param("id"), opts)
	h.respond(c, overview, hit, err)
}

// Progress godoc
// @Summary Subject progress
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param now query string false "Evaluation instant (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/insights/progress [get]
func (h *StudentInsightHandler) Progress(c *gin.Context) {
	var query insightQuery
	opts, ok := h.bind(c, &query, &query)
	if !ok {
		return
	}
	rows, hit, err := h.service.Progress(c.Request.Context(), c.Param("id"), opts)
	h.respond(c, rows, hit, err)
}

// Months godoc
// @Summary Months with lesson data
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param tz query string false "IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/insights/months [get]
func (h *StudentInsightHandler) Months(c *gin.Context) {
	var query insightQuery
	opts, ok := h.bind(c, &query, &query)
	if !ok {
		return
	}
	months, hit, err := h.service.Months(c.Request.Context(), c.Param("id"), opts)
	h.respond(c, months, hit, err)
}

// Monthly godoc
// @Summary Monthly summary
// @Description Lesson hours, class distribution and absence hours for one calendar month.
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param tz query string false "IANA timezone"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/insights/monthly [get]
func (h *StudentInsightHandler) Monthly(c *gin.Context) {
	var query monthlyQuery
	opts, ok := h.bind(c, &query, &query.insightQuery)
	if !ok {
		return
	}
	ym := models.YearMonth{Year: query.Year, Month: query.Month}
	summary, hit, err := h.service.Monthly(c.Request.Context(), c.Param("id"), ym, opts)
	h.respond(c, summary, hit, err)
}

// ExportMonthly godoc
// @Summary Download monthly summary
// @Tags Insights
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Student ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Param tz query string false "IANA timezone"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/insights/monthly/export [get]
func (h *StudentInsightHandler) ExportMonthly(c *gin.Context) {
	var query monthlyQuery
	opts, ok := h.bind(c, &query, &query.insightQuery)
	if !ok {
		return
	}
	format := service.ExportFormat(query.Format)
	if format == "" {
		format = service.ExportFormatCSV
	}
	ym := models.YearMonth{Year: query.Year, Month: query.Month}
	file, _, err := h.exporter.ExportMonthly(c.Request.Context(), c.Param("id"), ym, format, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Feedback godoc
// @Summary Recent feedback
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Param days query int false "Window in days (1-366)"
// @Param now query string false "Evaluation instant (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/insights/feedback [get]
func (h *StudentInsightHandler) Feedback(c *gin.Context) {
	var query feedbackQuery
	opts, ok := h.bind(c, &query, &query.insightQuery)
	if !ok {
		return
	}
	entries, hit, err := h.service.Feedback(c.Request.Context(), c.Param("id"), query.Days, opts)
	h.respond(c, entries, hit, err)
}

// Refresh godoc
// @Summary Drop the cached payload for a student
// @Tags Insights
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id}/insights/cache [delete]
func (h *StudentInsightHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes and validates query into dest and resolves the shared tz/now parameters.
func (h *StudentInsightHandler) bind(c *gin.Context, dest interface{}, common *insightQuery) (service.InsightOptions, bool) {
	var opts service.InsightOptions
	if strings.TrimSpace(c.Param("id")) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id is required"))
		return opts, false
	}
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return opts, false
	}
	if err := h.validate.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, describeValidation(err)))
		return opts, false
	}
	if common.Timezone != "" {
		loc, err := time.LoadLocation(common.Timezone)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timezone %q", common.Timezone)))
			return opts, false
		}
		opts.Location = loc
	}
	if common.Now != "" {
		// format already checked by the datetime rule
		opts.Now, _ = time.Parse(time.RFC3339, common.Now)
	}
	return opts, true
}

func (h *StudentInsightHandler) respond(c *gin.Context, data interface{}, cacheHit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, middleware.Meta(c))
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid query parameters"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
