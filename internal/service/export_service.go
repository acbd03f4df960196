package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-insights/internal/models"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
	"github.com/noah-isme/sma-adp-insights/pkg/export"
)

// ExportFormat enumerates supported export renderers.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

var exportContentTypes = map[ExportFormat]string{
	ExportFormatCSV:  "text/csv",
	ExportFormatPDF:  "application/pdf",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type monthlySummaryProvider interface {
	Monthly(ctx context.Context, studentID string, ym models.YearMonth, opts InsightOptions) (*models.MonthlySummary, bool, error)
}

type reportRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// ExportFile is a rendered attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders monthly summaries into downloadable files.
type ExportService struct {
	insights  monthlySummaryProvider
	renderers map[ExportFormat]reportRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(insights monthlySummaryProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		insights: insights,
		renderers: map[ExportFormat]reportRenderer{
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
			ExportFormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
	}
}

// ExportMonthly renders the month summary for studentID in the requested format.
func (s *ExportService) ExportMonthly(ctx context.Context, studentID string, ym models.YearMonth, format ExportFormat, opts InsightOptions) (*ExportFile, bool, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	summary, hit, err := s.insights.Monthly(ctx, studentID, ym, opts)
	if err != nil {
		return nil, false, err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
		if tz, err := time.LoadLocation(summary.Window.Timezone); err == nil {
			loc = tz
		}
	}
	body, err := renderer.Render(buildMonthlyReport(studentID, ym, summary, loc))
	if err != nil {
		s.logger.Error("render monthly export", zap.String("student_id", studentID), zap.String("format", string(format)), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("insights_%s_%s.%s", sanitizeFilename(studentID), ym.String(), format),
		ContentType: exportContentTypes[format],
		Body:        body,
	}, hit, nil
}

func buildMonthlyReport(studentID string, ym models.YearMonth, summary *models.MonthlySummary, loc *time.Location) export.Report {
	lessons := export.Dataset{
		Name:    "Lessons",
		Headers: []string{"Class", "Subject", "Start", "End", "Hours In Month"},
	}
	for _, lesson := range summary.Lessons {
		lessons.Rows = append(lessons.Rows, map[string]string{
			"Class":          lesson.ClassName,
			"Subject":        lesson.SubjectName,
			"Start":          formatEpoch(lesson.StartTime, loc),
			"End":            formatEpoch(lesson.EndTime, loc),
			"Hours In Month": formatHours(float64(lesson.OverlapSeconds) / 3600),
		})
	}

	classes := export.Dataset{
		Name:    "Classes",
		Headers: []string{"Class", "Lessons", "Relative Load"},
	}
	for _, row := range summary.Classes {
		classes.Rows = append(classes.Rows, map[string]string{
			"Class":         row.ClassName,
			"Lessons":       strconv.Itoa(row.LessonCount),
			"Relative Load": fmt.Sprintf("%d%%", row.RelativeLoad),
		})
	}

	absences := export.Dataset{
		Name:    "Absences",
		Headers: []string{"Type", "Count", "Hours"},
		Rows: []map[string]string{
			{"Type": "authorized", "Count": strconv.Itoa(summary.Absences.Authorized.Count), "Hours": formatHours(summary.Absences.Authorized.TotalHours)},
			{"Type": "unauthorized", "Count": strconv.Itoa(summary.Absences.Unauthorized.Count), "Hours": formatHours(summary.Absences.Unauthorized.TotalHours)},
		},
	}

	totals := export.Dataset{
		Name:    "Summary",
		Headers: []string{"Student", "Month", "Lessons", "Total Hours"},
		Rows: []map[string]string{{
			"Student":     studentID,
			"Month":       ym.String(),
			"Lessons":     strconv.Itoa(summary.LessonCount),
			"Total Hours": formatHours(summary.TotalHours),
		}},
	}

	return export.Report{
		Title:    fmt.Sprintf("Student %s insights %s", studentID, ym.String()),
		Sections: []export.Dataset{totals, lessons, classes, absences},
	}
}

func formatEpoch(sec int64, loc *time.Location) string {
	return time.Unix(sec, 0).In(loc).Format("2006-01-02 15:04")
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', 1, 64)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
