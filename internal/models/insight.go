package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// String renders the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// MonthWindow is the half-open epoch range [Start, End) of a calendar month in a timezone.
type MonthWindow struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Start    int64  `json:"start_epoch"`
	End      int64  `json:"end_epoch"`
	Timezone string `json:"timezone"`
}

// MonthlySummary aggregates lessons and absences that intersect one month.
type MonthlySummary struct {
	Window      MonthWindow            `json:"window"`
	Empty       bool                   `json:"empty"`
	TotalHours  float64                `json:"total_hours"`
	LessonCount int                    `json:"lesson_count"`
	Lessons     []LessonOverlap        `json:"lessons"`
	Classes     []ClassDistributionRow `json:"classes"`
	Absences    AbsenceSummary         `json:"absences"`
}

// StudentDataset is the normalised, strictly typed view of one student-detail payload.
type StudentDataset struct {
	StudentID string          `json:"student_id"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	Lessons   []Lesson        `json:"lessons"`
	Absences  []AbsenceRecord `json:"absences"`
	Feedback  []FeedbackEntry `json:"feedback"`
}

// StudentOverview bundles every insight the student detail view renders on first load.
type StudentOverview struct {
	StudentID      string            `json:"student_id"`
	Profile        json.RawMessage   `json:"profile,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Progress       []SubjectProgress `json:"progress"`
	Months         []YearMonth       `json:"months"`
	SelectedMonth  *YearMonth        `json:"selected_month,omitempty"`
	Monthly        *MonthlySummary   `json:"monthly,omitempty"`
	RecentFeedback []FeedbackEntry   `json:"recent_feedback"`
}

// StudentSnapshot is a persisted copy of the last upstream payload fetched for a student.
type StudentSnapshot struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	FetchedAt time.Time       `db:"fetched_at" json:"fetched_at"`
}

// SystemMetrics represents instrumentation counters exposed to operators.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	UpstreamCalls            uint64    `json:"upstream_calls"`
	AverageUpstreamMs        float64   `json:"average_upstream_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
