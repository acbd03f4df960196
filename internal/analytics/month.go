package analytics

import (
	"time"

	"github.com/noah-isme/sma-adp-insights/internal/models"
)

// NewMonthWindow returns [first of month 00:00, first of next month 00:00) in loc.
// A nil loc means UTC. Out-of-range months roll over the way time.Date does.
func NewMonthWindow(year, month int, loc *time.Location) models.MonthWindow {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, loc)
	return models.MonthWindow{
		Year:     start.Year(),
		Month:    int(start.Month()),
		Start:    start.Unix(),
		End:      end.Unix(),
		Timezone: loc.String(),
	}
}

// LessonsInWindow keeps the lessons that share at least one second with the window.
func LessonsInWindow(lessons []models.Lesson, window models.MonthWindow) []models.LessonOverlap {
	out := make([]models.LessonOverlap, 0)
	for _, lesson := range lessons {
		seconds := Overlap(lesson.StartTime, lesson.EndTime, window.Start, window.End)
		if seconds <= 0 {
			continue
		}
		out = append(out, models.LessonOverlap{Lesson: lesson, OverlapSeconds: seconds})
	}
	return out
}

// MonthlySummary aggregates instructional hours, class distribution and absence hours for a window.
// Records crossing a month boundary only contribute the part inside the window.
func MonthlySummary(window models.MonthWindow, lessons []models.Lesson, absences []models.AbsenceRecord) models.MonthlySummary {
	overlaps := LessonsInWindow(lessons, window)

	var total int64
	for _, item := range overlaps {
		total += item.OverlapSeconds
	}

	return models.MonthlySummary{
		Window:      window,
		Empty:       len(overlaps) == 0,
		TotalHours:  SecondsToHours(total),
		LessonCount: len(overlaps),
		Lessons:     overlaps,
		Classes:     ClassDistribution(overlaps),
		Absences:    ClassifyAbsences(absences, window),
	}
}
