package analytics

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-adp-insights/internal/models"
)

// AvailableMonths lists, in ascending order, every month in loc that some lesson overlaps.
func AvailableMonths(lessons []models.Lesson, loc *time.Location) []models.YearMonth {
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[models.YearMonth]struct{})
	for _, lesson := range lessons {
		if lesson.Duration() == 0 {
			continue
		}
		first := time.Unix(lesson.StartTime, 0).In(loc)
		cursor := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, loc)
		for cursor.Unix() < lesson.EndTime {
			seen[models.YearMonth{Year: cursor.Year(), Month: int(cursor.Month())}] = struct{}{}
			cursor = time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, loc)
		}
	}

	months := make([]models.YearMonth, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months
}

// DefaultMonth picks the month containing now when it has data, otherwise the latest month.
// ok is false when months is empty.
func DefaultMonth(months []models.YearMonth, now time.Time) (models.YearMonth, bool) {
	if len(months) == 0 {
		return models.YearMonth{}, false
	}
	current := models.YearMonth{Year: now.Year(), Month: int(now.Month())}
	for _, ym := range months {
		if ym == current {
			return ym, true
		}
	}
	return months[len(months)-1], true
}
