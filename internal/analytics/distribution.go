package analytics

import "github.com/noah-isme/sma-adp-insights/internal/models"

// ClassDistribution groups month lessons by class in first-seen order. RelativeLoad is the
// class count as a percentage of the busiest class.
func ClassDistribution(lessons []models.LessonOverlap) []models.ClassDistributionRow {
	index := make(map[string]int)
	rows := make([]models.ClassDistributionRow, 0)
	maxCount := 1
	for _, lesson := range lessons {
		pos, ok := index[lesson.ClassName]
		if !ok {
			pos = len(rows)
			index[lesson.ClassName] = pos
			rows = append(rows, models.ClassDistributionRow{ClassName: lesson.ClassName})
		}
		rows[pos].LessonCount++
		if rows[pos].LessonCount > maxCount {
			maxCount = rows[pos].LessonCount
		}
	}
	for i := range rows {
		rows[i].RelativeLoad = percent(int64(rows[i].LessonCount), int64(maxCount))
	}
	return rows
}
