package analytics

import (
	"sort"

	"github.com/noah-isme/sma-adp-insights/internal/models"
)

// SubjectProgress reports, per subject, the scheduled seconds and the part of them at or before now.
// Rows are ordered by subject name.
func SubjectProgress(lessons []models.Lesson, now int64) []models.SubjectProgress {
	index := make(map[string]int)
	rows := make([]models.SubjectProgress, 0)
	for _, lesson := range lessons {
		pos, ok := index[lesson.SubjectID]
		if !ok {
			pos = len(rows)
			index[lesson.SubjectID] = pos
			rows = append(rows, models.SubjectProgress{
				SubjectID:   lesson.SubjectID,
				SubjectName: lesson.SubjectName,
			})
		}
		row := &rows[pos]
		row.LessonCount++
		row.TotalSeconds += lesson.Duration()
		row.ElapsedSeconds += Overlap(lesson.StartTime, lesson.EndTime, lesson.StartTime, now)
	}

	for i := range rows {
		rows[i].PercentComplete = percent(rows[i].ElapsedSeconds, rows[i].TotalSeconds)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SubjectName != rows[j].SubjectName {
			return rows[i].SubjectName < rows[j].SubjectName
		}
		return rows[i].SubjectID < rows[j].SubjectID
	})
	return rows
}
