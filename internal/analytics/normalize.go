package analytics

import (
	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

// NormalizePayload resolves the loosely shaped upstream payload into a strict dataset. It must
// complete before any aggregator runs.
func NormalizePayload(studentID string, payload dto.StudentDetailPayload) models.StudentDataset {
	return models.StudentDataset{
		StudentID: studentID,
		Profile:   payload.StudentData,
		Lessons:   FlattenSchedule(payload.LessonData, payload.ClassTopics),
		Absences:  NormalizeAbsences(payload.AbsenceInfo),
		Feedback:  NormalizeFeedback(payload.Feedback),
	}
}
