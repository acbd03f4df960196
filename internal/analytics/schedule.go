package analytics

import (
	"sort"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

// FlattenSchedule turns the nested class → subject → lesson payload into a list sorted by start time.
// Subject names come from topics when the topic id is known there, otherwise from the subject's own
// topic_name. Slots missing either bound, or carrying a non-numeric one, are dropped; degenerate
// slots are kept with zero duration.
func FlattenSchedule(schedule map[string]dto.ClassSchedule, topics dto.ClassTopics) []models.Lesson {
	lessons := make([]models.Lesson, 0, countSlots(schedule))
	for className, class := range schedule {
		var studentCount *int
		if count := class.StudentCount.Ptr(); count != nil {
			n := int(*count)
			studentCount = &n
		}
		for subjectID, subject := range class.Subjects {
			name := subject.TopicName
			if resolved, ok := topics[string(subject.TopicID)]; ok && subject.TopicID != "" {
				name = resolved
			}
			for _, slot := range subject.Lessons {
				start, end := slot.StartTime.Ptr(), slot.EndTime.Ptr()
				if start == nil || end == nil {
					continue
				}
				lessons = append(lessons, models.Lesson{
					SubjectID:    subjectID,
					SubjectName:  name,
					ClassName:    className,
					TeacherID:    string(subject.TeacherID),
					StudentCount: studentCount,
					StartTime:    *start,
					EndTime:      *end,
				})
			}
		}
	}

	// map iteration is random, so every key takes part in the ordering
	sort.SliceStable(lessons, func(i, j int) bool {
		a, b := lessons[i], lessons[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.EndTime < b.EndTime
	})
	return lessons
}

func countSlots(schedule map[string]dto.ClassSchedule) int {
	total := 0
	for _, class := range schedule {
		for _, subject := range class.Subjects {
			total += len(subject.Lessons)
		}
	}
	return total
}
