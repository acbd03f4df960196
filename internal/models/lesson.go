package models

// Lesson is one scheduled occurrence flattened out of the class → subject → lesson payload.
// Times are epoch seconds.
type Lesson struct {
	SubjectID    string `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	ClassName    string `json:"class_name"`
	TeacherID    string `json:"teacher_id,omitempty"`
	StudentCount *int   `json:"student_count,omitempty"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time"`
}

// Duration returns the lesson length in seconds, floored at zero.
func (l Lesson) Duration() int64 {
	if l.EndTime <= l.StartTime {
		return 0
	}
	return l.EndTime - l.StartTime
}

// LessonOverlap pairs a lesson with the seconds it shares with a month window.
type LessonOverlap struct {
	Lesson
	OverlapSeconds int64 `json:"overlap_seconds"`
}

// SubjectProgress captures how much of a subject's scheduled time has elapsed.
type SubjectProgress struct {
	SubjectID       string `json:"subject_id"`
	SubjectName     string `json:"subject_name"`
	TotalSeconds    int64  `json:"total_seconds"`
	ElapsedSeconds  int64  `json:"elapsed_seconds"`
	LessonCount     int    `json:"lesson_count"`
	PercentComplete int    `json:"percent_complete"`
	ColorIndex      int    `json:"color_index"`
	Color           string `json:"color,omitempty"`
}

// ClassDistributionRow reports how many lessons a class contributed to a month.
type ClassDistributionRow struct {
	ClassName    string `json:"class_name"`
	LessonCount  int    `json:"lesson_count"`
	RelativeLoad int    `json:"relative_load"`
	ColorIndex   int    `json:"color_index"`
	Color        string `json:"color,omitempty"`
}
