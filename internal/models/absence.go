package models

// AbsenceRecord is the strict shape every upstream absence entry is normalised into.
type AbsenceRecord struct {
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
	Note       string `json:"note,omitempty"`
}

// AbsenceBucket aggregates absences of one classification inside a month.
type AbsenceBucket struct {
	Count      int     `json:"count"`
	TotalHours float64 `json:"total_hours"`
}

// AbsenceSummary splits a month's absences by classification.
type AbsenceSummary struct {
	Authorized   AbsenceBucket `json:"authorized"`
	Unauthorized AbsenceBucket `json:"unauthorized"`
}
