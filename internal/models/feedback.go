package models

// FeedbackEntry is a teacher note about a lesson topic. Timestamp is epoch milliseconds.
type FeedbackEntry struct {
	ID             string `json:"id"`
	Teacher        string `json:"teacher"`
	TopicName      string `json:"topic_name"`
	TimeRangeStart string `json:"time_range_start,omitempty"`
	TimeRangeEnd   string `json:"time_range_end,omitempty"`
	Timestamp      *int64 `json:"timestamp,omitempty"`
	Note           string `json:"note,omitempty"`
}
