package analytics

import (
	"sort"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

const (
	// DefaultFeedbackWindowDays is the trailing window used when callers pass no length.
	DefaultFeedbackWindowDays = 30
	millisPerDay              = int64(86_400_000)
)

// NormalizeFeedback converts raw feedback items into entries. Items keep a nil timestamp when
// upstream omitted it.
func NormalizeFeedback(items []dto.FeedbackItem) []models.FeedbackEntry {
	entries := make([]models.FeedbackEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.FeedbackEntry{
			ID:             string(item.ID),
			Teacher:        item.Teacher,
			TopicName:      item.TopicName,
			TimeRangeStart: item.TimeRangeStart,
			TimeRangeEnd:   item.TimeRangeEnd,
			Timestamp:      item.Timestamp.Ptr(),
			Note:           item.Note,
		})
	}
	return entries
}

// RecentFeedback returns the entries no older than windowDays relative to nowMillis, newest first.
// Entries without a timestamp are excluded.
func RecentFeedback(entries []models.FeedbackEntry, windowDays int, nowMillis int64) []models.FeedbackEntry {
	if windowDays <= 0 {
		windowDays = DefaultFeedbackWindowDays
	}
	limit := int64(windowDays) * millisPerDay

	out := make([]models.FeedbackEntry, 0)
	for _, entry := range entries {
		if entry.Timestamp == nil {
			continue
		}
		if nowMillis-*entry.Timestamp <= limit {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Timestamp > *out[j].Timestamp
	})
	return out
}
