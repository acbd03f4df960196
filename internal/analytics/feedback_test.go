package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

func ms(v int64) *int64 { return &v }

func TestRecentFeedbackWindow(t *testing.T) {
	now := int64(1_700_000_000_000)
	day := int64(86_400_000)
	entries := []models.FeedbackEntry{
		{ID: "old", Timestamp: ms(now - 31*day)},
		{ID: "recent", Timestamp: ms(now - 29*day)},
		{ID: "missing"},
		{ID: "edge", Timestamp: ms(now - 30*day)},
		{ID: "today", Timestamp: ms(now - 1000)},
	}

	got := RecentFeedback(entries, 30, now)

	require.Len(t, got, 3)
	assert.Equal(t, "today", got[0].ID)
	assert.Equal(t, "recent", got[1].ID)
	assert.Equal(t, "edge", got[2].ID)
}

func TestRecentFeedbackDefaultsWindow(t *testing.T) {
	now := int64(10 * 86_400_000 * 10)
	entries := []models.FeedbackEntry{
		{ID: "in", Timestamp: ms(now - 29*86_400_000)},
		{ID: "out", Timestamp: ms(now - 31*86_400_000)},
	}

	got := RecentFeedback(entries, 0, now)

	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].ID)
}

func TestRecentFeedbackEmpty(t *testing.T) {
	got := RecentFeedback(nil, 30, 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeFeedbackKeepsMissingTimestamp(t *testing.T) {
	items := []dto.FeedbackItem{
		{ID: "1", Teacher: "Bu Sari", TopicName: "Fractions", Timestamp: dto.NewFlexInt64(42), Note: "good"},
		{ID: "2", Teacher: "Pak Budi"},
	}

	entries := NormalizeFeedback(items)

	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Timestamp)
	assert.Equal(t, int64(42), *entries[0].Timestamp)
	assert.Equal(t, "Fractions", entries[0].TopicName)
	assert.Nil(t, entries[1].Timestamp)
}

func TestNormalizeFeedbackDropsUnparseableTimestamp(t *testing.T) {
	payload := decodePayload(t, `{"feedback": [
		{"id": 1, "teacher": "Bu Sari", "timestamp": "2024-01-01 10:00"},
		{"id": 2, "teacher": "Pak Budi", "timestamp": 1717200000000},
		"not an entry",
		{"id": 3, "teacher": 42, "timestamp": 1717200000000}
	]}`)

	entries := NormalizeFeedback(payload.Feedback)

	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Timestamp)
	require.NotNil(t, entries[1].Timestamp)
	assert.Equal(t, int64(1717200000000), *entries[1].Timestamp)

	recent := RecentFeedback(entries, 30, 1717200000000)
	require.Len(t, recent, 1)
	assert.Equal(t, "Pak Budi", recent[0].Teacher)
}
