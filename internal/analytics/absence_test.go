package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

func decodeAbsences(t *testing.T, raw string) dto.AbsenceLog {
	t.Helper()
	var log dto.AbsenceLog
	require.NoError(t, json.Unmarshal([]byte(raw), &log))
	return log
}

func TestIsUnauthorizedLegacySpellings(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"FlagOne", `{"unauthorized": 1}`, true},
		{"FlagZero", `{"unauthorized": 0}`, false},
		{"FlagStringOne", `{"unauthorized": "1"}`, false},
		{"FlagTrue", `{"unauthorized": true}`, false},
		{"TypeToken", `{"type": "unauthorized"}`, true},
		{"ReasonToken", `{"reason": "unauthorized"}`, true},
		{"ReasonUppercase", `{"reason": "Unauthorized"}`, false},
		{"FlagZeroReasonToken", `{"unauthorized": 0, "reason": "unauthorized"}`, true},
		{"SickLeave", `{"type": "sick", "reason": "flu"}`, false},
		{"Empty", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &entry))
			assert.Equal(t, tt.want, IsUnauthorized(entry))
		})
	}
}

func TestNormalizeAbsencesArrayAndObjectShapes(t *testing.T) {
	array := decodeAbsences(t, `[
		{"start_time": 100, "end_time": 200, "unauthorized": 1, "notes": "skipped"},
		{"start": "300", "end": "400", "reason": "family"},
		{"start_time": 500}
	]`)
	object := decodeAbsences(t, `{
		"b": {"start": "300", "end": "400", "reason": "family"},
		"a": {"start_time": 100, "end_time": 200, "unauthorized": 1, "notes": "skipped"},
		"c": {"end_time": 900}
	}`)

	fromArray := NormalizeAbsences(array)
	fromObject := NormalizeAbsences(object)

	require.Len(t, fromArray, 2)
	assert.Equal(t, fromArray, fromObject)
	assert.Equal(t, models.AbsenceRecord{StartTime: 100, EndTime: 200, Authorized: false, Note: "skipped"}, fromArray[0])
	assert.Equal(t, models.AbsenceRecord{StartTime: 300, EndTime: 400, Authorized: true, Reason: "family"}, fromArray[1])
}

func TestNormalizeAbsencesNull(t *testing.T) {
	assert.Empty(t, NormalizeAbsences(decodeAbsences(t, `null`)))
}

func TestClassifyAbsencesInsideMonth(t *testing.T) {
	start := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC).Unix()
	records := []models.AbsenceRecord{{StartTime: start, EndTime: start + 3600, Authorized: false}}

	summary := ClassifyAbsences(records, NewMonthWindow(2024, 4, time.UTC))

	assert.Equal(t, 1, summary.Unauthorized.Count)
	assert.Equal(t, 1.0, summary.Unauthorized.TotalHours)
	assert.Equal(t, models.AbsenceBucket{}, summary.Authorized)
}

func TestClassifyAbsencesAcrossBoundary(t *testing.T) {
	start := time.Date(2024, 4, 30, 22, 0, 0, 0, time.UTC).Unix()
	records := []models.AbsenceRecord{
		{StartTime: start, EndTime: start + 4*3600, Authorized: true},
		{StartTime: start - 86400*40, EndTime: start - 86400*39, Authorized: true},
		{StartTime: start + 10, EndTime: start + 10, Authorized: false},
	}

	april := ClassifyAbsences(records, NewMonthWindow(2024, 4, time.UTC))
	may := ClassifyAbsences(records, NewMonthWindow(2024, 5, time.UTC))

	assert.Equal(t, models.AbsenceBucket{Count: 1, TotalHours: 2.0}, april.Authorized)
	assert.Equal(t, models.AbsenceBucket{Count: 1, TotalHours: 2.0}, may.Authorized)
	assert.Equal(t, 0, april.Unauthorized.Count)
	assert.Equal(t, 0, may.Unauthorized.Count)
}
