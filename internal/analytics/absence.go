package analytics

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	"github.com/noah-isme/sma-adp-insights/internal/models"
)

const unauthorizedToken = "unauthorized"

// field spellings seen across upstream absence records, most specific first
var (
	absenceStartKeys = []string{"start_time", "start", "from"}
	absenceEndKeys   = []string{"end_time", "end", "to"}
	absenceNoteKeys  = []string{"note", "notes", "remark"}
)

// NormalizeAbsences converts loose upstream records into strict AbsenceRecords.
// Records without both bounds are dropped.
func NormalizeAbsences(log dto.AbsenceLog) []models.AbsenceRecord {
	records := make([]models.AbsenceRecord, 0, len(log))
	for _, entry := range log {
		start, okStart := firstInt(entry, absenceStartKeys)
		end, okEnd := firstInt(entry, absenceEndKeys)
		if !okStart || !okEnd {
			continue
		}
		records = append(records, models.AbsenceRecord{
			StartTime:  start,
			EndTime:    end,
			Authorized: !IsUnauthorized(entry),
			Reason:     stringField(entry, "reason"),
			Note:       firstString(entry, absenceNoteKeys),
		})
	}
	return records
}

// IsUnauthorized applies the legacy tagging rules: unauthorized == 1 (number), or type or
// reason equal to "unauthorized" exactly. Any single match wins.
func IsUnauthorized(entry map[string]json.RawMessage) bool {
	if raw, ok := entry["unauthorized"]; ok {
		var flag float64
		if err := json.Unmarshal(bytes.TrimSpace(raw), &flag); err == nil && flag == 1 {
			return true
		}
	}
	return stringField(entry, "type") == unauthorizedToken || stringField(entry, "reason") == unauthorizedToken
}

// ClassifyAbsences counts and sums, per classification, the absences overlapping the window.
func ClassifyAbsences(records []models.AbsenceRecord, window models.MonthWindow) models.AbsenceSummary {
	var authorizedSeconds, unauthorizedSeconds int64
	var summary models.AbsenceSummary
	for _, record := range records {
		seconds := Overlap(record.StartTime, record.EndTime, window.Start, window.End)
		if seconds <= 0 {
			continue
		}
		if record.Authorized {
			summary.Authorized.Count++
			authorizedSeconds += seconds
		} else {
			summary.Unauthorized.Count++
			unauthorizedSeconds += seconds
		}
	}
	summary.Authorized.TotalHours = SecondsToHours(authorizedSeconds)
	summary.Unauthorized.TotalHours = SecondsToHours(unauthorizedSeconds)
	return summary
}

func firstInt(entry map[string]json.RawMessage, keys []string) (int64, bool) {
	for _, key := range keys {
		raw, ok := entry[key]
		if !ok {
			continue
		}
		value, present, err := dto.ParseFlexInt(raw)
		if err != nil || !present {
			continue
		}
		return value, true
	}
	return 0, false
}

func firstString(entry map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		if value := stringField(entry, key); value != "" {
			return value
		}
	}
	return ""
}

func stringField(entry map[string]json.RawMessage, key string) string {
	raw, ok := entry[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}
