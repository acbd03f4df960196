package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// StudentDetailPayload mirrors the remote student-detail response consumed by the insights engine.
type StudentDetailPayload struct {
	StudentData json.RawMessage  `json:"student_data,omitempty"`
	LessonData  ClassScheduleMap `json:"lesson_data"`
	AbsenceInfo AbsenceLog       `json:"absence_info"`
	Feedback    FeedbackLog      `json:"feedback"`
	ClassTopics ClassTopics      `json:"class_topics"`
}

// ClassSchedule is the per-class node of lesson_data.
type ClassSchedule struct {
	StudentCount *FlexInt64         `json:"student_count"`
	Subjects     SubjectScheduleMap `json:"subjects"`
}

// SubjectSchedule is the per-subject node of a class schedule.
type SubjectSchedule struct {
	TopicID   FlexString  `json:"topic_id"`
	TopicName string      `json:"topic_name"`
	TeacherID FlexString  `json:"teacher_id"`
	Lessons   LessonSlots `json:"lessons"`
}

// ClassScheduleMap is lesson_data keyed by class name. An empty map may arrive as [] and a
// class that fails to decode is skipped.
type ClassScheduleMap map[string]ClassSchedule

// UnmarshalJSON implements json.Unmarshaler.
func (m *ClassScheduleMap) UnmarshalJSON(data []byte) error {
	decoded, err := decodeKeyed[ClassSchedule](data, "lesson_data")
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// SubjectScheduleMap is a class's subjects keyed by subject id, with the same leniency as
// ClassScheduleMap.
type SubjectScheduleMap map[string]SubjectSchedule

// UnmarshalJSON implements json.Unmarshaler.
func (m *SubjectScheduleMap) UnmarshalJSON(data []byte) error {
	decoded, err := decodeKeyed[SubjectSchedule](data, "subjects")
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// LessonSlots is a subject's lesson list. Entries that are not objects are skipped.
type LessonSlots []LessonSlot

// UnmarshalJSON implements json.Unmarshaler.
func (l *LessonSlots) UnmarshalJSON(data []byte) error {
	decoded, err := decodeList[LessonSlot](data, "lessons")
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// FeedbackLog is the feedback list. Entries that fail to decode are skipped.
type FeedbackLog []FeedbackItem

// UnmarshalJSON implements json.Unmarshaler.
func (l *FeedbackLog) UnmarshalJSON(data []byte) error {
	decoded, err := decodeList[FeedbackItem](data, "feedback")
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// decodeKeyed reads an object or a list into a map. List entries are keyed by position.
// Entries that do not decode as T are dropped; any other container shape is an error.
func decodeKeyed[T any](data []byte, field string) (map[string]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("decode %s object: %w", field, err)
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode %s array: %w", field, err)
		}
		raw = make(map[string]json.RawMessage, len(list))
		for i, item := range list {
			raw[strconv.Itoa(i)] = item
		}
	default:
		return nil, fmt.Errorf("%s must be an object or array", field)
	}

	out := make(map[string]T, len(raw))
	for key, value := range raw {
		var item T
		if !isObject(value) || json.Unmarshal(value, &item) != nil {
			continue
		}
		out[key] = item
	}
	return out, nil
}

// decodeList reads a list, or a keyed object ordered by key, keeping the entries that decode as T.
func decodeList[T any](data []byte, field string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode %s array: %w", field, err)
		}
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("decode %s object: %w", field, err)
		}
		keys := make([]string, 0, len(keyed))
		for key := range keyed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			items = append(items, keyed[key])
		}
	default:
		return nil, fmt.Errorf("%s must be an array or object", field)
	}

	out := make([]T, 0, len(items))
	for _, value := range items {
		var item T
		if !isObject(value) || json.Unmarshal(value, &item) != nil {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// LessonSlot holds the raw bounds of one lesson. Either bound may be missing upstream.
type LessonSlot struct {
	StartTime *FlexInt64 `json:"start_time"`
	EndTime   *FlexInt64 `json:"end_time"`
}

// FeedbackItem is a raw feedback log entry.
type FeedbackItem struct {
	ID             FlexString `json:"id"`
	Teacher        string     `json:"teacher"`
	TopicName      string     `json:"topic_name"`
	TimeRangeStart string     `json:"time_range_start"`
	TimeRangeEnd   string     `json:"time_range_end"`
	Timestamp      *FlexInt64 `json:"timestamp"`
	Note           string     `json:"note"`
}

// AbsenceLog is the absence_info field, which arrives either as an array or as a keyed object.
// Entries are kept as loose field maps; normalisation into strict records happens in the engine.
type AbsenceLog []map[string]json.RawMessage

// UnmarshalJSON accepts an array, a keyed object (ordered by key) or null. Entries that are not
// objects are skipped.
func (l *AbsenceLog) UnmarshalJSON(data []byte) error {
	decoded, err := decodeList[map[string]json.RawMessage](data, "absence_info")
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// ClassTopics maps topic ids to display names. Upstream sends an object or an array of {id, name}.
type ClassTopics map[string]string

// UnmarshalJSON accepts both lookup table shapes.
func (t *ClassTopics) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = nil
		return nil
	}
	out := make(ClassTopics)
	if trimmed[0] == '[' {
		var items []struct {
			ID   FlexString `json:"id"`
			Name string     `json:"name"`
		}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decode class_topics array: %w", err)
		}
		for _, item := range items {
			if item.ID != "" {
				out[string(item.ID)] = item.Name
			}
		}
		*t = out
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode class_topics object: %w", err)
	}
	for id, value := range raw {
		var name string
		if err := json.Unmarshal(value, &name); err == nil {
			out[id] = name
			continue
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(value, &named); err == nil {
			out[id] = named.Name
		}
	}
	*t = out
	return nil
}

// FlexString decodes strings and numbers into a string. Any other value decodes as empty.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		*s = ""
		return nil
	}
	*s = FlexString(num.String())
	return nil
}

// FlexInt64 decodes integers sent as numbers or numeric strings. Fractions are truncated.
// Values that are not numeric leave it unset, so Ptr reports them as absent.
type FlexInt64 struct {
	value int64
	valid bool
}

// NewFlexInt64 returns a set value.
func NewFlexInt64(v int64) *FlexInt64 {
	return &FlexInt64{value: v, valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt64) UnmarshalJSON(data []byte) error {
	value, ok, err := ParseFlexInt(data)
	n.value, n.valid = value, ok && err == nil
	return nil
}

// MarshalJSON writes the number, or null when unset.
func (n FlexInt64) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(n.value, 10)), nil
}

// Ptr returns the value as *int64, nil when the receiver is nil or unset.
func (n *FlexInt64) Ptr() *int64 {
	if n == nil || !n.valid {
		return nil
	}
	v := n.value
	return &v
}

// ParseFlexInt reads a JSON number or numeric string. ok is false for null or empty strings.
func ParseFlexInt(data []byte) (int64, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false, nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return 0, false, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0, false, nil
		}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false, fmt.Errorf("invalid integer %q", raw)
	}
	return int64(f), true, nil
}
