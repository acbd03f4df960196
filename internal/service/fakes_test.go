package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/sma-adp-insights/internal/models"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

// Lessons: Math 2024-05-10 08:00-09:00Z, Physics 2024-05-31 23:00Z to 2024-06-01 01:00Z.
const studentPayload = `{
	"data": {
		"student_data": {"name": "Ayu"},
		"lesson_data": {
			"Class A": {"subjects": {"sub-1": {"topic_name": "Math", "lessons": [{"start_time": 1715328000, "end_time": 1715331600}]}}},
			"Class B": {"subjects": {"sub-2": {"topic_id": 7, "lessons": [{"start_time": "1717196400", "end_time": "1717203600"}]}}}
		},
		"class_topics": [{"id": 7, "name": "Physics"}],
		"absence_info": [
			{"start_time": 1715760000, "end_time": 1715767200, "unauthorized": 1},
			{"from": 1715846400, "to": 1715850000, "reason": "sick"}
		],
		"feedback": [
			{"id": 1, "teacher": "Budi", "topic_name": "Math", "timestamp": 1716163200000},
			{"id": 2, "teacher": "Sari", "topic_name": "Physics"}
		]
	}
}`

var firstOfJune = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	raw     json.RawMessage
	err     error
	calls   int32
	release chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, studentID string) (json.RawMessage, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

type fakeSnapshotReader struct {
	snapshot *models.StudentSnapshot
	err      error
}

func (f *fakeSnapshotReader) Latest(ctx context.Context, studentID string) (*models.StudentSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.snapshot == nil {
		return nil, appErrors.ErrNotFound
	}
	return f.snapshot, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	items []models.StudentSnapshot
	err   error
}

func (f *fakeQueue) TryEnqueue(snapshot models.StudentSnapshot) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.items = append(f.items, snapshot)
	return "job-1", nil
}

type stubCacheRepo struct {
	mu      sync.Mutex
	store   map[string][]byte
	getErr  error
	deleted []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{store: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			s.deleted = append(s.deleted, key)
		}
	}
	return nil
}
