package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

func TestStudentDetailGatewayFetchUnwrapsEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"lesson_data":{},"feedback":[]}}`))
	}))
	defer srv.Close()

	gw := NewStudentDetailGateway(srv.URL, "secret", time.Second, nil)
	raw, err := gw.Fetch(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lesson_data":{},"feedback":[]}`, string(raw))
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/students/stu-1/detail", gotPath)
}

func TestStudentDetailGatewayFetchBareObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"lesson_data":{"10A":{"subjects":{}}}}`))
	}))
	defer srv.Close()

	raw, err := NewStudentDetailGateway(srv.URL, "", 0, nil).Fetch(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lesson_data":{"10A":{"subjects":{}}}}`, string(raw))
}

func TestStudentDetailGatewayFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{name: "not found", status: http.StatusNotFound, code: appErrors.ErrNotFound.Code},
		{name: "server error", status: http.StatusBadGateway, code: appErrors.ErrUpstreamUnavailable.Code},
		{name: "unauthorized", status: http.StatusUnauthorized, code: appErrors.ErrUpstreamUnavailable.Code},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := NewStudentDetailGateway(srv.URL, "", time.Second, nil).Fetch(context.Background(), "stu-1")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestStudentDetailGatewayFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewStudentDetailGateway(srv.URL, "", time.Second, nil).Fetch(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

func TestDecodeAcceptsBothShapes(t *testing.T) {
	body := `{"lesson_data":{"10A":{"subjects":{"s1":{"topic_id":7,"lessons":[{"start_time":"100","end_time":200}]}}}},"absence_info":{"b":{"start_time":1},"a":{"start_time":2}}}`

	for _, raw := range []string{body, `{"data":` + body + `}`} {
		payload, err := Decode(json.RawMessage(raw))
		require.NoError(t, err)
		slot := payload.LessonData["10A"].Subjects["s1"].Lessons[0]
		assert.Equal(t, int64(100), *slot.StartTime.Ptr())
		assert.Equal(t, int64(200), *slot.EndTime.Ptr())
		assert.Equal(t, "7", string(payload.LessonData["10A"].Subjects["s1"].TopicID))
		require.Len(t, payload.AbsenceInfo, 2)
		assert.JSONEq(t, "2", string(payload.AbsenceInfo[0]["start_time"]))
	}

	_, err := Decode(json.RawMessage(`[1,2]`))
	require.Error(t, err)
}

func TestDecodeKeepsValidRecordsAroundMalformedOnes(t *testing.T) {
	raw := `{"lesson_data":[],"feedback":[{"id":1,"timestamp":"2024-01-01 10:00"}],"absence_info":[null,"x",{"start_time":1,"end_time":2}]}`

	payload, err := Decode(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Empty(t, payload.LessonData)
	require.Len(t, payload.Feedback, 1)
	assert.Nil(t, payload.Feedback[0].Timestamp.Ptr())
	assert.Len(t, payload.AbsenceInfo, 1)
}

func TestDecodeRejectsWrongContainerShape(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"lesson_data":"nope"}`))
	require.Error(t, err)
}
