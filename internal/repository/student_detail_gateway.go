package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/noah-isme/sma-adp-insights/internal/dto"
	appErrors "github.com/noah-isme/sma-adp-insights/pkg/errors"
)

const maxPayloadBytes = 16 << 20

// StudentDetailGateway fetches student-detail payloads from the remote admin backend.
type StudentDetailGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewStudentDetailGateway constructs the gateway. A nil client gets one with the given timeout.
func NewStudentDetailGateway(baseURL, token string, timeout time.Duration, client *http.Client) *StudentDetailGateway {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &StudentDetailGateway{baseURL: baseURL, token: token, client: client}
}

// Fetch returns the raw payload bytes for studentID. Unknown students map to ErrNotFound and
// transport or 5xx failures to ErrUpstreamUnavailable.
func (g *StudentDetailGateway) Fetch(ctx context.Context, studentID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/students/%s/detail", g.baseURL, url.PathEscape(studentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build student detail request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case resp.StatusCode >= http.StatusBadRequest:
		cause := fmt.Errorf("upstream status %d", resp.StatusCode)
		return nil, appErrors.Wrap(cause, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}

	return unwrapEnvelope(body)
}

// Decode parses raw payload bytes, accepting both the bare object and a {"data": ...} envelope.
func Decode(raw json.RawMessage) (dto.StudentDetailPayload, error) {
	var payload dto.StudentDetailPayload
	body, err := unwrapEnvelope(raw)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, fmt.Errorf("decode student detail: %w", err)
	}
	return payload, nil
}

func unwrapEnvelope(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("student detail payload must be a JSON object")
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode student detail envelope: %w", err)
	}
	inner := bytes.TrimSpace(envelope.Data)
	if len(inner) > 0 && inner[0] == '{' {
		return json.RawMessage(inner), nil
	}
	return json.RawMessage(trimmed), nil
}
