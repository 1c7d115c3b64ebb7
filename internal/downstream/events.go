package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/messnightlife/mess-web/internal/domain"
)

var (
	ErrTimeout     = errors.New("downstream_timeout")
	ErrCanceled    = errors.New("downstream_canceled")
	ErrUnavailable = errors.New("downstream_unavailable")
	ErrNotFound    = errors.New("resource_not_found")
	ErrMalformed   = errors.New("malformed_payload")
)

// maxBodyBytes caps how much of an upstream event body is read.
const maxBodyBytes = 1 << 20

type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&apiErr); err == nil && apiErr.Error.Code != "" {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Code:       apiErr.Error.Code,
			Message:    apiErr.Error.Message,
		}
	}
	return &StatusError{
		StatusCode: resp.StatusCode,
		Code:       "downstream_error",
		Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
	}
}

// EventClient reads single events from the public API.
type EventClient struct {
	baseURL string
	http    *Client
}

func NewEventClient(origin string, cfg ClientConfig) *EventClient {
	return &EventClient{
		baseURL: strings.TrimRight(origin, "/"),
		http:    NewClient(cfg),
	}
}

// Path is the request path for id. The id is opaque and escaped as a single
// segment.
func Path(id string) string {
	return "/api/v1/events/" + url.PathEscape(id)
}

// GetEvent fetches the raw payload for id. Every failure is returned as an
// error matching one of the package sentinels or a *StatusError.
func (c *EventClient) GetEvent(ctx context.Context, id string) (*domain.RawEvent, error) {
	resp, err := c.http.Get(ctx, c.baseURL+Path(id), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, mapError(err)
	}
	return DecodeRawEvent(body)
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// DecodeRawEvent parses an event body. Both the bare object and the
// {"data": {...}} envelope are accepted; the envelope is only unwrapped when
// the top level carries neither an id nor a title of its own.
func DecodeRawEvent(body []byte) (*domain.RawEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, ErrMalformed
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	_, hasID := top["id"]
	_, hasTitle := top["title"]
	if data, ok := top["data"]; ok && !hasID && !hasTitle {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			var env dataEnvelope[domain.RawEvent]
			if err := json.Unmarshal(body, &env); err != nil {
				return nil, errors.Join(ErrMalformed, err)
			}
			return &env.Data, nil
		}
	}

	var raw domain.RawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return &raw, nil
}
