package services

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/svbridge/internal/shared"
)

// UpstreamError is a non-2xx answer from the generator.
//
// Message carries the body's message field, else its detail field; non-string details (validation
// error lists) are JSON-encoded.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generator returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("generator returned status %d: %s", e.StatusCode, e.Message)
}

// Status implements [shared.StatusError].
func (e *UpstreamError) Status() int { return e.StatusCode }

func (e *UpstreamError) Unwrap() error { return shared.ErrAPIRequest }

func newUpstreamError(status int, body []byte) *UpstreamError {
	return &UpstreamError{StatusCode: status, Message: upstreamMessage(body)}
}

func upstreamMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "detail"} {
		switch v := payload[key].(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return v
			}
		case bool:
			if v {
				return "true"
			}
		default:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		}
	}
	return ""
}
