package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw passes a generator body through untouched.
func writeRaw(w http.ResponseWriter, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	_, _ = w.Write(body)
}

// writeError answers with the error's status and message, or fallback when nothing better is known.
func writeError(w http.ResponseWriter, err error, fallback string) {
	writeJSON(w, shared.HTTPStatus(err), errorBody{Message: errorMessage(err, fallback)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Message: message})
}

// errorMessage prefers the generator's own message, then the error text, then fallback.
func errorMessage(err error, fallback string) string {
	var upstream *services.UpstreamError
	switch {
	case err == nil:
		return fallback
	case errors.As(err, &upstream):
		if upstream.Message != "" {
			return upstream.Message
		}
		return fallback
	case errors.Is(err, shared.ErrMissingConfig):
		return shared.ConfigMessage(err)
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", shared.ErrInvalidInput, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

// forward copies the non-empty query parameters named by keys.
func forward(q url.Values, keys ...string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// forwardPresent copies the named query parameters that are present, even when empty.
func forwardPresent(out, q url.Values, keys ...string) url.Values {
	for _, k := range keys {
		if q.Has(k) {
			out.Set(k, q.Get(k))
		}
	}
	return out
}
