package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig       = fmt.Errorf("configuration not found")
	ErrInvalidConfig       = fmt.Errorf("invalid configuration")
	ErrUnsupportedProvider = fmt.Errorf("provider not supported")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrNotFound   = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrUnauthorized    = fmt.Errorf("unauthorized")
)

// StatusError is implemented by errors that carry their own HTTP status code.
type StatusError interface {
	error
	Status() int
}

// HTTPStatus maps an error to the HTTP status code reported to callers.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var se StatusError
	if errors.As(err, &se) {
		return se.Status()
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ConfigMessage returns the corrective text of a missing-configuration error without the
// sentinel prefix, or err.Error() for any other error.
func ConfigMessage(err error) string {
	if errors.Is(err, ErrMissingConfig) {
		return strings.TrimPrefix(err.Error(), ErrMissingConfig.Error()+": ")
	}
	return err.Error()
}
