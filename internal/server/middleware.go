package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/desertthunder/svbridge/internal/shared"
)

// OrganizationHeader carries the caller's organization. Authentication happens upstream.
const OrganizationHeader = "X-Organization-Id"

type ctxKey int

const orgKey ctxKey = iota

// RequireOrganization rejects requests without an organization header with 401.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org := strings.TrimSpace(r.Header.Get(OrganizationHeader))
		if org == "" {
			writeJSON(w, shared.HTTPStatus(shared.ErrUnauthorized), errorBody{Message: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), orgKey, org)))
	})
}

// Organization returns the organization set by [RequireOrganization].
func Organization(ctx context.Context) string {
	org, _ := ctx.Value(orgKey).(string)
	return org
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []any{"method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start)}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", kv...)
				return
			}
			logger.Info("request", kv...)
		})
	}
}
