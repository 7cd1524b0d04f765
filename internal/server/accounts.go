package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
	"github.com/desertthunder/svbridge/internal/tasks"
)

const syncFallback = "Failed to sync platform account. Check SHORT_VIDEO_API_URL and short_video service."

type syncRequest struct {
	IntegrationID string `json:"integration_id" validate:"required"`
}

type syncResponse struct {
	OK                bool   `json:"ok"`
	PlatformAccountID string `json:"platform_account_id"`
}

type cascadeFailure struct {
	AccountID string `json:"account_id"`
	Message   string `json:"message"`
}

type cascadeResponse struct {
	IntegrationID string           `json:"integration_id"`
	Deleted       int              `json:"deleted"`
	Failed        []cascadeFailure `json:"failed"`
}

// listAccounts proxies the account listing and fills avatars from the organization's integrations.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	integrationID := strings.TrimSpace(q.Get("integration_id"))
	filter := services.AccountFilter{
		Platform:      q.Get("platform"),
		Status:        q.Get("status"),
		IntegrationID: integrationID,
		AccountID:     strings.TrimSpace(q.Get("account_id")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := s.generator.ListAccounts(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to fetch platform accounts")
		return
	}
	if len(page.Items) == 0 {
		writeJSON(w, http.StatusOK, page)
		return
	}

	org := Organization(r.Context())
	integrations, err := s.integrations.ListByOrganization(r.Context(), org)
	if err != nil {
		s.logger.Warn("skipping avatar enrichment", "organization", org, "error", err)
		writeJSON(w, http.StatusOK, page)
		return
	}

	tasks.EnrichAvatars(page, integrations, integrationID)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to fetch platform account")
		return
	}
	writeRaw(w, body)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to create platform account"
	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}
	acc, err := s.generator.CreateAccount(r.Context(), body)
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to update platform account"
	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}
	out, err := s.generator.UpdateAccount(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeRaw(w, out)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := s.generator.DeleteAccount(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to delete platform account")
		return
	}
	s.dropAccountConfigs(r.Context(), Organization(r.Context()), id)
	writeRaw(w, body)
}

// syncAccount links the integration named in the body to a generator account.
func (s *Server) syncAccount(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, syncFallback)
		return
	}
	req.IntegrationID = strings.TrimSpace(req.IntegrationID)
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, "integration_id is required")
		return
	}
	s.sync(w, r, req.IntegrationID)
}

// syncIntegration is the connect hook: the same as syncAccount with the id in the path.
func (s *Server) syncIntegration(w http.ResponseWriter, r *http.Request) {
	s.sync(w, r, chi.URLParam(r, "id"))
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request, integrationID string) {
	org := Organization(r.Context())
	integration, err := s.integrations.Get(r.Context(), org, integrationID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Integration not found"})
		return
	case err != nil:
		writeError(w, err, syncFallback)
		return
	}

	id, err := s.reconciler.Sync(r.Context(), tasks.ParamsFor(integration), nil)
	if err != nil {
		message := syncFallback
		var failure *tasks.SyncFailure
		if errors.As(err, &failure) && failure.Reason != "" {
			message = failure.Reason
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: message})
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{OK: true, PlatformAccountID: id})
}

// cascadeIntegration is the disconnect hook. Per-account failures are reported, not fatal.
func (s *Server) cascadeIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID := chi.URLParam(r, "id")
	res, err := s.reconciler.DeleteByIntegrationID(r.Context(), integrationID, nil)
	if err != nil {
		writeError(w, err, "Failed to delete platform accounts")
		return
	}

	out := cascadeResponse{IntegrationID: integrationID, Deleted: res.Deleted(), Failed: []cascadeFailure{}}
	s.dropAccountConfigs(r.Context(), Organization(r.Context()), res.DeletedIDs()...)
	for _, f := range res.Failures() {
		out.Failed = append(out.Failed, cascadeFailure{AccountID: f.AccountID, Message: errorMessage(f.Err, "delete failed")})
	}
	writeJSON(w, http.StatusOK, out)
}

// dropAccountConfigs removes stored configs of deleted accounts. Failures are only logged.
func (s *Server) dropAccountConfigs(ctx context.Context, org string, accountIDs ...string) {
	for _, id := range accountIDs {
		if err := s.configs.Delete(ctx, org, id); err != nil {
			s.logger.Warn("failed to drop stored account config", "organization", org, "account", id, "error", err)
		}
	}
}
