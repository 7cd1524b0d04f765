package server

import (
	"maps"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fields of an integration-config body that describe the account rather than its defaults.
var identityFields = []string{"platform_account_id", "integration_id", "name", "avatar_url", "description", "account_url"}

// Account fields pushed to the generator alongside the config when present in the body.
var accountFields = []string{"avatar_url", "description", "account_url"}

type okResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) getIntegrationConfig(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("platform_account_id"))
	cfg, err := s.configs.Load(r.Context(), Organization(r.Context()), accountID)
	if err != nil {
		writeError(w, err, "Failed to fetch integration config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// saveIntegrationConfig stores an account's defaults and mirrors them onto the generator account.
//
// The local save happens first. Naming a platform account without a configured generator is an
// error; otherwise the generator update is best effort and a failure is only logged.
func (s *Server) saveIntegrationConfig(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to save integration config"

	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}

	org := Organization(r.Context())
	accountID := trimmedString(body, "platform_account_id")
	integrationID := trimmedString(body, "integration_id")

	cfg := maps.Clone(body)
	for _, k := range identityFields {
		delete(cfg, k)
	}

	if err := s.configs.Save(r.Context(), org, accountID, cfg); err != nil {
		writeError(w, err, fallback)
		return
	}

	if accountID != "" {
		if _, err := s.baseURL(); err != nil {
			writeError(w, err, fallback)
			return
		}
		s.pushAccountConfig(r, org, accountID, integrationID, body, cfg)
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) pushAccountConfig(r *http.Request, org, accountID, integrationID string, body, cfg map[string]any) {
	synced := maps.Clone(cfg)
	if integrationID != "" {
		synced["postiz"] = map[string]any{"organization_id": org, "integration_id": integrationID}
	}

	update := map[string]any{"config": synced}
	if v, ok := cfg["persona_id"]; ok {
		update["persona_id"] = v
	}
	if name, ok := body["name"].(string); ok {
		update["name"] = name
	}
	for _, k := range accountFields {
		if v, ok := body[k]; ok {
			update[k] = v
		}
	}

	if _, err := s.generator.UpdateAccount(r.Context(), accountID, update); err != nil {
		s.logger.Warn("failed to push config to platform account", "account", accountID, "error", err)
	}
}

func trimmedString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

// validationMessage renders the first field error of a validation failure.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return e.Namespace() + " is required"
	case "min":
		return e.Namespace() + " must have at least " + e.Param() + " item(s)"
	default:
		return e.Namespace() + " is invalid"
	}
}
