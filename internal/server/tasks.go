package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/svbridge/internal/resolver"
	"github.com/desertthunder/svbridge/internal/tasks"
)

type createTasksResponse struct {
	Tasks []tasks.TaskOutcome `json:"tasks"`
}

type taskResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	VideoURL      string          `json:"videoUrl,omitempty"`
	VideoSequence any             `json:"videoSequence,omitempty"`
	Raw           json.RawMessage `json:"raw"`
}

// createTasks creates one generator task per requested integration.
//
// Organization defaults are the base layer. If any task fails the first failure in request order is
// returned, matching what callers of the single-shot endpoint expect.
func (s *Server) createTasks(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to create short video tasks"

	var req tasks.BatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, fallback)
		return
	}
	if len(req.Integrations) == 0 {
		badRequest(w, "No integrations provided")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		badRequest(w, validationMessage(err))
		return
	}
	if _, err := s.baseURL(); err != nil {
		writeError(w, err, fallback)
		return
	}

	org := Organization(r.Context())
	defaults, err := s.configs.Load(r.Context(), org, "")
	if err != nil {
		s.logger.Warn("failed to load organization defaults", "organization", org, "error", err)
		defaults = map[string]any{}
	}

	res := s.batcher.CreateTasks(r.Context(), req, defaults, nil)
	if err := res.FirstError(); err != nil {
		writeError(w, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, createTasksResponse{Tasks: res.Outcomes})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := forward(r.URL.Query(), "status", "workflow_type", "integration_id", "platform_account_id", "page", "limit")
	body, err := s.generator.ListTasks(r.Context(), q)
	if err != nil {
		writeError(w, err, "Failed to fetch tasks")
		return
	}
	writeRaw(w, body)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.generator.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to fetch short video task")
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{
		ID:            task.ID,
		Status:        string(resolver.NormalizeStatus(task.Status)),
		VideoURL:      task.VideoURL(),
		VideoSequence: task.VideoSequence(),
		Raw:           task.Raw,
	})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.DeleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to delete task")
		return
	}
	writeRaw(w, body)
}

func (s *Server) triggerTask(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.TriggerTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to trigger task")
		return
	}
	writeRaw(w, body)
}

func (s *Server) retryTask(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.RetryTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to retry task")
		return
	}
	writeRaw(w, body)
}
