package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Personas, prompts and content sourcing are passed through to the generator unchanged.

func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.ListPersonas(r.Context(), forward(r.URL.Query(), "status", "page", "limit"))
	if err != nil {
		writeError(w, err, "Failed to fetch personas")
		return
	}
	writeRaw(w, body)
}

func (s *Server) getPersona(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.GetPersona(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to fetch persona")
		return
	}
	writeRaw(w, body)
}

func (s *Server) createPersona(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to create persona"
	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}
	out, err := s.generator.CreatePersona(r.Context(), body)
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeRaw(w, out)
}

func (s *Server) updatePersona(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to update persona"
	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}
	out, err := s.generator.UpdatePersona(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeRaw(w, out)
}

func (s *Server) deletePersona(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.DeletePersona(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to delete persona")
		return
	}
	writeRaw(w, body)
}

func (s *Server) promptItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := forwardPresent(forward(q, "name"), q, "is_active", "include_defaults")
	body, err := s.generator.PromptItems(r.Context(), params)
	if err != nil {
		writeError(w, err, "Failed to fetch prompts")
		return
	}
	writeRaw(w, body)
}

func (s *Server) promptsByName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := forwardPresent(forward(q), q, "is_active", "include_defaults")
	body, err := s.generator.PromptsByName(r.Context(), params)
	if err != nil {
		writeError(w, err, "Failed to fetch prompts grouped by name")
		return
	}
	writeRaw(w, body)
}

func (s *Server) bookCategories(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.BookCategories(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch book catalog categories")
		return
	}
	writeRaw(w, body)
}

func (s *Server) bookSourceTags(w http.ResponseWriter, r *http.Request) {
	body, err := s.generator.BookSourceTags(r.Context(), forward(r.URL.Query(), "category"))
	if err != nil {
		writeError(w, err, "Failed to fetch source tags")
		return
	}
	writeRaw(w, body)
}

func (s *Server) booksForSelection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := forwardPresent(
		forward(q, "category", "limit", "source_tags"),
		q, "filter_used_books", "require_main_content", "require_toc", "require_reviews",
	)
	body, err := s.generator.BooksForSelection(r.Context(), params)
	if err != nil {
		writeError(w, err, "Failed to fetch books for selection")
		return
	}
	writeRaw(w, body)
}

func (s *Server) discoverTopics(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to discover topics"
	body := map[string]any{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err, fallback)
		return
	}
	out, err := s.generator.DiscoverTopics(r.Context(), body)
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeRaw(w, out)
}
