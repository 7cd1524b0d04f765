package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/svbridge/internal/repositories"
	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
	"github.com/desertthunder/svbridge/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Deps are the collaborators the handlers need.
type Deps struct {
	Generator    *services.Generator
	BaseURL      services.BaseURLFunc
	Reconciler   *tasks.Reconciler
	Batcher      *tasks.TaskBatcher
	Configs      *repositories.ConfigStore
	Integrations *repositories.IntegrationRepository
	Logger       *log.Logger
}

// Server holds the handlers of the short-video surface.
type Server struct {
	generator    *services.Generator
	baseURL      services.BaseURLFunc
	reconciler   *tasks.Reconciler
	batcher      *tasks.TaskBatcher
	configs      *repositories.ConfigStore
	integrations *repositories.IntegrationRepository
	validate     *validator.Validate
	logger       *log.Logger
}

// New creates a [Server]. Missing optional collaborators fall back to defaults.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = shared.NewLogger(nil)
	}
	if d.BaseURL == nil {
		d.BaseURL = shared.DefaultConfig().GeneratorBaseURL
	}
	if d.Batcher == nil {
		d.Batcher = tasks.NewTaskBatcher(d.Generator, 0, 0, d.Logger)
	}
	if d.Reconciler == nil {
		d.Reconciler = tasks.NewReconciler(d.Generator, d.BaseURL, nil, d.Logger)
	}

	return &Server{
		generator:    d.Generator,
		baseURL:      d.BaseURL,
		reconciler:   d.Reconciler,
		batcher:      d.Batcher,
		configs:      d.Configs,
		integrations: d.Integrations,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       d.Logger,
	}
}

// Handler builds the router. Every route lives under /short-video and requires an organization.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))

	r.Route("/short-video", func(r chi.Router) {
		r.Use(RequireOrganization)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.createTasks)
			r.Get("/", s.listTasks)
			r.Get("/{id}", s.getTask)
			r.Delete("/{id}", s.deleteTask)
			r.Post("/{id}/trigger", s.triggerTask)
			r.Post("/{id}/retry", s.retryTask)
		})

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", s.listPersonas)
			r.Post("/", s.createPersona)
			r.Get("/{id}", s.getPersona)
			r.Put("/{id}", s.updatePersona)
			r.Delete("/{id}", s.deletePersona)
		})

		r.Route("/platform-accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Get("/{id}", s.getAccount)
			r.Put("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
		})
		r.Post("/sync-platform-account", s.syncAccount)

		r.Post("/integrations/{id}/sync", s.syncIntegration)
		r.Delete("/integrations/{id}/platform-accounts", s.cascadeIntegration)

		r.Get("/integration-config", s.getIntegrationConfig)
		r.Post("/integration-config", s.saveIntegrationConfig)

		r.Get("/prompts/items", s.promptItems)
		r.Get("/prompts/grouped/by-name", s.promptsByName)
		r.Get("/book-catalog/categories", s.bookCategories)
		r.Get("/book-catalog/source-tags", s.bookSourceTags)
		r.Get("/book-catalog/books/for-selection", s.booksForSelection)
		r.Post("/topics/discover", s.discoverTopics)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
