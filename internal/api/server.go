package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/stationd/internal/config"
	"github.com/dgallion1/stationd/internal/export"
	"github.com/dgallion1/stationd/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for stationd.
type Server struct {
	router   chi.Router
	store    *store.Store
	exporter *export.Exporter
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, exp *export.Exporter, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:    st,
		exporter: exp,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/documents", s.handleListDocuments)
		r.Post("/api/documents", s.handleSaveDocument)
		r.Post("/api/documents/import", s.handleImportDocument)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Patch("/api/documents/{docID}", s.handlePatchDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Post("/api/documents/{docID}/autosave", s.handleAutoSave)
		r.Get("/api/documents/{docID}/versions", s.handleListVersions)
		r.Post("/api/documents/{docID}/versions/{version}/restore", s.handleRestoreVersion)
		r.Get("/api/documents/{docID}/tags", s.handleListTags)
		r.Post("/api/documents/{docID}/tags", s.handleAddTags)
		r.Delete("/api/documents/{docID}/tags/{tag}", s.handleRemoveTag)
		r.Get("/api/documents/{docID}/export/{format}", s.handleExportDocument)
		r.Post("/api/documents/{docID}/schedule", s.handleSchedulePost)

		r.Post("/api/export/{format}", s.handleExport)

		r.Get("/api/projects", s.handleListProjects)
		r.Post("/api/projects", s.handleCreateProject)
		r.Patch("/api/projects/{projectID}", s.handleUpdateProject)
		r.Delete("/api/projects/{projectID}", s.handleDeleteProject)

		r.Get("/api/schedule", s.handleListSchedule)
		r.Delete("/api/schedule/{postID}", s.handleCancelPost)
		r.Post("/api/schedule/{postID}/reschedule", s.handleReschedulePost)

		r.Get("/api/activity", s.handleActivity)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
