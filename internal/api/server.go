package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storyreel/internal/document"
	"storyreel/internal/logging"
	"storyreel/internal/progress"
	"storyreel/internal/services"
)

// Server exposes the progress tree, canonical documents, and the pause gate
// over HTTP. It is read-only for documents; the only mutations are the
// pause/resume control endpoints.
type Server struct {
	bind    string
	logger  *slog.Logger
	tracker *progress.Tracker
	store   *document.Store

	listener net.Listener
	server   *http.Server
}

// NewServer builds the API server. bind is a host:port address.
func NewServer(bind string, tracker *progress.Tracker, store *document.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:    strings.TrimSpace(bind),
		logger:  logging.NewComponentLogger(logger, "api"),
		tracker: tracker,
		store:   store,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route tree, usable directly in tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/tasks", s.handleTasks)
	r.Get("/api/documents", s.handleDocuments)
	r.Get("/api/documents/{storyID}", s.handleDocument)
	r.Post("/api/control/pause", s.handlePause)
	r.Post("/api/control/resume", s.handleResume)
	return r
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api: bind address required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Shutdown stops the server, waiting briefly for in-flight requests.
func (s *Server) Shutdown() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

type healthResponse struct {
	Status string `json:"status"`
	Paused bool   `json:"paused"`
}

type tasksResponse struct {
	Tasks []*progress.Task `json:"tasks"`
}

type documentsResponse struct {
	StoryIDs []string `json:"storyIds"`
}

type controlResponse struct {
	Paused bool `json:"paused"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Paused: s.tracker.Gate().Paused()})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, tasksResponse{Tasks: s.tracker.Tree()})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListIDs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, documentsResponse{StoryIDs: ids})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")
	doc, err := s.store.Get(r.Context(), storyID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "story not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.tracker.Gate().Pause()
	s.logger.Info("pipelines paused", logging.String(logging.FieldEventType, "pause"))
	s.writeJSON(w, http.StatusOK, controlResponse{Paused: true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.tracker.Gate().Resume()
	s.logger.Info("pipelines resumed", logging.String(logging.FieldEventType, "resume"))
	s.writeJSON(w, http.StatusOK, controlResponse{Paused: false})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
