package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maltedev/listing-harvester/internal/harvest"
)

// StatusSource reports the progress of the current run.
type StatusSource interface {
	Snapshot() harvest.Snapshot
}

type Handlers struct {
	status StatusSource
	logger *slog.Logger
}

func NewHandlers(status StatusSource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		status: status,
		logger: logger.With("component", "api"),
	}
}

// Router exposes read-only endpoints; nothing here can steer the browser.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.GetHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/status/completed", h.GetCompleted)
	})

	return r
}

func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.status.Snapshot()
	status := "ok"
	if snap.Closed {
		status = "shutting_down"
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"run_id": snap.RunID,
	})
}

func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.status.Snapshot())
}

func (h *Handlers) GetCompleted(w http.ResponseWriter, r *http.Request) {
	snap := h.status.Snapshot()
	completed := snap.Completed
	if completed == nil {
		completed = []harvest.CompletedFilter{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    snap.RunID,
		"completed": completed,
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
