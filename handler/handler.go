// Package handler provides the HTTP handlers for the console API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stevemurr/school-console/api"
	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/store"
)

// Deps are the services the handler serves.
type Deps struct {
	// Collections backs the raw /storage endpoints.
	Collections *collection.Store[json.RawMessage]
	// Endpoints are served under /api/{path}.
	Endpoints []api.Endpoint
	// Onboarding adds the workflow routes. Optional.
	Onboarding *api.Onboarding
	// Gatherer is exposed at /metrics. Optional.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	deps      Deps
	endpoints map[string]api.Endpoint
	logger    *zap.Logger
	mux       *http.ServeMux
}

// New creates a Handler and wires up all routes.
func New(deps Deps) *Handler {
	h := &Handler{
		deps:      deps,
		endpoints: make(map[string]api.Endpoint, len(deps.Endpoints)),
		logger:    deps.Logger,
		mux:       http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	for _, ep := range deps.Endpoints {
		h.endpoints[ep.Definition().Path] = ep
	}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /health", h.health)
	if h.deps.Gatherer != nil {
		h.mux.Handle("GET /metrics", promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// --- Entity façades ---
	h.mux.HandleFunc("GET /api", h.listEntities)
	h.mux.HandleFunc("GET /api/{entity}", h.list)
	h.mux.HandleFunc("GET /api/{entity}/stats", h.stats)
	h.mux.HandleFunc("GET /api/{entity}/{id}", h.get)
	h.mux.HandleFunc("POST /api/{entity}", h.create)
	h.mux.HandleFunc("PATCH /api/{entity}/{id}", h.update)
	h.mux.HandleFunc("PUT /api/{entity}/{id}", h.update)
	h.mux.HandleFunc("DELETE /api/{entity}/{id}", h.delete)

	// --- Onboarding workflow ---
	if h.deps.Onboarding != nil {
		h.mux.HandleFunc("POST /api/onboarding/{id}/advance", h.advanceOnboarding)
		h.mux.HandleFunc("POST /api/onboarding/{id}/reject", h.rejectOnboarding)
	}

	// --- Raw collections ---
	if h.deps.Collections != nil {
		h.mux.HandleFunc("GET /storage", h.listKeys)
		h.mux.HandleFunc("GET /storage/{key}", h.getCollection)
		h.mux.HandleFunc("PUT /storage/{key}", h.putCollection)
		h.mux.HandleFunc("DELETE /storage/{key}", h.deleteCollection)
	}
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// fail maps a service error onto a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]map[string]string, 0)
		for _, fe := range verr.Fields() {
			fields = append(fields, map[string]string{"path": fe.Path, "message": fe.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error(), "fields": fields})
	case errors.Is(err, api.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, api.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrQuotaExceeded):
		writeError(w, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, store.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "School Console",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
