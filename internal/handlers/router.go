package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qrail-tms/qrailgo/internal/buildinfo"
	"github.com/qrail-tms/qrailgo/internal/config"
	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/middleware"
	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
	"github.com/qrail-tms/qrailgo/internal/services/reporting"
	ws "github.com/qrail-tms/qrailgo/internal/websocket"
)

// Router wraps the mux router with the services behind the API
type Router struct {
	*mux.Router
	db        *database.DB
	cfg       *config.Config
	lifecycle *lifecycle.Service
	reporting *reporting.Service
	hub       *ws.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, lc *lifecycle.Service, rp *reporting.Service, hub *ws.Hub) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		cfg:       cfg,
		lifecycle: lc,
		reporting: rp,
		hub:       hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")
	auth.Handle("/me", middleware.Auth(cfg.JWTSecret)(http.HandlerFunc(r.me))).Methods("GET")

	// Live scan feed
	r.HandleFunc("/ws/scanfeed", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	// Batch intake and scanning session
	api.HandleFunc("/batches", r.createBatch).Methods("POST")
	api.HandleFunc("/batches", r.listBatches).Methods("GET")
	api.HandleFunc("/batches/{id}", r.getBatch).Methods("GET")
	api.HandleFunc("/batches/{id}/finish", r.finishBatch).Methods("POST")
	api.HandleFunc("/batches/{id}/scans", r.ingestScan).Methods("POST")
	api.HandleFunc("/batches/{id}/scans/last", r.undoLastScan).Methods("DELETE")
	api.HandleFunc("/batches/{id}/items", r.listBatchItems).Methods("GET")
	api.HandleFunc("/batches/{id}/labels.pdf", r.batchLabels).Methods("GET")

	// Item lifecycle
	api.HandleFunc("/items/resolve", r.resolveItem).Methods("GET")
	api.HandleFunc("/items/{id}/installation", r.recordInstallation).Methods("POST")
	api.HandleFunc("/items/{id}/inspections", r.recordInspection).Methods("POST")
	api.HandleFunc("/items/{id}/inspections", r.listInspections).Methods("GET")

	// Analytics and exports
	api.HandleFunc("/analytics", r.analytics).Methods("GET")
	api.HandleFunc("/reports/export", r.exportReport).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  "qrail",
		"version": buildinfo.Version,
		"started": buildinfo.StartTime,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Validation failures additionally list every offending field.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrStateViolation):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrExternal):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
