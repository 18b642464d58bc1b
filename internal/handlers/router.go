package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blufield/blufmsgo/internal/buildinfo"
	"github.com/blufield/blufmsgo/internal/config"
	"github.com/blufield/blufmsgo/internal/database"
	"github.com/blufield/blufmsgo/internal/middleware"
	"github.com/blufield/blufmsgo/internal/notify"
	"github.com/blufield/blufmsgo/internal/setup"
	"github.com/blufield/blufmsgo/internal/storage"
	"github.com/blufield/blufmsgo/internal/utils"
	"github.com/blufield/blufmsgo/internal/websocket"
)

// Router wraps the mux router and the collaborators handlers need
type Router struct {
	*mux.Router
	db       *database.DB
	cfg      *config.Config
	setups   *setup.Service
	blobs    *storage.Store
	hub      *websocket.Hub
	notifier *notify.Notifier
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, setups *setup.Service, blobs *storage.Store, hub *websocket.Hub, notifier *notify.Notifier) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		db:       db,
		cfg:      cfg,
		setups:   setups,
		blobs:    blobs,
		hub:      hub,
		notifier: notifier,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	api.HandleFunc("/scan", r.handleScan).Methods("POST")
	api.HandleFunc("/qr/{kind}/{id}", r.renderQR).Methods("GET")

	api.HandleFunc("/setups/start", r.startSetup).Methods("POST")
	api.HandleFunc("/setups", r.listSetups).Methods("GET")
	api.HandleFunc("/setups/{id}", r.getSetup).Methods("GET")
	api.HandleFunc("/setups/{id}/complete", r.completeSetup).Methods("POST")
	api.HandleFunc("/setups/{id}/approve", r.approveSetup).Methods("POST")
	api.HandleFunc("/setups/{id}/reject", r.rejectSetup).Methods("POST")
	api.HandleFunc("/setups/{id}/report", r.setupReport).Methods("GET")
	api.HandleFunc("/setups/{id}/photos/{photoId}", r.setupPhoto).Methods("GET")

	api.HandleFunc("/supervision/pending", r.listPending).Methods("GET")

	// Websocket feed (token via query string, browsers cannot set headers here)
	r.HandleFunc("/ws/supervision", r.supervisionFeed).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "running",
		"version":   buildinfo.Version,
		"startedAt": buildinfo.StartTime,
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

// respondSetupError maps setup service errors to HTTP statuses
func respondSetupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, setup.ErrSetupNotFound), errors.Is(err, setup.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, setup.ErrInvalidTransition), errors.Is(err, setup.ErrSetupExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, setup.ErrMissingEvidence), errors.Is(err, setup.ErrEmptyReason),
		errors.Is(err, utils.ErrMalformedCode):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
