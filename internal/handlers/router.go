package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/xelth-com/campusgate/internal/buildinfo"
	"github.com/xelth-com/campusgate/internal/config"
	"github.com/xelth-com/campusgate/internal/flows"
	"github.com/xelth-com/campusgate/internal/middleware"
	"github.com/xelth-com/campusgate/internal/store"
	"github.com/xelth-com/campusgate/internal/uploads"
	ws "github.com/xelth-com/campusgate/internal/websocket"
)

// Router wraps the mux router with the injected collaborators
type Router struct {
	*mux.Router
	db      *gorm.DB
	cfg     *config.Config
	store   *store.Store
	flows   *flows.Flows
	uploads *uploads.Store
	hub     *ws.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *gorm.DB, cfg *config.Config, s *store.Store, f *flows.Flows, u *uploads.Store, hub *ws.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		db:      db,
		cfg:     cfg,
		store:   s,
		flows:   f,
		uploads: u,
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Visitor routes (protected)
	requireAuth := middleware.Auth(cfg)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireAuth)
	api.HandleFunc("/visitors", r.listVisitors).Methods("GET")
	api.HandleFunc("/visitors", r.registerVisitor).Methods("POST")
	api.HandleFunc("/visitors/today", r.todaysVisitors).Methods("GET")
	api.HandleFunc("/visitors/{id}", r.getVisitor).Methods("GET")
	api.HandleFunc("/visitors/{id}/details", r.submitDetails).Methods("POST")
	api.HandleFunc("/visitors/{id}/checkout", r.checkOut).Methods("POST")
	api.HandleFunc("/visitors/{id}/qr", r.visitorQR).Methods("GET")
	api.HandleFunc("/visitors/{id}/pass", r.visitorPass).Methods("GET")
	api.HandleFunc("/visitors/{id}/photos", r.uploadPhoto).Methods("POST")
	api.HandleFunc("/visitors/{id}/documents", r.uploadDocument).Methods("POST")
	api.HandleFunc("/checkin/lookup", r.lookupVisitor).Methods("GET")
	api.HandleFunc("/checkin", r.quickCheckIn).Methods("POST")

	// Live visitor snapshots for the log screens
	r.HandleFunc("/ws/visitors", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	// Uploaded photos and documents
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(u.Dir()))))

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": buildinfo.Version,
		"screens": r.hub.ClientCount(),
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
