package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/OpenDive/suibotics-core-sub002/control/service"
	"github.com/OpenDive/suibotics-core-sub002/control/session"
	"github.com/OpenDive/suibotics-core-sub002/control/store"
	"github.com/OpenDive/suibotics-core-sub002/registry"
	"github.com/OpenDive/suibotics-core-sub002/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service     service.ControlService
	devices     registry.DeviceRegistry
	credentials registry.CredentialRegistry
	hub         *websocket.Hub
	router      *mux.Router
}

// NewServer creates a new API server
func NewServer(svc service.ControlService, devices registry.DeviceRegistry, credentials registry.CredentialRegistry, hub *websocket.Hub) *Server {
	s := &Server{
		service:     svc,
		devices:     devices,
		credentials: credentials,
		hub:         hub,
		router:      mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session coordination
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handleSubmitMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/end", s.handleEndSession).Methods("POST")
	api.HandleFunc("/directions", s.handleDirections).Methods("GET")

	// Identity registry
	api.HandleFunc("/devices", s.handleRegisterDevice).Methods("POST")
	api.HandleFunc("/devices", s.handleListDevices).Methods("GET")
	api.HandleFunc("/devices/{did}", s.handleGetDevice).Methods("GET")
	api.HandleFunc("/devices/{did}", s.handleDeregisterDevice).Methods("DELETE")
	api.HandleFunc("/devices/{did}/keys", s.handleAddKey).Methods("POST")
	api.HandleFunc("/devices/{did}/keys/{keyId}", s.handleRemoveKey).Methods("DELETE")
	api.HandleFunc("/devices/{did}/services", s.handleAddService).Methods("POST")
	api.HandleFunc("/devices/{did}/services/{serviceId}", s.handleRemoveService).Methods("DELETE")

	// Credential registry
	api.HandleFunc("/credentials", s.handleIssueCredential).Methods("POST")
	api.HandleFunc("/credentials", s.handleListCredentials).Methods("GET")
	api.HandleFunc("/credentials/{id}", s.handleGetCredential).Methods("GET")
	api.HandleFunc("/credentials/{id}/revoke", s.handleRevokeCredential).Methods("POST")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, session.ErrNotYetExpired),
		errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, registry.ErrAlreadyRegistered),
		errors.Is(err, registry.ErrRevoked):
		return http.StatusConflict
	case errors.Is(err, registry.ErrNotController):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Creator string `json:"creator"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), req.Creator)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSubmitMove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	var req struct {
		Principal string `json:"principal"`
		Direction string `json:"direction"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dir, err := session.ParseDirection(req.Direction)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := s.service.SubmitMove(r.Context(), sessionID, req.Principal, dir)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	result, err := s.service.EndSession(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	directions := make([]map[string]interface{}, 0, 8)
	for _, dir := range session.Directions() {
		directions = append(directions, map[string]interface{}{
			"value": uint8(dir),
			"name":  dir.String(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"directions":      directions,
		"duration_millis": session.DurationMillis,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")

	// Verify the session exists when a specific feed is requested
	if sessionID != "" {
		if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
			respondDomainError(w, err)
			return
		}
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// principalHeader extracts the calling principal for owner-checked registry
// mutations.
func principalHeader(r *http.Request) (string, error) {
	principal := r.Header.Get("X-Principal")
	if principal == "" {
		return "", fmt.Errorf("X-Principal header is required")
	}
	return principal, nil
}
