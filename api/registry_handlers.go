package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/OpenDive/suibotics-core-sub002/registry"
)

// Device Registry Handlers

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		DID string `json:"did"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := s.devices.Register(r.Context(), caller, req.DID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	records, err := s.devices.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"devices": records,
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	record, err := s.devices.Get(r.Context(), vars["did"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeregisterDevice(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	if err := s.devices.Deregister(r.Context(), caller, vars["did"]); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Device deregistered",
	})
}

func (s *Server) handleAddKey(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	var key registry.KeyRecord
	if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := s.devices.AddKey(r.Context(), caller, vars["did"], key)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleRemoveKey(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	record, err := s.devices.RemoveKey(r.Context(), caller, vars["did"], vars["keyId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	var svc registry.ServiceRecord
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := s.devices.AddService(r.Context(), caller, vars["did"], svc)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleRemoveService(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	record, err := s.devices.RemoveService(r.Context(), caller, vars["did"], vars["serviceId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// Credential Registry Handlers

func (s *Server) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cred registry.CredentialRecord
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cred.Issuer = caller

	issued, err := s.credentials.Issue(r.Context(), cred)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, issued)
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		respondError(w, http.StatusBadRequest, "subject query parameter is required")
		return
	}

	creds, err := s.credentials.ListBySubject(r.Context(), subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(creds),
		"credentials": creds,
	})
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	cred, err := s.credentials.Get(r.Context(), vars["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cred)
}

func (s *Server) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	caller, err := principalHeader(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)

	cred, err := s.credentials.Revoke(r.Context(), caller, vars["id"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cred)
}
