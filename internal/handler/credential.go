package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"docintake/internal/intake"
)

// CredentialHandler serves credential storage and validation.
type CredentialHandler struct {
	svc *intake.Service
}

func NewCredentialHandler(svc *intake.Service) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

type credentialRequestJSON struct {
	SessionID  string `json:"session_id,omitempty"`
	Credential string `json:"credential"`
}

// HandlePut stores a credential for a session: PUT /v1/credential
func (h *CredentialHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in credentialRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.Credential) == "" {
		http.Error(w, "session_id and credential are required", http.StatusBadRequest)
		return
	}
	if err := h.svc.SetCredential(in.SessionID, in.Credential); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// HandleValidate checks a credential against the oracle's models listing:
// POST /v1/credential/validate. 200 from the listing means valid.
func (h *CredentialHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in credentialRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Credential) == "" {
		http.Error(w, "credential is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.ValidateCredential(r.Context(), in.Credential); err != nil {
		writeJSON(w, map[string]any{"valid": false, "reason": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"valid": true})
}
