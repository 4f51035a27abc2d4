package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"docintake/internal/intake"
	"docintake/internal/negotiate"
	"docintake/internal/oracle"
	"docintake/internal/summary"
)

// IntakeHandler serves the session lifecycle endpoints.
type IntakeHandler struct {
	svc *intake.Service
}

func NewIntakeHandler(svc *intake.Service) *IntakeHandler {
	return &IntakeHandler{svc: svc}
}

type fileUploadJSON struct {
	Name          string               `json:"name"`
	Content       string               `json:"content,omitempty"`
	ContentBase64 string               `json:"content_base64,omitempty"`
	Summary       *summary.FileSummary `json:"summary,omitempty"`
}

type beginRequestJSON struct {
	Model      string           `json:"model,omitempty"`
	MaxDepth   *int             `json:"max_depth,omitempty"`
	Credential string           `json:"credential,omitempty"`
	Files      []fileUploadJSON `json:"files"`
}

type beginResponseJSON struct {
	SessionID string             `json:"session_id"`
	Outcome   *negotiate.Outcome `json:"outcome"`
}

// HandleBegin starts a new intake session: POST /v1/intakes
func (h *IntakeHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in beginRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req := intake.BeginRequest{
		Model:      in.Model,
		MaxDepth:   in.MaxDepth,
		Credential: in.Credential,
	}
	for _, f := range in.Files {
		fu := intake.FileUpload{Name: f.Name, Summary: f.Summary}
		switch {
		case f.ContentBase64 != "":
			b, err := base64.StdEncoding.DecodeString(f.ContentBase64)
			if err != nil {
				http.Error(w, "invalid content_base64 for "+f.Name, http.StatusBadRequest)
				return
			}
			fu.Content = b
		case f.Content != "":
			fu.Content = []byte(f.Content)
		}
		req.Files = append(req.Files, fu)
	}

	res, err := h.svc.Begin(r.Context(), req)
	if err != nil {
		writeOracleError(w, err)
		return
	}
	writeJSON(w, beginResponseJSON{SessionID: res.SessionID, Outcome: res.Outcome})
}

type submitRequestJSON struct {
	SessionID string             `json:"session_id"`
	Answers   []negotiate.Answer `json:"answers"`
}

// HandleSubmit forwards answers for the pending questions: POST /v1/intakes/answers
func (h *IntakeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in submitRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.SessionID) == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	outcome, err := h.svc.Submit(r.Context(), in.SessionID, in.Answers)
	if err != nil {
		if errors.Is(err, negotiate.ErrNoPending) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeOracleError(w, err)
		return
	}
	writeJSON(w, outcome)
}

// HandleGet reports the persisted session state: GET /v1/intakes/get?session_id=...
func (h *IntakeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	rec, ok := h.svc.Get(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

type resetRequestJSON struct {
	SessionID string `json:"session_id"`
}

// HandleReset clears a session for a new file set: POST /v1/intakes/reset
func (h *IntakeHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in resetRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.SessionID) == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	h.svc.Reset(in.SessionID)
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

// writeOracleError maps oracle failures onto transport-appropriate statuses:
// network failures are a bad gateway, service rejections keep their status.
func writeOracleError(w http.ResponseWriter, err error) {
	var rej *oracle.RejectionError
	if errors.As(err, &rej) {
		status := rej.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		http.Error(w, rej.Message, status)
		return
	}
	if oracle.IsTransport(err) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
