package session

import (
	"strings"
	"time"

	"docintake/internal/negotiate"
)

// Record is the persisted image of one intake session.
type Record struct {
	SessionID string             `json:"session_id"`
	State     string             `json:"state"`
	Depth     int                `json:"depth"`
	MaxDepth  int                `json:"max_depth"`
	Model     string             `json:"model"`
	Snapshot  negotiate.Snapshot `json:"snapshot"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func normalizeRecord(r Record) Record {
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.State == "" {
		r.State = string(negotiate.StateIdle)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	return r
}
