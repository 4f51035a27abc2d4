package session

import (
	"encoding/json"
	"strings"

	"docintake/internal/negotiate"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS intake_sessions (
  session_id TEXT PRIMARY KEY,
  state TEXT NOT NULL DEFAULT 'idle',
  depth INTEGER NOT NULL DEFAULT 0,
  max_depth INTEGER NOT NULL DEFAULT 0,
  model TEXT NOT NULL DEFAULT '',
  snapshot JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_intake_sessions_state ON intake_sessions (state);
`)
	})
	return s.schemaErr
}

func (s *Store) getDB(sessionID string) (Record, bool) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Record{}, false
	}
	row := s.db.QueryRow(`SELECT session_id, state, depth, max_depth, model, snapshot, created_at, updated_at
FROM intake_sessions WHERE session_id = $1`, id)

	var rec Record
	var snap []byte
	if err := row.Scan(&rec.SessionID, &rec.State, &rec.Depth, &rec.MaxDepth, &rec.Model,
		&snap, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, false
	}
	if err := json.Unmarshal(snap, &rec.Snapshot); err != nil {
		rec.Snapshot = negotiate.Snapshot{}
	}
	return normalizeRecord(rec), true
}

func (s *Store) putDB(rec Record) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(`
INSERT INTO intake_sessions (session_id, state, depth, max_depth, model, snapshot, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (session_id)
DO UPDATE SET state=EXCLUDED.state,
  depth=EXCLUDED.depth,
  max_depth=EXCLUDED.max_depth,
  model=EXCLUDED.model,
  snapshot=EXCLUDED.snapshot,
  updated_at=EXCLUDED.updated_at`,
		rec.SessionID, rec.State, rec.Depth, rec.MaxDepth, rec.Model, snap, rec.CreatedAt, rec.UpdatedAt)
}

func (s *Store) deleteDB(sessionID string) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	_, _ = s.db.Exec(`DELETE FROM intake_sessions WHERE session_id = $1`, strings.TrimSpace(sessionID))
}

func (s *Store) listDB() []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT session_id, state, depth, max_depth, model, snapshot, created_at, updated_at
FROM intake_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]Record, 0, 32)
	for rows.Next() {
		var rec Record
		var snap []byte
		if err := rows.Scan(&rec.SessionID, &rec.State, &rec.Depth, &rec.MaxDepth, &rec.Model,
			&snap, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			continue
		}
		if err := json.Unmarshal(snap, &rec.Snapshot); err != nil {
			rec.Snapshot = negotiate.Snapshot{}
		}
		out = append(out, normalizeRecord(rec))
	}
	return out
}
