package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Record
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.SessionID)
			if id == "" {
				continue
			}
			s.byID[id] = normalizeRecord(row)
		}
	})
}

func (s *Store) saveFile() {
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		rows = append(rows, rec)
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, s.path)
}

func (s *Store) getFile(sessionID string) (Record, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Record{}, false
	}
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	return rec, ok
}

func (s *Store) putFile(rec Record) {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.byID[rec.SessionID] = rec
	s.mu.Unlock()
	s.saveFile()
}

func (s *Store) deleteFile(sessionID string) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return
	}
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
	s.saveFile()
}

func (s *Store) listFile() []Record {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	return out
}
