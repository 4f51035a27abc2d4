// Package session persists negotiation snapshots across requests. The
// backend is a JSON file by default and Postgres when a DSN is configured,
// with an LRU read cache in front of the database.
package session

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Record]
}

func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Record](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv picks Postgres when INTAKE_STORE_PG_DSN is set and reachable,
// else the file backend at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("INTAKE_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s != nil && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) EnsureLoaded() {
	if s == nil {
		return
	}
	if s.db != nil {
		_ = s.ensureSchema()
		return
	}
	s.ensureLoadedFile()
}

func (s *Store) Get(sessionID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		if s.cache != nil {
			if rec, ok := s.cache.Get(sessionID); ok {
				return rec, true
			}
		}
		rec, ok := s.getDB(sessionID)
		if ok && s.cache != nil {
			s.cache.Add(sessionID, rec)
		}
		return rec, ok
	}
	return s.getFile(sessionID)
}

func (s *Store) Put(rec Record) {
	if s == nil {
		return
	}
	rec = normalizeRecord(rec)
	if rec.SessionID == "" {
		return
	}
	if s.db != nil {
		s.putDB(rec)
		if s.cache != nil {
			s.cache.Add(rec.SessionID, rec)
		}
		return
	}
	s.putFile(rec)
}

func (s *Store) Delete(sessionID string) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.deleteDB(sessionID)
		if s.cache != nil {
			s.cache.Remove(sessionID)
		}
		return
	}
	s.deleteFile(sessionID)
}

func (s *Store) List() []Record {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listDB()
	}
	return s.listFile()
}
