// Package upload archives raw uploaded file bytes, keyed by session.
package upload

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("upload: object not found")

// Store is the archive for raw uploads. The negotiation core never reads
// these back; they exist for audit and re-extraction.
type Store interface {
	Put(ctx context.Context, sessionID, name string, content []byte) error
	Get(ctx context.Context, sessionID, name string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}
