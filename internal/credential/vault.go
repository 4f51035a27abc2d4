// Package credential holds user-supplied oracle credentials for the
// lifetime of a session. Values are reversibly obfuscated at rest; this is
// presentation-layer obfuscation, NOT cryptographic protection, and must
// never be relied on for confidentiality.
package credential

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

// Validator checks a credential against the oracle's models listing.
type Validator interface {
	ValidateCredential(ctx context.Context) error
}

// Vault is the per-session, non-durable credential store.
type Vault struct {
	mu        sync.RWMutex
	bySession map[string]string
	pad       []byte
}

func NewVault() *Vault {
	return &Vault{
		bySession: make(map[string]string),
		pad:       []byte("docintake-session-pad"),
	}
}

func (v *Vault) Put(sessionID, secret string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("credential: session id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("credential: secret is required")
	}
	v.mu.Lock()
	v.bySession[sessionID] = v.obfuscate(secret)
	v.mu.Unlock()
	return nil
}

func (v *Vault) Get(sessionID string) (string, bool) {
	v.mu.RLock()
	stored, ok := v.bySession[strings.TrimSpace(sessionID)]
	v.mu.RUnlock()
	if !ok {
		return "", false
	}
	secret, err := v.deobfuscate(stored)
	if err != nil {
		return "", false
	}
	return secret, true
}

func (v *Vault) Delete(sessionID string) {
	v.mu.Lock()
	delete(v.bySession, strings.TrimSpace(sessionID))
	v.mu.Unlock()
}

// Reset drops every stored credential.
func (v *Vault) Reset() {
	v.mu.Lock()
	v.bySession = make(map[string]string)
	v.mu.Unlock()
}

func (v *Vault) obfuscate(secret string) string {
	b := []byte(secret)
	for i := range b {
		b[i] ^= v.pad[i%len(v.pad)]
	}
	return base64.StdEncoding.EncodeToString(b)
}

func (v *Vault) deobfuscate(stored string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	for i := range b {
		b[i] ^= v.pad[i%len(v.pad)]
	}
	return string(b), nil
}
