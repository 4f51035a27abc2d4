package oracle

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageLedger appends per-day, per-model request/token counts to a JSON
// file. Writes go through tmp+rename.
type UsageLedger struct {
	mu   sync.Mutex
	path string
}

type usageLedgerFile struct {
	UpdatedAt string              `json:"updated_at"`
	Days      map[string]usageDay `json:"days"`
}

type usageDay struct {
	Requests int64                `json:"requests"`
	Tokens   int64                `json:"tokens"`
	Errors   int64                `json:"errors"`
	Models   map[string]usageStat `json:"models"`
}

type usageStat struct {
	Requests int64 `json:"requests"`
	Tokens   int64 `json:"tokens"`
	Errors   int64 `json:"errors"`
}

func NewUsageLedger(path string) *UsageLedger {
	return &UsageLedger{path: path}
}

// WithUsageLedger records every Generate call's service-reported usage.
func WithUsageLedger(path string) Middleware {
	ledger := NewUsageLedger(path)
	return func(next Client) Client {
		return &usageClient{next: next, ledger: ledger}
	}
}

type usageClient struct {
	next   Client
	ledger *UsageLedger
}

func (u *usageClient) Name() string { return u.next.Name() }
func (u *usageClient) Close() error { return u.next.Close() }

func (u *usageClient) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	gen, err := u.next.Generate(ctx, req)
	model := req.Model
	if model == "" {
		model = u.next.Name()
	}
	var tokens int64
	if gen != nil {
		tokens = int64(gen.Usage.TotalTokens)
	}
	u.ledger.record(model, tokens, err != nil)
	return gen, err
}

func (l *UsageLedger) record(model string, tokens int64, hasErr bool) {
	if l == nil || l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	dayKey := time.Now().UTC().Format("2006-01-02")
	f := usageLedgerFile{Days: map[string]usageDay{}}
	if b, err := os.ReadFile(l.path); err == nil {
		_ = json.Unmarshal(b, &f)
		if f.Days == nil {
			f.Days = map[string]usageDay{}
		}
	}

	d := f.Days[dayKey]
	if d.Models == nil {
		d.Models = map[string]usageStat{}
	}
	d.Requests++
	d.Tokens += tokens
	if hasErr {
		d.Errors++
	}
	m := d.Models[model]
	m.Requests++
	m.Tokens += tokens
	if hasErr {
		m.Errors++
	}
	d.Models[model] = m
	f.Days[dayKey] = d
	f.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	tmp := l.path + ".tmp"
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, l.path)
}
