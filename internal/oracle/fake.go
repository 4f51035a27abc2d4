package oracle

import (
	"context"
	"sync"
)

// FakeClient replays scripted responses in order, for offline mode and
// tests. After the script runs out the last entry repeats.
type FakeClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	Requests  []GenerateRequest
}

func NewFakeClient(responses ...string) *FakeClient {
	if len(responses) == 0 {
		responses = []string{"No analysis available."}
	}
	return &FakeClient{responses: responses}
}

// FailWith makes call number n (0-based) return err instead of a response.
func (f *FakeClient) FailWith(n int, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.errs) <= n {
		f.errs = append(f.errs, nil)
	}
	f.errs[n] = err
	return f
}

func (f *FakeClient) Name() string { return "FakeOracle" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeClient) Generate(_ context.Context, req GenerateRequest) (*Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls
	f.calls++
	f.Requests = append(f.Requests, req)
	if n < len(f.errs) && f.errs[n] != nil {
		return nil, f.errs[n]
	}
	i := n
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return &Generation{
		Text:  f.responses[i],
		Model: req.Model,
		Usage: Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}
