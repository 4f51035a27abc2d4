// Package intake owns the lifecycle of intake sessions: file archiving and
// summarization at upload time, then one negotiation controller per session.
package intake

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"docintake/internal/credential"
	"docintake/internal/interaction"
	"docintake/internal/negotiate"
	"docintake/internal/oracle"
	"docintake/internal/session"
	"docintake/internal/summary"
	"docintake/internal/upload"
)

// ClientFactory builds an oracle client bound to a user-supplied credential.
// nil means every session shares the service default client.
type ClientFactory func(apiKey string) oracle.Client

type Options struct {
	Model           string
	MaxDepth        int
	MaxOutputTokens int
}

type Service struct {
	opts      Options
	oracle    oracle.Client
	forKey    ClientFactory
	extractor *summary.Extractor
	uploads   upload.Store
	sessions  *session.Store
	registry  *interaction.Registry
	vault     *credential.Vault

	mu   sync.Mutex
	live map[string]*entry
}

// entry serializes rounds for one session: no two oracle calls for the same
// negotiation may overlap.
type entry struct {
	mu   sync.Mutex
	ctrl *negotiate.Controller
}

func New(cli oracle.Client, forKey ClientFactory, uploads upload.Store, sessions *session.Store,
	registry *interaction.Registry, vault *credential.Vault, opts Options) *Service {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return &Service{
		opts:      opts,
		oracle:    cli,
		forKey:    forKey,
		extractor: summary.NewExtractor(4),
		uploads:   uploads,
		sessions:  sessions,
		registry:  registry,
		vault:     vault,
		live:      make(map[string]*entry),
	}
}

// FileUpload is one incoming file: raw bytes to summarize, or a ready-made
// summary from an external extractor, or both.
type FileUpload struct {
	Name    string
	Content []byte
	Summary *summary.FileSummary
}

type BeginRequest struct {
	Model      string
	MaxDepth   *int
	Credential string
	Files      []FileUpload
}

type BeginResult struct {
	SessionID string
	Outcome   *negotiate.Outcome
}

// Begin archives and summarizes the uploads, creates the session's
// controller and runs the first negotiation round.
func (s *Service) Begin(ctx context.Context, req BeginRequest) (*BeginResult, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("intake: at least one file is required")
	}
	sessionID := fmt.Sprintf("intake-%d", time.Now().UnixNano())

	if req.Credential != "" {
		if err := s.vault.Put(sessionID, req.Credential); err != nil {
			return nil, err
		}
	}

	summaries, err := s.prepareFiles(ctx, sessionID, req.Files)
	if err != nil {
		return nil, err
	}

	maxDepth := s.opts.MaxDepth
	if req.MaxDepth != nil && *req.MaxDepth >= 0 {
		maxDepth = *req.MaxDepth
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.opts.Model
	}

	ctrl := negotiate.New(s.clientFor(sessionID), negotiate.Options{
		Model:           model,
		MaxDepth:        maxDepth,
		MaxOutputTokens: s.opts.MaxOutputTokens,
	})
	e := &entry{ctrl: ctrl}
	s.mu.Lock()
	s.live[sessionID] = e
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	outcome, err := ctrl.Start(ctx, summaries)
	if err != nil {
		s.publishError(sessionID, err)
		return nil, err
	}
	s.afterRound(sessionID, ctrl, outcome)
	return &BeginResult{SessionID: sessionID, Outcome: outcome}, nil
}

// Submit forwards the user's answers to the session's controller.
func (s *Service) Submit(ctx context.Context, sessionID string, answers []negotiate.Answer) (*negotiate.Outcome, error) {
	e, err := s.entryFor(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	outcome, err := e.ctrl.Submit(ctx, answers)
	if err != nil {
		s.publishError(sessionID, err)
		return nil, err
	}
	s.afterRound(sessionID, e.ctrl, outcome)
	return outcome, nil
}

// Get returns the persisted record for a session.
func (s *Service) Get(sessionID string) (session.Record, bool) {
	return s.sessions.Get(strings.TrimSpace(sessionID))
}

// Pending returns the question set currently awaiting answers.
func (s *Service) Pending(sessionID string) (interaction.PendingView, bool) {
	return s.registry.Pending(sessionID)
}

// Reset clears a session completely: controller, pending questions,
// credential and the persisted record.
func (s *Service) Reset(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	s.mu.Lock()
	e := s.live[sessionID]
	delete(s.live, sessionID)
	s.mu.Unlock()
	if e != nil {
		e.mu.Lock()
		e.ctrl.Reset()
		e.mu.Unlock()
	}
	s.registry.ClearPending(sessionID)
	s.vault.Delete(sessionID)
	s.sessions.Delete(sessionID)
}

// SetCredential stores a credential for an existing session.
func (s *Service) SetCredential(sessionID, secret string) error {
	return s.vault.Put(sessionID, secret)
}

// ValidateCredential checks a raw credential against the oracle's models
// listing without storing it.
func (s *Service) ValidateCredential(ctx context.Context, secret string) error {
	cli := s.clientForKey(secret)
	v, ok := cli.(credential.Validator)
	if !ok {
		return fmt.Errorf("intake: oracle provider does not support credential validation")
	}
	return v.ValidateCredential(ctx)
}

func (s *Service) entryFor(sessionID string) (*entry, error) {
	sessionID = strings.TrimSpace(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live[sessionID]; ok {
		return e, nil
	}
	// Service restarted; rebuild the controller from the persisted snapshot.
	rec, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("intake: unknown session %s", sessionID)
	}
	ctrl := negotiate.Restore(s.clientFor(sessionID), rec.Snapshot, s.opts.MaxOutputTokens)
	e := &entry{ctrl: ctrl}
	s.live[sessionID] = e
	return e, nil
}

func (s *Service) clientFor(sessionID string) oracle.Client {
	if secret, ok := s.vault.Get(sessionID); ok {
		return s.clientForKey(secret)
	}
	return s.oracle
}

func (s *Service) clientForKey(secret string) oracle.Client {
	if s.forKey != nil && strings.TrimSpace(secret) != "" {
		return s.forKey(secret)
	}
	return s.oracle
}

func (s *Service) prepareFiles(ctx context.Context, sessionID string, files []FileUpload) ([]summary.FileSummary, error) {
	out := make([]summary.FileSummary, 0, len(files))
	var toExtract []summary.Input
	var extractIdx []int
	for i, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			name = fmt.Sprintf("file-%d", i+1)
		}
		if len(f.Content) > 0 && s.uploads != nil {
			if err := s.uploads.Put(ctx, sessionID, name, f.Content); err != nil {
				log.Printf("intake: archive %s/%s failed: %v", sessionID, name, err)
			}
		}
		if f.Summary != nil {
			fs := f.Summary.Normalize()
			fs.Name = name
			out = append(out, fs)
			continue
		}
		out = append(out, summary.FileSummary{}) // placeholder
		toExtract = append(toExtract, summary.Input{Name: name, Data: f.Content})
		extractIdx = append(extractIdx, len(out)-1)
	}
	if len(toExtract) > 0 {
		extracted, err := s.extractor.SummarizeAll(ctx, toExtract)
		if err != nil {
			return nil, err
		}
		for i, fs := range extracted {
			out[extractIdx[i]] = fs
		}
	}
	return out, nil
}

// afterRound persists the snapshot, refreshes the pending registry and
// pushes the transition to watchers. Called with the session entry locked.
func (s *Service) afterRound(sessionID string, ctrl *negotiate.Controller, outcome *negotiate.Outcome) {
	snap := ctrl.Snapshot()
	now := time.Now().UTC()
	rec, ok := s.sessions.Get(sessionID)
	if !ok {
		rec = session.Record{SessionID: sessionID, CreatedAt: now}
	}
	rec.State = string(snap.State)
	rec.Depth = snap.Depth
	rec.MaxDepth = snap.MaxDepth
	rec.Model = snap.Model
	rec.Snapshot = snap
	rec.UpdatedAt = now
	s.sessions.Put(rec)

	switch outcome.State {
	case negotiate.StateQuestionsPending:
		if _, err := s.registry.SetPending(sessionID, outcome.Summary, outcome.Questions); err != nil {
			log.Printf("intake: register pending for %s failed: %v", sessionID, err)
		}
		s.registry.Publish(interaction.Event{
			Kind:      interaction.EventQuestions,
			SessionID: sessionID,
			Depth:     outcome.Depth,
			Summary:   outcome.Summary,
			Questions: outcome.Questions,
		})
	case negotiate.StateFinalized:
		s.registry.ClearPending(sessionID)
		s.registry.Publish(interaction.Event{
			Kind:      interaction.EventFinalized,
			SessionID: sessionID,
			Depth:     outcome.Depth,
			Result:    outcome.Result,
		})
	}
}

func (s *Service) publishError(sessionID string, err error) {
	s.registry.Publish(interaction.Event{
		Kind:      interaction.EventError,
		SessionID: sessionID,
		Message:   err.Error(),
	})
}
