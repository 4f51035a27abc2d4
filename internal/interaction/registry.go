// Package interaction fans negotiation events out to display subscribers
// and tracks the question set currently awaiting answers per session.
package interaction

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"docintake/internal/negotiate"
)

type EventKind string

const (
	EventQuestions EventKind = "questions"
	EventFinalized EventKind = "finalized"
	EventError     EventKind = "error"
)

// Event is one negotiation transition pushed to subscribers.
type Event struct {
	Kind      EventKind                    `json:"kind"`
	SessionID string                       `json:"session_id"`
	Depth     int                          `json:"depth"`
	Summary   string                       `json:"summary,omitempty"`
	Questions []negotiate.QuestionCategory `json:"questions,omitempty"`
	Result    *negotiate.FinalResult       `json:"result,omitempty"`
	Message   string                       `json:"message,omitempty"`
}

// PendingView is the currently displayed question set for a session.
type PendingView struct {
	InteractionID string
	SessionID     string
	Summary       string
	Questions     []negotiate.QuestionCategory
}

type pendingSet struct {
	view PendingView
}

type Registry struct {
	mu      sync.RWMutex
	pending map[string]*pendingSet
	subs    map[string]map[int]chan Event
	nextSub int
}

func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*pendingSet),
		subs:    make(map[string]map[int]chan Event),
	}
}

// SetPending replaces the session's pending question set wholesale; the
// previous round's set never survives the round that produced it.
func (r *Registry) SetPending(sessionID, summaryText string, questions []negotiate.QuestionCategory) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("interaction: session id is required")
	}
	interactionID := fmt.Sprintf("input-%d", time.Now().UnixNano())
	r.mu.Lock()
	r.pending[sessionID] = &pendingSet{view: PendingView{
		InteractionID: interactionID,
		SessionID:     sessionID,
		Summary:       summaryText,
		Questions:     questions,
	}}
	r.mu.Unlock()
	return interactionID, nil
}

func (r *Registry) ClearPending(sessionID string) {
	r.mu.Lock()
	delete(r.pending, strings.TrimSpace(sessionID))
	r.mu.Unlock()
}

func (r *Registry) Pending(sessionID string) (PendingView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[strings.TrimSpace(sessionID)]
	if !ok || p == nil {
		return PendingView{}, false
	}
	return p.view, true
}

// Subscribe registers a watcher for one session. The returned cancel func
// must be called; events are dropped rather than blocking a slow watcher.
func (r *Registry) Subscribe(sessionID string) (<-chan Event, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, fmt.Errorf("interaction: session id is required")
	}
	ch := make(chan Event, 32)
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	if r.subs[sessionID] == nil {
		r.subs[sessionID] = make(map[int]chan Event)
	}
	r.subs[sessionID][id] = ch
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if m := r.subs[sessionID]; m != nil {
			if _, ok := m[id]; ok {
				delete(m, id)
				close(ch)
			}
			if len(m) == 0 {
				delete(r.subs, sessionID)
			}
		}
		r.mu.Unlock()
	}
	return ch, cancel, nil
}

// Publish delivers an event to every subscriber of its session.
func (r *Registry) Publish(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			// slow subscriber; drop
		}
	}
}
