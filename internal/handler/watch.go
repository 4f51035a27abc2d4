package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"docintake/internal/intake"
	"docintake/internal/interaction"
	"docintake/internal/negotiate"

	"github.com/gorilla/websocket"
)

// WatchHandler streams negotiation transitions to display collaborators
// over a websocket, one connection per session.
type WatchHandler struct {
	svc      *intake.Service
	registry *interaction.Registry
}

func NewWatchHandler(svc *intake.Service, registry *interaction.Registry) *WatchHandler {
	return &WatchHandler{svc: svc, registry: registry}
}

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchWSInbound struct {
	Type string `json:"type"`
}

type watchWSOutbound struct {
	Type          string                       `json:"type"`
	SessionID     string                       `json:"sessionId,omitempty"`
	InteractionID string                       `json:"interactionId,omitempty"`
	Depth         int                          `json:"depth,omitempty"`
	Summary       string                       `json:"summary,omitempty"`
	Questions     []negotiate.QuestionCategory `json:"questions,omitempty"`
	Result        *negotiate.FinalResult       `json:"result,omitempty"`
	Code          string                       `json:"code,omitempty"`
	Message       string                       `json:"message,omitempty"`
}

// HandleWatch upgrades GET /v1/intakes/watch?session_id=... and forwards
// questions, finalized and error events until the client disconnects.
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	writeCh := make(chan watchWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events, unsubscribe, subErr := h.registry.Subscribe(sessionID)
	if subErr != nil {
		pushWatchWS(writeCh, watchWSOutbound{
			Type:    "error",
			Code:    "invalid_argument",
			Message: subErr.Error(),
		})
		cancel()
		<-writerDone
		return
	}
	defer unsubscribe()

	pushWatchWS(writeCh, watchWSOutbound{
		Type:      "subscribed",
		SessionID: sessionID,
	})

	// Replay the currently pending question set so late subscribers see it.
	if pv, ok := h.svc.Pending(sessionID); ok {
		pushWatchWS(writeCh, watchWSOutbound{
			Type:          "questions",
			SessionID:     sessionID,
			InteractionID: pv.InteractionID,
			Summary:       pv.Summary,
			Questions:     pv.Questions,
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				out := watchWSOutbound{
					Type:      string(ev.Kind),
					SessionID: ev.SessionID,
					Depth:     ev.Depth,
				}
				switch ev.Kind {
				case interaction.EventQuestions:
					out.Summary = ev.Summary
					out.Questions = ev.Questions
					if pv, ok := h.svc.Pending(ev.SessionID); ok {
						out.InteractionID = pv.InteractionID
					}
				case interaction.EventFinalized:
					out.Result = ev.Result
				case interaction.EventError:
					out.Code = "oracle_failed"
					out.Message = ev.Message
				}
				pushWatchWS(writeCh, out)
			}
		}
	}()

	for {
		var in watchWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushWatchWS(writeCh, watchWSOutbound{Type: "pong"})
		case "":
			pushWatchWS(writeCh, watchWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "type is required",
			})
		default:
			pushWatchWS(writeCh, watchWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + in.Type,
			})
		}
	}
}

// pushWatchWS never blocks the event loop: when the buffer is full the
// oldest frame is dropped in favor of the new one.
func pushWatchWS(writeCh chan watchWSOutbound, out watchWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
