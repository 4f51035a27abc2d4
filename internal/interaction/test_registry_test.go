package interaction

import (
	"testing"
	"time"

	"docintake/internal/negotiate"
)

func TestPendingReplacedWholesale(t *testing.T) {
	r := NewRegistry()
	first, err := r.SetPending("s1", "summary one", []negotiate.QuestionCategory{{Category: "A", Questions: []string{"q1?"}}})
	if err != nil {
		t.Fatalf("SetPending: %v", err)
	}
	second, err := r.SetPending("s1", "summary two", []negotiate.QuestionCategory{{Category: "B", Questions: []string{"q2?"}}})
	if err != nil {
		t.Fatalf("SetPending: %v", err)
	}
	if first == second {
		t.Fatal("interaction ids must differ per round")
	}

	pv, ok := r.Pending("s1")
	if !ok {
		t.Fatal("no pending set")
	}
	if pv.InteractionID != second || pv.Summary != "summary two" {
		t.Fatalf("pending = %+v", pv)
	}
	if len(pv.Questions) != 1 || pv.Questions[0].Category != "B" {
		t.Fatalf("old round survived: %+v", pv.Questions)
	}

	r.ClearPending("s1")
	if _, ok := r.Pending("s1"); ok {
		t.Fatal("pending survived clear")
	}
}

func TestSetPendingRequiresSession(t *testing.T) {
	r := NewRegistry()
	if _, err := r.SetPending("  ", "s", nil); err == nil {
		t.Fatal("blank session id accepted")
	}
}

func TestSubscribePublish(t *testing.T) {
	r := NewRegistry()
	ch, cancel, err := r.Subscribe("s1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	otherCh, otherCancel, err := r.Subscribe("s2")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer otherCancel()

	r.Publish(Event{Kind: EventQuestions, SessionID: "s1", Depth: 1, Summary: "sum"})

	select {
	case ev := <-ch:
		if ev.Kind != EventQuestions || ev.Depth != 1 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case ev := <-otherCh:
		t.Fatalf("event leaked across sessions: %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	r := NewRegistry()
	ch, cancel, err := r.Subscribe("s1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	cancel() // second cancel is a no-op

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}
	// Publishing after cancel must not panic.
	r.Publish(Event{Kind: EventError, SessionID: "s1", Message: "x"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	r := NewRegistry()
	_, cancel, err := r.Subscribe("s1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			r.Publish(Event{Kind: EventQuestions, SessionID: "s1"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
