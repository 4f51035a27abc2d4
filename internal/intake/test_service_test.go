package intake

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docintake/internal/credential"
	"docintake/internal/interaction"
	"docintake/internal/negotiate"
	"docintake/internal/oracle"
	"docintake/internal/session"
	"docintake/internal/summary"
	"docintake/internal/upload"
)

const questionsResponse = `Looks like a product catalog.

Follow-up questions:

A) CORE USE CASE
1. Who queries this data?

NEED_MORE_INFO: YES`

const finalResponse = `Final analysis of the catalog.

| Field | Type | Description | Why |
| --- | --- | --- | --- |
| sku | string | product id | lookups |

Recommended model: text-embedding-3-small
Chunking strategy: one row per chunk`

func newTestService(t *testing.T, cli oracle.Client) (*Service, *session.Store, *upload.MemoryStore, *interaction.Registry) {
	t.Helper()
	sessions := session.New(filepath.Join(t.TempDir(), "sessions.json"))
	uploads := upload.NewMemoryStore()
	registry := interaction.NewRegistry()
	svc := New(cli, nil, uploads, sessions, registry, credential.NewVault(), Options{
		Model:           "gpt-4o-mini",
		MaxDepth:        1,
		MaxOutputTokens: 512,
	})
	return svc, sessions, uploads, registry
}

func beginRequest() BeginRequest {
	return BeginRequest{
		Files: []FileUpload{
			{Name: "catalog.csv", Content: []byte("sku,name\nA1,Widget")},
			{Name: "schema.json", Summary: &summary.FileSummary{
				Kind: summary.KindJSON,
				JSON: &summary.JSONSummary{Keys: []string{"sku"}, Depth: 1},
			}},
		},
	}
}

func TestBeginSubmitLifecycle(t *testing.T) {
	fake := oracle.NewFakeClient(questionsResponse, finalResponse)
	svc, sessions, uploads, registry := newTestService(t, fake)
	ctx := context.Background()

	res, err := svc.Begin(ctx, beginRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if res.Outcome.State != negotiate.StateQuestionsPending {
		t.Fatalf("outcome = %+v", res.Outcome)
	}
	// The raw upload was archived and the external summary was accepted as-is.
	names, err := uploads.List(ctx, res.SessionID)
	if err != nil || len(names) != 1 || names[0] != "catalog.csv" {
		t.Fatalf("archived names = %v, err = %v", names, err)
	}
	if !strings.Contains(fake.Requests[0].User, "schema.json (json)") {
		t.Fatalf("provided summary not in prompt:\n%s", fake.Requests[0].User)
	}

	pv, ok := registry.Pending(res.SessionID)
	if !ok || len(pv.Questions) != 1 {
		t.Fatalf("pending = %+v, ok = %v", pv, ok)
	}
	rec, ok := sessions.Get(res.SessionID)
	if !ok || rec.State != string(negotiate.StateQuestionsPending) {
		t.Fatalf("record = %+v, ok = %v", rec, ok)
	}

	out, err := svc.Submit(ctx, res.SessionID, []negotiate.Answer{{Category: "CORE USE CASE", Text: "analysts"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.State != negotiate.StateFinalized || out.Result == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if _, ok := registry.Pending(res.SessionID); ok {
		t.Fatal("pending survived finalization")
	}
	rec, _ = sessions.Get(res.SessionID)
	if rec.State != string(negotiate.StateFinalized) || rec.Snapshot.Result == nil {
		t.Fatalf("record = %+v", rec)
	}
}

func TestBeginPublishesQuestionEvent(t *testing.T) {
	fake := oracle.NewFakeClient(questionsResponse)
	svc, _, _, registry := newTestService(t, fake)

	// Session ids are minted inside Begin, so watch before knowing the id is
	// impossible; subscribe for the id right after and drive a second round.
	res, err := svc.Begin(context.Background(), beginRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	ch, cancel, err := registry.Subscribe(res.SessionID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	registry.Publish(interaction.Event{Kind: interaction.EventQuestions, SessionID: res.SessionID})
	select {
	case ev := <-ch:
		if ev.Kind != interaction.EventQuestions {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubmitAfterRestartRestoresSnapshot(t *testing.T) {
	sessions := session.New(filepath.Join(t.TempDir(), "sessions.json"))
	uploads := upload.NewMemoryStore()
	opts := Options{Model: "gpt-4o-mini", MaxDepth: 1, MaxOutputTokens: 512}

	first := New(oracle.NewFakeClient(questionsResponse), nil, uploads, sessions,
		interaction.NewRegistry(), credential.NewVault(), opts)
	res, err := first.Begin(context.Background(), beginRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// A fresh service sharing the same session store stands in for a restart.
	second := New(oracle.NewFakeClient(finalResponse), nil, uploads, sessions,
		interaction.NewRegistry(), credential.NewVault(), opts)
	out, err := second.Submit(context.Background(), res.SessionID, []negotiate.Answer{{Text: "ops"}})
	if err != nil {
		t.Fatalf("Submit after restart: %v", err)
	}
	if out.State != negotiate.StateFinalized {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc, _, _, _ := newTestService(t, oracle.NewFakeClient(questionsResponse))
	if _, err := svc.Submit(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestBeginFailurePublishesNothingDurable(t *testing.T) {
	fake := oracle.NewFakeClient(questionsResponse)
	fake.FailWith(0, errors.New("boom"))
	svc, sessions, _, _ := newTestService(t, fake)

	if _, err := svc.Begin(context.Background(), beginRequest()); err == nil {
		t.Fatal("expected oracle failure")
	}
	if got := len(sessions.List()); got != 0 {
		t.Fatalf("failed Begin persisted %d records", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	fake := oracle.NewFakeClient(questionsResponse, questionsResponse)
	svc, sessions, _, registry := newTestService(t, fake)

	res, err := svc.Begin(context.Background(), beginRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	svc.Reset(res.SessionID)

	if _, ok := sessions.Get(res.SessionID); ok {
		t.Fatal("record survived reset")
	}
	if _, ok := registry.Pending(res.SessionID); ok {
		t.Fatal("pending survived reset")
	}
	if _, err := svc.Submit(context.Background(), res.SessionID, nil); err == nil {
		t.Fatal("session usable after reset")
	}
}

func TestBeginRequiresFiles(t *testing.T) {
	svc, _, _, _ := newTestService(t, oracle.NewFakeClient("x"))
	if _, err := svc.Begin(context.Background(), BeginRequest{}); err == nil {
		t.Fatal("expected error for empty file set")
	}
}
