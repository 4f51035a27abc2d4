package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, capture *map[string]any, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capture != nil {
			*capture = body
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": body["model"],
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
			"usage": map[string]any{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		})
	}))
}

func TestOpenAIRequestShapeDefaultModel(t *testing.T) {
	var got map[string]any
	srv := chatServer(t, &got, "hello")
	defer srv.Close()

	cli := NewOpenAIClient(srv.URL+"/v1", "test-key", "gpt-3.5-turbo")
	gen, err := cli.Generate(context.Background(), GenerateRequest{
		System:          "sys",
		User:            "usr",
		MaxOutputTokens: 256,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Text != "hello" || gen.Usage.TotalTokens != 12 {
		t.Fatalf("generation = %+v", gen)
	}
	if got["temperature"] == nil {
		t.Fatal("temperature missing for a model that supports it")
	}
	if got["max_tokens"] == nil || got["max_completion_tokens"] != nil {
		t.Fatalf("token fields wrong: %v", got)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestOpenAIRequestShapeReasoningModel(t *testing.T) {
	var got map[string]any
	srv := chatServer(t, &got, "ok")
	defer srv.Close()

	cli := NewOpenAIClient(srv.URL+"/v1", "test-key", "o1-preview")
	if _, err := cli.Generate(context.Background(), GenerateRequest{System: "s", User: "u", MaxOutputTokens: 100}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got["temperature"] != nil {
		t.Fatal("temperature must be omitted for o1 models")
	}
	if got["max_completion_tokens"] == nil || got["max_tokens"] != nil {
		t.Fatalf("token fields wrong: %v", got)
	}
}

func TestOpenAIRequestShapeGPT4o(t *testing.T) {
	var got map[string]any
	srv := chatServer(t, &got, "ok")
	defer srv.Close()

	cli := NewOpenAIClient(srv.URL+"/v1", "test-key", "gpt-4o-mini")
	if _, err := cli.Generate(context.Background(), GenerateRequest{System: "s", User: "u", MaxOutputTokens: 100}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// gpt-4o keeps temperature but uses the renamed token field.
	if got["temperature"] == nil {
		t.Fatal("temperature missing for gpt-4o")
	}
	if got["max_completion_tokens"] == nil || got["max_tokens"] != nil {
		t.Fatalf("token fields wrong: %v", got)
	}
}

func TestOpenAIRejectionPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	cli := NewOpenAIClient(srv.URL+"/v1", "bad-key", "gpt-4o-mini")
	_, err := cli.Generate(context.Background(), GenerateRequest{System: "s", User: "u"})
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", rej.Status)
	}
	if rej.Message != "Incorrect API key provided" {
		t.Fatalf("message = %q", rej.Message)
	}
	if IsTransport(err) {
		t.Fatal("rejection misclassified as transport failure")
	}
}

func TestOpenAITransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	cli := NewOpenAIClient(srv.URL+"/v1", "k", "gpt-4o-mini")
	_, err := cli.Generate(context.Background(), GenerateRequest{System: "s", User: "u"})
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if IsRejection(err) {
		t.Fatal("transport failure misclassified as rejection")
	}
}

func TestOpenAIValidateCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	base := NewOpenAIClient(srv.URL+"/v1", "good-key", "gpt-4o-mini")
	if err := base.ValidateCredential(context.Background()); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}

	bad := base.WithCredential("wrong")
	err := bad.ValidateCredential(context.Background())
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 rejection, got %v", err)
	}
	// The original client keeps its own key.
	if err := base.ValidateCredential(context.Background()); err != nil {
		t.Fatalf("base client mutated by WithCredential: %v", err)
	}
}
