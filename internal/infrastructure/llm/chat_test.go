package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AEOAuditor/internal/config"
)

func TestRewriteReturnsFirstChoice(t *testing.T) {
	t.Parallel()

	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  AEO is a practice.  "}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(config.LLMConfig{Endpoint: srv.URL, Model: "mistral-large-latest", APIKey: "secret", Timeout: time.Second})
	out, err := client.Rewrite(context.Background(), "rewrite this")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if out != "AEO is a practice." {
		t.Fatalf("unexpected output %q", out)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.Model != "mistral-large-latest" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != defaultSystemPrompt {
		t.Fatalf("unexpected system message %+v", got.Messages[0])
	}
	if got.Messages[1].Content != "rewrite this" {
		t.Fatalf("unexpected user message %+v", got.Messages[1])
	}
}

func TestRewriteErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/empty") {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limited := NewChatClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	if _, err := limited.Rewrite(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected upstream error body in message, got %v", err)
	}

	empty := NewChatClient(config.LLMConfig{Endpoint: srv.URL + "/empty", Model: "m", APIKey: "k"})
	if _, err := empty.Rewrite(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty choices")
	}

	unconfigured := NewChatClient(config.LLMConfig{Endpoint: srv.URL})
	if unconfigured.Configured() {
		t.Fatalf("client without key must not be configured")
	}
	if _, err := unconfigured.Rewrite(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
