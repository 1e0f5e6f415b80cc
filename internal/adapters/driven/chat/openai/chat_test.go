package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestChat(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	})

	got, err := p.Chat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hello there" {
		t.Errorf("Chat = %q, want %q", got, "hello there")
	}
}

func TestChatAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := p.Chat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("Chat error = %v, want message containing %q", err, "bad key")
	}
}

func TestChatStream(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"foo\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\" bar\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	})

	events, err := p.ChatStream(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var text strings.Builder
	var last driven.StreamEvent
	for ev := range events {
		last = ev
		if ev.Kind == driven.StreamToken {
			text.WriteString(ev.Token)
		}
	}
	if last.Kind != driven.StreamDone {
		t.Errorf("terminal event = %+v, want StreamDone", last)
	}
	if text.String() != "foo bar" {
		t.Errorf("streamed text = %q, want %q", text.String(), "foo bar")
	}
}

func TestChatStreamFiltersDocMessages(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := readJSON(r, &body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		for _, m := range body.Messages {
			if m.Role == domain.RoleDoc {
				t.Error("doc-role message sent to provider")
			}
		}
		w.Write([]byte("data: [DONE]\n\n"))
	})

	events, err := p.ChatStream(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleDoc, Content: "citation"},
	}, driven.ChatOptions{})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	for range events {
	}
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
