package llmjson

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trailing comma in object",
			in:   `{"a":1,}`,
			want: `{"a":1}`,
		},
		{
			name: "trailing comma in array",
			in:   `[1,2,]`,
			want: `[1,2]`,
		},
		{
			name: "code fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare keys",
			in:   `{documentSearch: true, reason: "ok"}`,
			want: `{"documentSearch": true, "reason": "ok"}`,
		},
		{
			name: "single quotes",
			in:   `{"a": 'hello'}`,
			want: `{"a": "hello"}`,
		},
		{
			name: "surrounding prose",
			in:   `Here is the JSON you asked for: {"a":1} Hope that helps!`,
			want: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Repair(tt.in)
			if got != tt.want {
				t.Errorf("Repair(%q) = %q, want %q", tt.in, got, tt.want)
			}
			var v any
			if err := json.Unmarshal([]byte(got), &v); err != nil {
				t.Errorf("repaired output does not parse: %v", err)
			}
		})
	}
}

// countingChat records calls and returns a fixed response.
type countingChat struct {
	calls    int
	response string
	err      error
}

func (c *countingChat) Chat(_ context.Context, _ []domain.ChatMessage, _ driven.ChatOptions) (string, error) {
	c.calls++
	return c.response, c.err
}

func (c *countingChat) ChatStream(_ context.Context, _ []domain.ChatMessage, _ driven.ChatOptions) (<-chan driven.StreamEvent, error) {
	return nil, errors.New("not implemented")
}

func (c *countingChat) ModelName() string            { return "test" }
func (c *countingChat) Ping(_ context.Context) error { return nil }
func (c *countingChat) Close() error                 { return nil }

func TestDecoder_Decode(t *testing.T) {
	type payload struct {
		A int `json:"a"`
	}

	t.Run("direct parse skips repair", func(t *testing.T) {
		chat := &countingChat{}
		d := NewDecoder(chat, nil)
		var v payload
		if !d.Decode(context.Background(), `{"a": 3}`, &v) {
			t.Fatal("expected decode to succeed")
		}
		if v.A != 3 {
			t.Errorf("expected a=3, got %d", v.A)
		}
		if chat.calls != 0 {
			t.Errorf("provider should not be called, got %d calls", chat.calls)
		}
	})

	t.Run("heuristic handles trailing comma without provider call", func(t *testing.T) {
		chat := &countingChat{}
		d := NewDecoder(chat, nil)
		var v payload
		if !d.Decode(context.Background(), `{"a":1,}`, &v) {
			t.Fatal("expected decode to succeed")
		}
		if v.A != 1 {
			t.Errorf("expected a=1, got %d", v.A)
		}
		if chat.calls != 0 {
			t.Errorf("heuristic step should not invoke the provider, got %d calls", chat.calls)
		}
	})

	t.Run("model repair as last resort", func(t *testing.T) {
		chat := &countingChat{response: `{"a": 7}`}
		d := NewDecoder(chat, nil)
		var v payload
		if !d.Decode(context.Background(), `totally not json`, &v) {
			t.Fatal("expected decode to succeed via model repair")
		}
		if v.A != 7 {
			t.Errorf("expected a=7, got %d", v.A)
		}
		if chat.calls != 1 {
			t.Errorf("expected 1 provider call, got %d", chat.calls)
		}
	})

	t.Run("gives up without error", func(t *testing.T) {
		chat := &countingChat{response: "still not json"}
		d := NewDecoder(chat, nil)
		var v payload
		if d.Decode(context.Background(), `nope`, &v) {
			t.Fatal("expected decode to fail")
		}
		if v.A != 0 {
			t.Errorf("target should keep zero value, got %d", v.A)
		}
	})

	t.Run("no provider stops after heuristic", func(t *testing.T) {
		d := NewDecoder(nil, nil)
		var v payload
		if d.Decode(context.Background(), `nope`, &v) {
			t.Fatal("expected decode to fail without provider")
		}
	})
}
