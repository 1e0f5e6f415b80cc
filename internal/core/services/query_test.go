package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driving"
)

func testSettings() domain.ChatSettings {
	return domain.ChatSettings{
		SystemMessage:      "Docs:\n" + domain.PlaceholderDocuments + "\nTopic: " + domain.PlaceholderTopic,
		MaxHistoryLength:   20,
		SearchResultsLimit: 5,
	}
}

func userTurn(question string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.RoleUser, Content: question}}
}

// stageResponder scripts the non-streaming stages by the prompt-name
// prefix stubPrompts renders.
func stageResponder(t *testing.T, responses map[string]string) func(prompt string) (string, error) {
	return func(prompt string) (string, error) {
		for stage, response := range responses {
			if strings.HasPrefix(prompt, stage+":") {
				return response, nil
			}
		}
		t.Errorf("unexpected stage prompt: %q", prompt)
		return "", errors.New("unexpected stage")
	}
}

func newTestPipeline(t *testing.T, store *memStore, chat *fakeChat) *Pipeline {
	t.Helper()
	return NewPipeline(NewCatalog(store), chat, &fakeEmbedder{}, stubPrompts{}, nil)
}

func TestAnswerSkipsSearchWhenHistorySuffices(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")

	chat := &fakeChat{
		respond: stageResponder(t, map[string]string{
			"analysis":    "the user said hello",
			"sufficiency": `{"documentSearch": false, "reason": "chat history suffices"}`,
		}),
		tokens: []string{"Hello", " there"},
	}
	pipeline := newTestPipeline(t, store, chat)

	result, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		Database: "notes",
		History:  userTurn("hi"),
		Settings: testSettings(),
	}, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Searched {
		t.Error("Searched = true, want false")
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want none", result.Sources)
	}
	if result.Reason != "chat history suffices" {
		t.Errorf("Reason = %q, want the classifier's reason", result.Reason)
	}
	if result.Answer != "Hello there" {
		t.Errorf("Answer = %q, want %q", result.Answer, "Hello there")
	}
	// Analysis and classification only: transformation and search never
	// ran.
	if chat.callCount() != 2 {
		t.Errorf("stage calls = %d (%v), want 2", chat.callCount(), chat.calls)
	}
}

func TestAnswerSearchesAndCites(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")

	chat := &fakeChat{
		respond: stageResponder(t, map[string]string{
			"analysis":    "the user asks about the indexed topic",
			"sufficiency": `{"documentSearch": true, "reason": "needs documents"}`,
			"transform":   `[{"perspective": "direct", "prompt": "the indexed topic"}]`,
		}),
		tokens: []string{"Based on", " the docs"},
	}
	pipeline := newTestPipeline(t, store, chat)

	var streamed strings.Builder
	result, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		Database: "notes",
		History:  userTurn("what does the document say?"),
		Settings: testSettings(),
	}, func(token string) { streamed.WriteString(token) })
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if !result.Searched {
		t.Error("Searched = false, want true")
	}
	if len(result.Sources) != 1 {
		t.Fatalf("Sources has %d entries, want 1", len(result.Sources))
	}
	if result.Sources[0].Content != "indexed content" {
		t.Errorf("source content = %q, want %q", result.Sources[0].Content, "indexed content")
	}
	if streamed.String() != result.Answer {
		t.Errorf("streamed %q but Answer = %q", streamed.String(), result.Answer)
	}
}

func TestAnswerWithoutDatabase(t *testing.T) {
	chat := &fakeChat{tokens: []string{"Just chat"}}
	pipeline := newTestPipeline(t, newMemStore(), chat)

	result, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		History:  userTurn("hello"),
		Settings: testSettings(),
	}, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	if result.Searched {
		t.Error("Searched = true without a database")
	}
	if chat.callCount() != 0 {
		t.Errorf("stage calls = %d, want 0 when retrieval is disabled", chat.callCount())
	}
	if result.Answer != "Just chat" {
		t.Errorf("Answer = %q, want %q", result.Answer, "Just chat")
	}
}

func TestAnswerNoUserMessage(t *testing.T) {
	pipeline := newTestPipeline(t, newMemStore(), &fakeChat{})

	_, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		History:  []domain.ChatMessage{{Role: domain.RoleAssistant, Content: "hi"}},
		Settings: testSettings(),
	}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Answer() error = %v, want ErrInvalidInput", err)
	}
}

func TestAnswerUnknownDatabase(t *testing.T) {
	pipeline := newTestPipeline(t, newMemStore(), &fakeChat{})

	_, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		Database: "absent",
		History:  userTurn("hi"),
		Settings: testSettings(),
	}, nil)
	if !errors.Is(err, domain.ErrStoreNotFound) {
		t.Errorf("Answer() error = %v, want ErrStoreNotFound", err)
	}
}

func TestAnswerTransformFallsBackToQuestion(t *testing.T) {
	store := newMemStore()
	seedDatabase(t, store, "notes")

	chat := &fakeChat{
		respond: stageResponder(t, map[string]string{
			"analysis":    "analysis text",
			"sufficiency": `{"documentSearch": true, "reason": "needs documents"}`,
			"transform":   "no structure here at all",
			"json_repair": "still no structure",
		}),
		tokens: []string{"answer"},
	}
	pipeline := newTestPipeline(t, store, chat)

	result, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		Database: "notes",
		History:  userTurn("what is in the database?"),
		Settings: testSettings(),
	}, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	// The unparseable transformation degrades to searching with the
	// original question rather than aborting the turn.
	if !result.Searched {
		t.Error("Searched = false, want true")
	}
	if len(result.Sources) == 0 {
		t.Error("Sources is empty, want the default-vector match")
	}
}

func TestAnswerStreamError(t *testing.T) {
	wantErr := errors.New("provider exploded")
	chat := &fakeChat{stream: wantErr}
	pipeline := newTestPipeline(t, newMemStore(), chat)

	_, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		History:  userTurn("hi"),
		Settings: testSettings(),
	}, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("Answer() error = %v, want %v", err, wantErr)
	}
}

func TestAnswerCancelled(t *testing.T) {
	chat := &fakeChat{tokens: []string{"never", "emitted"}}
	pipeline := newTestPipeline(t, newMemStore(), chat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var emitted int
	_, err := pipeline.Answer(ctx, driving.AnswerRequest{
		History:  userTurn("hi"),
		Settings: testSettings(),
	}, func(string) { emitted++ })
	if !errors.Is(err, domain.ErrCancelled) {
		t.Errorf("Answer() error = %v, want ErrCancelled", err)
	}
	if emitted != 0 {
		t.Errorf("onToken ran %d times after cancellation, want 0", emitted)
	}
}

func TestAnswerFiltersDocMessages(t *testing.T) {
	chat := &fakeChat{tokens: []string{"ok"}}
	pipeline := newTestPipeline(t, newMemStore(), chat)

	// A history whose only substantive turn is a doc citation followed
	// by the question must still find the question.
	result, err := pipeline.Answer(context.Background(), driving.AnswerRequest{
		History: []domain.ChatMessage{
			{Role: domain.RoleDoc, Content: "citation payload"},
			{Role: domain.RoleUser, Content: "hi"},
		},
		Settings: testSettings(),
	}, nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Answer != "ok" {
		t.Errorf("Answer = %q, want %q", result.Answer, "ok")
	}
}
