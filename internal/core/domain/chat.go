package domain

// Chat message roles. RoleDoc marks citation messages inserted by the
// UI layer; they are never sent to a provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleDoc       = "doc"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// FilterForProvider removes messages that must not be sent to a chat
// provider (currently the "doc" citation role).
func FilterForProvider(history []ChatMessage) []ChatMessage {
	filtered := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == RoleDoc {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

// TruncateHistory keeps the most recent maxLen messages. The history is
// assumed oldest-first. maxLen <= 0 means no truncation.
func TruncateHistory(history []ChatMessage, maxLen int) []ChatMessage {
	if maxLen <= 0 || len(history) <= maxLen {
		return history
	}
	return history[len(history)-maxLen:]
}

// LastUserMessage returns the content of the most recent user message,
// or "" if there is none.
func LastUserMessage(history []ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}
