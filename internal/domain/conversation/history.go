// Package conversation holds the bounded message log used as query context.
package conversation

import "github.com/0xcro3dile/docqa-go/internal/domain/entities"

// DefaultLimit is the default message cap (five exchanges).
const DefaultLimit = 10

// History is an ordered, capped log of conversation turns. The oldest
// messages are evicted first once the cap is exceeded.
//
// History does not validate role order and is not safe for concurrent use;
// its owner serializes access.
type History struct {
	limit    int
	messages []entities.ConversationMessage
}

// NewHistory returns an empty history capped at limit messages.
// A non-positive limit selects DefaultLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// FromMessages rebuilds a history, keeping only the most recent limit messages.
func FromMessages(limit int, msgs []entities.ConversationMessage) *History {
	h := NewHistory(limit)
	for _, m := range msgs {
		h.Append(m.Role, m.Content)
	}
	return h
}

// Append adds a message, evicting from the front if the cap is exceeded.
func (h *History) Append(role entities.Role, content string) {
	h.messages = append(h.messages, entities.ConversationMessage{Role: role, Content: content})
	if over := len(h.messages) - h.limit; over > 0 {
		h.messages = append([]entities.ConversationMessage(nil), h.messages[over:]...)
	}
}

// Messages returns a copy of the log, oldest first.
func (h *History) Messages() []entities.ConversationMessage {
	out := make([]entities.ConversationMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear drops every message.
func (h *History) Clear() {
	h.messages = nil
}

// Len returns the number of messages held.
func (h *History) Len() int {
	return len(h.messages)
}

// Limit returns the message cap.
func (h *History) Limit() int {
	return h.limit
}
