package usecases

import (
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// BuildMessages returns history (oldest first) followed by one user message
// that grounds question in the retrieved chunk texts.
func BuildMessages(
	question string,
	history []entities.ConversationMessage,
	results []entities.RetrievalResult,
) []entities.ConversationMessage {
	messages := make([]entities.ConversationMessage, 0, len(history)+1)
	messages = append(messages, history...)
	return append(messages, entities.ConversationMessage{
		Role:    entities.RoleUser,
		Content: groundingPrompt(question, results),
	})
}

func groundingPrompt(question string, results []entities.RetrievalResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}

	var sb strings.Builder
	sb.WriteString("Using the following information from the documents, answer the user's question concisely and accurately.\n\n")
	sb.WriteString("Document information:\n")
	sb.WriteString(strings.Join(texts, "\n\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nIf the information provided is not sufficient to answer the question, say so clearly.")
	return sb.String()
}
