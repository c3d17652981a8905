package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

const snippetLength = 300

func formatAnswer(answer *entities.Answer) string {
	var sb strings.Builder
	sb.WriteString(answer.Text)
	sb.WriteString("\n\n")

	if len(answer.Results) > 0 {
		sb.WriteString("## Sources\n\n")
		for i, r := range answer.Results {
			fmt.Fprintf(&sb, "%d. **%s** (chunk %d, score %.3f)\n", i+1, titleOr(r), r.ChunkIndex, r.Score)
		}
		sb.WriteString("\n")
	}

	u := answer.Usage
	fmt.Fprintf(&sb, "_Tokens: %d prompt + %d completion, est. $%.6f (%s)_\n",
		u.PromptTokens, u.CompletionTokens, u.EstimatedCost.Amount, u.EstimatedCost.Model)
	return sb.String()
}

func formatSearchResults(query string, results []entities.RetrievalResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for %q\n\n", query)
	if len(results) == 0 {
		sb.WriteString("No matching chunks.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Found %d chunks:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, titleOr(r))
		fmt.Fprintf(&sb, "**Document:** %s | **Chunk:** %d | **Score:** %.3f\n\n", r.DocumentID, r.ChunkIndex, r.Score)
		sb.WriteString(r.Snippet(snippetLength))
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

func formatDocuments(docs []entities.Document) string {
	if len(docs) == 0 {
		return "No documents have been ingested.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Documents (%d)\n\n", len(docs))
	sb.WriteString("| Title | File | Chunks | Processed | ID |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, d := range docs {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s | %s |\n",
			d.Title, d.Filename, d.TotalChunks, d.ProcessedAt.Format(time.RFC3339), d.ID)
	}
	return sb.String()
}

func titleOr(r entities.RetrievalResult) string {
	if r.Title != "" {
		return r.Title
	}
	return r.DocumentID
}
