// Package mcp exposes document question answering as MCP tools.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// Answerer answers grounded questions.
type Answerer interface {
	Answer(ctx context.Context, question string, history []entities.ConversationMessage, topK int) (*entities.Answer, error)
	Search(ctx context.Context, question string, topK int) ([]entities.RetrievalResult, error)
	TopK() int
}

// Catalog lists ingested documents.
type Catalog interface {
	List(ctx context.Context) ([]entities.Document, error)
}

// NewServer creates an MCP server with the document tools registered.
func NewServer(name, version string, answerer Answerer, catalog Catalog, logger arbor.ILogger) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(createAskDocumentsTool(), handleAskDocuments(answerer, logger))
	s.AddTool(createSearchDocumentsTool(), handleSearchDocuments(answerer, logger))
	s.AddTool(createListDocumentsTool(), handleListDocuments(catalog, logger))

	return s
}
