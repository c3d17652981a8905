package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const maxLimit = 20

// createAskDocumentsTool returns the ask_documents tool definition
func createAskDocumentsTool() mcp.Tool {
	return mcp.NewTool("ask_documents",
		mcp.WithDescription("Answer a question from the ingested documents, citing the chunks used"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural-language question"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of chunks to retrieve (default: server setting, max: 20)"),
		),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over document chunks without generating an answer"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: server setting, max: 20)"),
		),
	)
}

// createListDocumentsTool returns the list_documents tool definition
func createListDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List ingested documents, most recent first"),
	)
}
