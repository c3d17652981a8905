package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/0xcro3dile/docqa-go/internal/domain/failures"
)

func limitArg(request mcp.CallToolRequest, fallback int) int {
	limit := request.GetInt("limit", fallback)
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxLimit)
}

func errorResult(err error) *mcp.CallToolResult {
	msg := failures.DetailOf(err)
	if kind := failures.KindOf(err); kind != "" {
		msg = string(kind) + ": " + msg
	}
	return mcp.NewToolResultError(msg)
}

// handleAskDocuments implements the ask_documents tool
func handleAskDocuments(answerer Answerer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError("Error: question parameter is required"), nil
		}

		answer, err := answerer.Answer(ctx, question, nil, limitArg(request, answerer.TopK()))
		if err != nil {
			logger.Error().Err(err).Msg("ask_documents failed")
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(formatAnswer(answer)), nil
	}
}

// handleSearchDocuments implements the search_documents tool
func handleSearchDocuments(answerer Answerer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("Error: query parameter is required"), nil
		}

		results, err := answerer.Search(ctx, query, limitArg(request, answerer.TopK()))
		if err != nil {
			logger.Error().Err(err).Msg("search_documents failed")
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

// handleListDocuments implements the list_documents tool
func handleListDocuments(catalog Catalog, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := catalog.List(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("list_documents failed")
			return errorResult(err), nil
		}
		return mcp.NewToolResultText(formatDocuments(docs)), nil
	}
}
