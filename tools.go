package main

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"infinity-mcp/internal/constants"
	"infinity-mcp/internal/events"
	"infinity-mcp/internal/models"
	"infinity-mcp/internal/search"
)

// registerAllTools registers all tools with the MCP server
func registerAllTools(server *mcp.Server, cfg models.Config, log zerolog.Logger) error {
	client := search.WrapClientWithDebug(&http.Client{
		Timeout: constants.RequestTimeout,
	}, log, cfg.Debug)

	// Register security events search tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_security_events",
		Description: events.SearchEventsDescription,
	}, events.NewSearchEventsHandler(client, cfg, log))

	// Register query translation preview tool
	mcp.AddTool(server, &mcp.Tool{
		Name:        "translate_security_query",
		Description: events.TranslateQueryDescription,
	}, events.NewTranslateQueryHandler())

	return nil
}
