// Package events exposes the Infinity Events search pipeline as MCP tools.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"infinity-mcp/internal/auth"
	"infinity-mcp/internal/export"
	"infinity-mcp/internal/models"
	"infinity-mcp/internal/query"
	"infinity-mcp/internal/report"
	"infinity-mcp/internal/search"
)

// sampleRecords caps how many records a save_locally response echoes back.
const sampleRecords = 5

// SearchEventsArgs represents the input arguments for the
// search_security_events tool.
type SearchEventsArgs struct {
	Query       string   `json:"query"`
	Timeframe   string   `json:"timeframe,omitempty"`
	Accounts    []string `json:"accounts,omitempty"`
	SaveLocally bool     `json:"save_locally,omitempty"`

	// Optional per-call connection overrides; default to server config.
	BaseURL   string `json:"base_url,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
}

// TranslateQueryArgs represents the input arguments for the
// translate_security_query tool.
type TranslateQueryArgs struct {
	Query     string `json:"query"`
	Timeframe string `json:"timeframe,omitempty"`
}

// poolKey identifies a session by gateway and the full credential pair. The
// access key is part of the key so a retry with a corrected key gets a fresh
// session instead of one frozen on the old credentials.
type poolKey struct {
	baseURL string
	creds   auth.Credentials
}

// sessionPool caches one auth.Session per gateway/credential pair so tokens
// persist across tool calls until they expire.
type sessionPool struct {
	client *http.Client

	mu sync.Mutex
	m  map[poolKey]*auth.Session
}

func newSessionPool(client *http.Client) *sessionPool {
	return &sessionPool{client: client, m: make(map[poolKey]*auth.Session)}
}

func (p *sessionPool) get(baseURL string, creds auth.Credentials) *auth.Session {
	key := poolKey{baseURL: baseURL, creds: creds}
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.m[key]; ok {
		return s
	}
	s := auth.NewSession(p.client, baseURL, creds)
	p.m[key] = s
	return s
}

// NewSearchEventsHandler creates a handler for the search_security_events
// tool. Pipeline failures are reported as a structured success:false
// payload rather than a protocol error, so callers always see the error
// kind and message.
func NewSearchEventsHandler(client *http.Client, cfg models.Config, log zerolog.Logger) func(context.Context, *mcp.CallToolRequest, SearchEventsArgs) (*mcp.CallToolResult, any, error) {
	pool := newSessionPool(client)
	translator := query.New()
	limiter := search.NewLimiter(cfg)

	return func(ctx context.Context, req *mcp.CallToolRequest, args SearchEventsArgs) (*mcp.CallToolResult, any, error) {
		if args.Query == "" {
			return nil, nil, fmt.Errorf("query parameter is required")
		}

		baseURL := cfg.BaseURL
		if args.BaseURL != "" {
			baseURL = args.BaseURL
		}
		creds := auth.Credentials{ClientID: cfg.ClientID, AccessKey: cfg.AccessKey}
		if args.ClientID != "" || args.AccessKey != "" {
			creds = auth.Credentials{ClientID: args.ClientID, AccessKey: args.AccessKey}
		}

		translation := translator.Translate(args.Query, args.Timeframe)

		searchClient := search.NewClient(client, baseURL, pool.get(baseURL, creds), limiter)
		orch := search.NewOrchestrator(searchClient, log)

		result, err := orch.Run(ctx, translation, args.Accounts)
		if err != nil {
			log.Error().Err(err).Str("query", args.Query).Msg("search failed")
			return textResult(failurePayload(err)), nil, nil
		}

		response := map[string]any{
			"success":       true,
			"message":       fmt.Sprintf("Retrieved %d records", result.TotalRecords),
			"total_records": result.TotalRecords,
			"query_info": map[string]any{
				"original_query": args.Query,
				"timeframe":      args.Timeframe,
				"app_name":       result.Product,
				"filter":         result.FilterUsed,
				"window":         result.Timeframe,
			},
			"report_metadata": report.Build(result.Records),
		}

		if args.SaveLocally {
			filename, err := export.Write(".", export.Envelope{
				Query:       args.Query,
				Timeframe:   args.Timeframe,
				Result:      result,
				GeneratedBy: "infinity-events-mcp",
			})
			if err != nil {
				return textResult(map[string]any{
					"success": false,
					"error":   "export_failed",
					"message": err.Error(),
				}), nil, nil
			}
			response["message"] = fmt.Sprintf("Retrieved %d records and saved to %s", result.TotalRecords, filename)
			response["filename"] = filename
			response["sample_records"] = sample(result.Records, sampleRecords)
		} else {
			response["records"] = result.Records
		}

		return textResult(response), nil, nil
	}
}

// NewTranslateQueryHandler creates a handler for the
// translate_security_query tool. It previews the filter and window a query
// would produce without touching the network.
func NewTranslateQueryHandler() func(context.Context, *mcp.CallToolRequest, TranslateQueryArgs) (*mcp.CallToolResult, any, error) {
	translator := query.New()

	return func(ctx context.Context, req *mcp.CallToolRequest, args TranslateQueryArgs) (*mcp.CallToolResult, any, error) {
		if args.Query == "" {
			return nil, nil, fmt.Errorf("query parameter is required")
		}

		translation := translator.Translate(args.Query, args.Timeframe)
		return textResult(map[string]any{
			"app_name": translation.Product,
			"filter":   translation.Filter,
			"window":   translation.Window,
		}), nil, nil
	}
}

func failurePayload(err error) map[string]any {
	payload := map[string]any{
		"success": false,
		"error":   string(models.KindOf(err)),
		"message": err.Error(),
	}
	var ae *models.APIError
	if errors.As(err, &ae) && len(ae.Remote) > 0 {
		payload["errors"] = ae.Remote
	}
	return payload
}

func sample(records []json.RawMessage, n int) []json.RawMessage {
	if len(records) <= n {
		return records
	}
	return records[:n]
}

func textResult(payload any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatJSON(payload)},
		},
	}
}

// formatJSON formats JSON for display
func formatJSON(data any) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
