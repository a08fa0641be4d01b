package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// promptDef defines a prompt's metadata and its workflow text. Arguments
// appear as $UPPER_SNAKE placeholders in the text.
type promptDef struct {
	prompt   *mcp.Prompt
	workflow string
	argNames []string
}

var promptDefs = []promptDef{
	{
		prompt: &mcp.Prompt{
			Name:        "security-event-investigation",
			Title:       "Security Event Investigation",
			Description: "Investigate security events across Check Point products: triage by severity, narrow down by product, trace suspicious source or destination addresses, and summarize posture.",
			Arguments: []*mcp.PromptArgument{
				{Name: "product", Description: "Product to focus on (e.g., Harmony SASE, Quantum Spark)", Required: false},
				{Name: "timeframe", Description: "Time period to investigate (e.g., last 24 hours, 7 days)", Required: false},
			},
		},
		workflow: securityInvestigationWorkflow,
		argNames: []string{"product", "timeframe"},
	},
}

const securityInvestigationWorkflow = `You are investigating security events in Check Point Infinity.

Focus product: $PRODUCT
Timeframe: $TIMEFRAME

Work through these steps:

1. Start wide: call search_security_events with a query like "all security events on $PRODUCT" for the timeframe to gauge volume and the severity mix in the report metadata.
2. Triage: re-query for "critical and high severity events on $PRODUCT". Use the severity tallies and compliance score to decide how urgent the situation is.
3. Trace: for any suspicious address in top_sources, query "events from src <address>" to see everything that source touched.
4. Preview before running: when unsure how a phrasing will be interpreted, use translate_security_query to inspect the filter and time window it produces.
5. Summarize: report the event counts by severity, notable sources and destinations, the compliance grade, and concrete follow-ups.

Keep queries narrow once you have found a thread to pull: one product, one severity band, or one address at a time. If a search returns rate_limited, wait before resubmitting rather than retrying immediately.`

// registerPrompts registers all prompts with the MCP server
func registerPrompts(server *mcp.Server) {
	for _, def := range promptDefs {
		server.AddPrompt(def.prompt, makePromptHandler(def))
	}
}

func makePromptHandler(def promptDef) func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text := def.workflow
		for _, name := range def.argNames {
			placeholder := "$" + strings.ToUpper(name)
			value := req.Params.Arguments[name]
			if value == "" {
				value = fmt.Sprintf("(any %s)", name)
			}
			text = strings.ReplaceAll(text, placeholder, value)
		}
		return &mcp.GetPromptResult{
			Description: def.prompt.Description,
			Messages: []*mcp.PromptMessage{
				{Role: mcp.Role("user"), Content: &mcp.TextContent{Text: text}},
			},
		}, nil
	}
}
