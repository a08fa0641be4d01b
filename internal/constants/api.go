package constants

import "time"

// API Endpoints
const (
	// Infinity Portal external authentication endpoint
	EndpointAuthExternal = "/auth/external"

	// Logs API endpoints
	EndpointLogsQuery       = "/app/laas-logs-api/api/logs_query"
	EndpointLogsQueryStatus = "/app/laas-logs-api/api/logs_query/%s"
	EndpointLogsRetrieve    = "/app/laas-logs-api/api/logs_query/retrieve"

	// Default API gateway
	DefaultBaseURL = "https://cloudinfra-gw.portal.checkpoint.com"
)

// HTTP Headers
const (
	HeaderAccept          = "Accept"
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderUserAgent       = "User-Agent"
	HeaderContentTypeJSON = "application/json"
	HeaderAcceptJSON      = "application/json"
)

// Bearer token prefix
const BearerPrefix = "Bearer "

// User Agent
const UserAgentInfinityMCP = "Infinity-Events-MCP-Server/1.0"

// Search tunables. These mirror the Infinity Events API contract and are
// fixed rather than adaptive.
const (
	// SearchRecordLimit caps the total records one query may return.
	SearchRecordLimit = 10000

	// SearchPageLimit caps records per retrieved page.
	SearchPageLimit = 100

	// PollInterval is the fixed delay between task status checks.
	PollInterval = 2 * time.Second

	// MaxPollAttempts bounds the status-check loop (~60s of wall time).
	MaxPollAttempts = 30

	// RequestTimeout applies to every individual API call.
	RequestTimeout = 30 * time.Second

	// TokenLifetime is the client-side token validity estimate. The auth
	// endpoint does not report an expiry, so 30 minutes is assumed.
	TokenLifetime = 30 * time.Minute
)
