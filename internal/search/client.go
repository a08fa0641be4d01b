// Package search drives asynchronous log queries against the Infinity
// Events logs API: one submission produces a task, the task is polled to
// completion, and its result pages are drained into a single record set.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"infinity-mcp/internal/constants"
	"infinity-mcp/internal/models"
)

// TokenSource supplies a valid bearer token, refreshing as needed.
// *auth.Session satisfies this.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client issues the individual logs API calls. All methods classify their
// failures as *models.APIError.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	Limiter *rate.Limiter // optional client-side request limiter
}

// NewClient wires a client. The limiter is shared across queries, so pass
// the same one for every client talking to the same gateway.
func NewClient(httpClient *http.Client, baseURL string, tokens TokenSource, limiter *rate.Limiter) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    httpClient,
		Tokens:  tokens,
		Limiter: limiter,
	}
}

// NewLimiter builds the client-side request limiter from configuration.
func NewLimiter(cfg models.Config) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RequestRateLimit), cfg.RequestRateBurst)
}

// submitRequest is the logs_query payload.
type submitRequest struct {
	Filter    string            `json:"filter"`
	Limit     int               `json:"limit"`
	PageLimit int               `json:"pageLimit"`
	Timeframe models.TimeWindow `json:"timeframe"`
	Accounts  []string          `json:"accounts,omitempty"`
}

// Submit starts a search task and returns its task ID. A 429 is surfaced
// as ErrRateLimited without any retry.
func (c *Client) Submit(ctx context.Context, filter string, window models.TimeWindow, accounts []string) (string, error) {
	payload := submitRequest{
		Filter:    filter,
		Limit:     constants.SearchRecordLimit,
		PageLimit: constants.SearchPageLimit,
		Timeframe: window,
		Accounts:  accounts,
	}

	var data struct {
		TaskID string `json:"taskId"`
	}
	if err := c.call(ctx, http.MethodPost, constants.EndpointLogsQuery, payload, &data, models.ErrSearchRequestFailed); err != nil {
		return "", err
	}
	if data.TaskID == "" {
		return "", &models.APIError{Kind: models.ErrSearchRequestFailed, Message: "search response carried no task ID"}
	}
	return data.TaskID, nil
}

// Status checks one search task.
func (c *Client) Status(ctx context.Context, taskID string) (models.TaskStatus, error) {
	var status models.TaskStatus
	path := fmt.Sprintf(constants.EndpointLogsQueryStatus, taskID)
	if err := c.call(ctx, http.MethodGet, path, nil, &status, models.ErrSearchRequestFailed); err != nil {
		return models.TaskStatus{}, err
	}
	return status, nil
}

// Retrieve fetches one result page. The page token is single-use; the
// returned batch may chain to another page.
func (c *Client) Retrieve(ctx context.Context, taskID, pageToken string) (models.RecordBatch, error) {
	payload := map[string]string{
		"taskId":    taskID,
		"pageToken": pageToken,
	}

	var batch models.RecordBatch
	if err := c.call(ctx, http.MethodPost, constants.EndpointLogsRetrieve, payload, &batch, models.ErrRetrievalFailed); err != nil {
		return models.RecordBatch{}, err
	}
	return batch, nil
}

// call performs one authenticated API round trip and decodes the success
// envelope's data field into out. failKind classifies envelope-level and
// HTTP-level failures for this operation.
func (c *Client) call(ctx context.Context, method, path string, payload, out any, failKind models.ErrorKind) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return &models.APIError{Kind: models.ErrTransport, Message: "rate limiter wait aborted", Err: err}
		}
	}

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &models.APIError{Kind: failKind, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &models.APIError{Kind: failKind, Message: "failed to create request", Err: err}
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	req.Header.Set(constants.HeaderAccept, constants.HeaderAcceptJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgentInfinityMCP)
	if payload != nil {
		req.Header.Set(constants.HeaderContentType, constants.HeaderContentTypeJSON)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &models.APIError{Kind: models.ErrTransport, Message: method + " " + path + " failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &models.APIError{
			Kind:       models.ErrRateLimited,
			Message:    "rate limit exceeded; wait and resubmit",
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &models.APIError{
			Kind:       failKind,
			Message:    "unexpected response: " + string(respBody),
			StatusCode: resp.StatusCode,
		}
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &models.APIError{Kind: failKind, Message: "malformed response body", Err: err}
	}
	if !envelope.Success {
		return &models.APIError{Kind: failKind, Message: "API reported failure"}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &models.APIError{Kind: failKind, Message: "malformed response data", Err: err}
		}
	}
	return nil
}
