// Package auth manages Infinity Portal bearer tokens.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"infinity-mcp/internal/constants"
	"infinity-mcp/internal/models"
)

// Credentials identifies one API key pair.
type Credentials struct {
	ClientID  string
	AccessKey string
}

// Session owns one bearer token and its client-side expiry. It is safe for
// concurrent use: the token/expiry pair is only ever replaced together
// under the lock, and concurrent callers share a single acquisition.
type Session struct {
	baseURL string
	creds   Credentials
	client  *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now      func() time.Time // injectable clock
	lifetime time.Duration
}

// NewSession creates a session against the given API gateway. No network
// call is made until the first Token request.
func NewSession(client *http.Client, baseURL string, creds Credentials) *Session {
	return &Session{
		baseURL:  baseURL,
		creds:    creds,
		client:   client,
		now:      time.Now,
		lifetime: constants.TokenLifetime,
	}
}

// Token returns the held bearer token, acquiring a fresh one first when
// none is held or the held one has expired. The call is idempotent while
// the token is valid: no network traffic happens.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	if s.creds.ClientID == "" || s.creds.AccessKey == "" {
		return "", &models.APIError{
			Kind:    models.ErrCredentialsMissing,
			Message: "Infinity API credentials are not configured",
		}
	}

	token, err := s.authenticate(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiresAt = s.now().Add(s.lifetime)
	return s.token, nil
}

func (s *Session) authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"clientId":  s.creds.ClientID,
		"accessKey": s.creds.AccessKey,
	})
	if err != nil {
		return "", &models.APIError{Kind: models.ErrAuthFailed, Message: "failed to encode auth request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+constants.EndpointAuthExternal, bytes.NewReader(body))
	if err != nil {
		return "", &models.APIError{Kind: models.ErrAuthFailed, Message: "failed to create auth request", Err: err}
	}
	req.Header.Set(constants.HeaderContentType, constants.HeaderContentTypeJSON)
	req.Header.Set(constants.HeaderAccept, constants.HeaderAcceptJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgentInfinityMCP)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &models.APIError{Kind: models.ErrTransport, Message: "authentication request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &models.APIError{
			Kind:       models.ErrAuthFailed,
			Message:    "authentication rejected: " + string(respBody),
			StatusCode: resp.StatusCode,
		}
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &models.APIError{Kind: models.ErrAuthFailed, Message: "malformed auth response", Err: err}
	}
	if !result.Success || result.Data.Token == "" {
		return "", &models.APIError{Kind: models.ErrAuthFailed, Message: "authentication failed"}
	}

	return result.Data.Token, nil
}
