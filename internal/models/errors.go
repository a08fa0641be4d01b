package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced by the auth and search pipeline.
type ErrorKind string

const (
	ErrCredentialsMissing  ErrorKind = "credentials_missing"
	ErrAuthFailed          ErrorKind = "auth_failed"
	ErrTransport           ErrorKind = "transport_error"
	ErrRateLimited         ErrorKind = "rate_limited"
	ErrSearchRequestFailed ErrorKind = "search_request_failed"
	ErrTaskFailed          ErrorKind = "task_failed"
	ErrUnknownTaskState    ErrorKind = "unknown_task_state"
	ErrTimeout             ErrorKind = "timeout"
	ErrRetrievalFailed     ErrorKind = "retrieval_failed"
)

// APIError is a classified pipeline failure. Every network-facing call in
// the pipeline returns one of these rather than an untyped error, so
// callers can branch on Kind.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int      // HTTP status when the remote answered
	Remote     []string // remote-reported error list (task failures)
	Err        error    // underlying cause, if any
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if len(e.Remote) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Remote, "; "))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or the empty string when err
// carries no APIError.
func KindOf(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
