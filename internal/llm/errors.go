// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an adapter failure for retry decisions (prd003 R5.2).
type Kind string

const (
	// Transient failures (rate limits, server errors, network faults) may
	// be retried within the stage's bounded budget.
	Transient Kind = "transient"

	// Permanent failures (bad request, invalid key, missing model) are
	// escalated immediately and never retried.
	Permanent Kind = "permanent"
)

// AdapterError describes a failed completion call.
type AdapterError struct {
	// Provider is the client name ("anthropic", "openrouter").
	Provider string

	// Kind is the retry classification.
	Kind Kind

	// Status is the HTTP status code, or 0 for network-level failures.
	Status int

	// Message is the response body or transport error text, truncated.
	Message string

	// Err is the underlying transport error, when there is one.
	Err error
}

func (e *AdapterError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failure: status %d: %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s failure: %s", e.Provider, e.Kind, e.Message)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// IsTransient reports whether err is an adapter failure worth retrying.
// Errors that are not AdapterErrors (context cancellation, programming
// errors) are never retried.
func IsTransient(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind == Transient
	}
	return false
}

// ErrEmptyCompletion is returned by CompleteWithRetry when the model produced
// only empty or whitespace completions for the whole retry budget.
var ErrEmptyCompletion = errors.New("model returned empty completion")

// classifyStatus maps an HTTP status to a failure kind. Request timeouts,
// rate limits, and server-side errors are transient; everything else in the
// 4xx range is a caller problem and permanent.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return Transient
	case status >= 500:
		return Transient
	default:
		return Permanent
	}
}

const maxErrBody = 200

// newHTTPError builds an AdapterError from a non-2xx provider response.
func newHTTPError(provider string, status int, body []byte) *AdapterError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrBody {
		msg = msg[:maxErrBody] + "..."
	}
	return &AdapterError{
		Provider: provider,
		Kind:     classifyStatus(status),
		Status:   status,
		Message:  msg,
	}
}

// newTransportError wraps a network-level failure (connection refused, DNS,
// client timeout) as transient.
func newTransportError(provider string, err error) *AdapterError {
	return &AdapterError{
		Provider: provider,
		Kind:     Transient,
		Message:  err.Error(),
		Err:      err,
	}
}
