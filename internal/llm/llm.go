// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the boundary to generative model services. It defines the
// Client interface the pipeline stages program against, two provider
// implementations (Anthropic Messages, OpenRouter chat completions), bounded
// retry with exponential backoff, per-client rate limiting, and a value-keyed
// response cache.
// Implements: prd003-classification R5.1-R5.4;
//
//	docs/ARCHITECTURE § LLM Adapter.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/papercast/pkg/types"
)

const (
	// DefaultTimeout bounds one HTTP round trip to a provider.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the retry budget for transient failures when a
	// stage config leaves MaxRetries unset.
	DefaultMaxRetries = 3
)

// Request describes one completion call. All fields are plain values; two
// requests with equal fields are interchangeable, which is what makes them
// usable as cache keys.
type Request struct {
	// Prompt is the full user prompt sent to the model.
	Prompt string

	// Model is the provider-specific model identifier.
	Model string

	// MaxTokens is the completion token budget.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// Client sends a prompt to a generative model service and returns the text
// completion. Implementations must be safe for concurrent use; the
// classification and summary stages call Complete from multiple workers.
type Client interface {
	// Name identifies the provider (e.g. "anthropic").
	Name() string

	// Complete performs one completion call. Failures are reported as
	// *AdapterError so callers can distinguish transient from permanent
	// causes. An empty string with a nil error means the model returned
	// no usable text.
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds a provider client from cfg (R5.1). The returned client applies
// the configured requests/minute budget but no caching; wrap with NewCached
// where repeated identical calls are possible.
func New(cfg types.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case types.ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case types.ProviderOpenRouter:
		return NewOpenRouter(cfg), nil
	case "":
		return nil, fmt.Errorf("llm provider not set")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newHTTPClient returns the shared provider HTTP client.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Truncate caps s at max runes, keeping the head. Stage configs express
// prompt budgets in characters, not bytes, so multi-byte text is not cut
// mid-rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
