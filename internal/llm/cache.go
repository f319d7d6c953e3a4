// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// Cached wraps a Client with an in-memory completion cache. Keys are derived
// only from value inputs (provider name, model, token budget, temperature,
// prompt), never from object identity, so equal requests hit regardless of
// call site. Failures and empty completions are not cached. The cache lives
// and dies with the session.
type Cached struct {
	inner Client

	mu      sync.Mutex
	entries map[string]string
}

// NewCached wraps inner with a completion cache.
func NewCached(inner Client) *Cached {
	return &Cached{inner: inner, entries: make(map[string]string)}
}

func (c *Cached) Name() string { return c.inner.Name() }

// Complete returns the cached completion when the request was seen before,
// otherwise delegates to the wrapped client. Cache hits make no network call
// and consume no rate-limit budget.
func (c *Cached) Complete(ctx context.Context, req Request) (string, error) {
	key := cacheKey(c.inner.Name(), req)

	c.mu.Lock()
	out, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return out, nil
	}

	out, err := c.inner.Complete(ctx, req)
	if err != nil || strings.TrimSpace(out) == "" {
		return out, err
	}

	c.mu.Lock()
	c.entries[key] = out
	c.mu.Unlock()
	return out, nil
}

// Len reports the number of cached completions.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey hashes the request value fields. NUL separators keep adjacent
// fields from aliasing.
func cacheKey(provider string, req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%g\x00%s", provider, req.Model, req.MaxTokens, req.Temperature, req.Prompt)
	return hex.EncodeToString(h.Sum(nil))
}
