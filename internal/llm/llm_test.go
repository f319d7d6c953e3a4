// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papercast/pkg/types"
)

func init() {
	// Use a tiny backoff so retry tests finish quickly.
	backoffBase = 1 * time.Millisecond
}

// mockClient returns scripted completions and errors in order, then repeats
// the last entry.
type mockClient struct {
	name  string
	outs  []string
	errs  []error
	calls int32
}

func (m *mockClient) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockClient) Complete(_ context.Context, _ Request) (string, error) {
	n := int(atomic.AddInt32(&m.calls, 1)) - 1
	out := ""
	if len(m.outs) > 0 {
		out = m.outs[min(n, len(m.outs)-1)]
	}
	var err error
	if len(m.errs) > 0 {
		err = m.errs[min(n, len(m.errs)-1)]
	}
	return out, err
}

func (m *mockClient) callCount() int32 { return atomic.LoadInt32(&m.calls) }

// --- factory ---

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider types.LLMProvider
		wantName string
		wantErr  bool
	}{
		{"anthropic", types.ProviderAnthropic, "anthropic", false},
		{"openrouter", types.ProviderOpenRouter, "openrouter", false},
		{"unset", "", "", true},
		{"unknown", "cohere", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(types.LLMConfig{Provider: tt.provider, APIKey: "k"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
		})
	}
}

// --- error classification ---

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{408, Transient},
		{429, Transient},
		{500, Transient},
		{503, Transient},
		{529, Transient},
		{400, Permanent},
		{401, Permanent},
		{403, Permanent},
		{404, Permanent},
		{413, Permanent},
		{422, Permanent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.status), "status %d", tt.status)
	}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(newHTTPError("anthropic", 429, nil)))
	assert.True(t, IsTransient(newTransportError("anthropic", assert.AnError)))
	assert.False(t, IsTransient(newHTTPError("anthropic", 401, nil)))
	assert.False(t, IsTransient(assert.AnError))
	assert.False(t, IsTransient(nil))
}

// --- CompleteWithRetry ---

func TestCompleteWithRetry_TransientThenSuccess(t *testing.T) {
	m := &mockClient{
		outs: []string{"", "", "ok"},
		errs: []error{newHTTPError("mock", 429, nil), newHTTPError("mock", 503, nil), nil},
	}

	out, err := CompleteWithRetry(context.Background(), m, Request{Prompt: "p"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), m.callCount())
}

func TestCompleteWithRetry_PermanentStopsImmediately(t *testing.T) {
	m := &mockClient{
		outs: []string{""},
		errs: []error{newHTTPError("mock", 401, []byte("invalid x-api-key"))},
	}

	_, err := CompleteWithRetry(context.Background(), m, Request{Prompt: "p"}, 3)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), m.callCount())
}

func TestCompleteWithRetry_EmptyExhaustsBudget(t *testing.T) {
	m := &mockClient{outs: []string{"  \n"}}

	_, err := CompleteWithRetry(context.Background(), m, Request{Prompt: "p"}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	// 1 initial + 2 retries.
	assert.Equal(t, int32(3), m.callCount())
}

func TestCompleteWithRetry_DefaultBudget(t *testing.T) {
	m := &mockClient{
		outs: []string{""},
		errs: []error{newHTTPError("mock", 500, nil)},
	}

	_, err := CompleteWithRetry(context.Background(), m, Request{Prompt: "p"}, 0)
	require.Error(t, err)
	// 1 initial + DefaultMaxRetries retries.
	assert.Equal(t, int32(DefaultMaxRetries+1), m.callCount())
}

func TestCompleteWithRetry_ContextCancelled(t *testing.T) {
	old := backoffBase
	backoffBase = 500 * time.Millisecond
	defer func() { backoffBase = old }()

	m := &mockClient{
		outs: []string{""},
		errs: []error{newHTTPError("mock", 429, nil)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := CompleteWithRetry(ctx, m, Request{Prompt: "p"}, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- cache ---

func TestCachedHitsOnEqualValueInputs(t *testing.T) {
	m := &mockClient{outs: []string{"completion"}}
	c := NewCached(m)

	req := Request{Prompt: "p", Model: "m", MaxTokens: 100, Temperature: 0.1}

	out1, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	out2, err := c.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "completion", out1)
	assert.Equal(t, out1, out2)
	assert.Equal(t, int32(1), m.callCount())
	assert.Equal(t, 1, c.Len())
}

func TestCachedMissesOnDifferingInputs(t *testing.T) {
	m := &mockClient{outs: []string{"completion"}}
	c := NewCached(m)

	base := Request{Prompt: "p", Model: "m", MaxTokens: 100, Temperature: 0.1}
	variants := []Request{
		{Prompt: "q", Model: "m", MaxTokens: 100, Temperature: 0.1},
		{Prompt: "p", Model: "n", MaxTokens: 100, Temperature: 0.1},
		{Prompt: "p", Model: "m", MaxTokens: 200, Temperature: 0.1},
		{Prompt: "p", Model: "m", MaxTokens: 100, Temperature: 0.7},
	}

	_, err := c.Complete(context.Background(), base)
	require.NoError(t, err)
	for _, v := range variants {
		_, err := c.Complete(context.Background(), v)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(5), m.callCount())
	assert.Equal(t, 5, c.Len())
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	m := &mockClient{
		outs: []string{"", "ok"},
		errs: []error{newHTTPError("mock", 500, nil), nil},
	}
	c := NewCached(m)

	req := Request{Prompt: "p", Model: "m"}

	_, err := c.Complete(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	out, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, c.Len())
}
