// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CompleteWithRetry calls the client with a bounded retry budget (R5.2).
// Transient failures and empty completions are retried with exponential
// backoff; permanent failures return immediately, as does context
// cancellation. After the budget is spent the last failure is returned, with
// ErrEmptyCompletion standing in when every attempt produced no text.
func CompleteWithRetry(ctx context.Context, c Client, req Request, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := c.Complete(ctx, req)
		if err != nil {
			if !IsTransient(err) {
				return "", err
			}
			lastErr = err
			continue
		}
		if strings.TrimSpace(out) == "" {
			lastErr = ErrEmptyCompletion
			continue
		}
		return out, nil
	}

	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
