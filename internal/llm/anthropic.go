// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/papercast/pkg/types"
)

// anthropicAPIURL is the Anthropic Messages API endpoint. Package-level var
// for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// Anthropic calls the Anthropic Messages API. Per prd003-classification R5.1.
type Anthropic struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewAnthropic builds an Anthropic client from cfg.
func NewAnthropic(cfg types.LLMConfig) *Anthropic {
	return &Anthropic{
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(),
		limiter: newLimiter(cfg.RequestsPerMinute),
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the conversation.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Messages API.
type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

// anthropicContent is a content block in the response.
type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete performs one Messages API call. Non-2xx statuses are mapped to
// AdapterErrors via classifyStatus; a response without text blocks returns
// an empty completion with nil error.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	if err := waitLimiter(ctx, a.limiter); err != nil {
		return "", err
	}

	reqBody := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", newTransportError(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", newHTTPError(a.Name(), resp.StatusCode, body)
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	for _, block := range aResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
