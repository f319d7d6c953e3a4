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

// openRouterAPIURL is the OpenRouter chat completions endpoint. Package-level
// var for test substitution.
var openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouter attribution headers; openrouter.ai uses them to credit traffic.
const (
	openRouterReferer = "https://github.com/pdiddy/papercast"
	openRouterTitle   = "papercast"
)

// OpenRouter calls an OpenAI-compatible chat completions endpoint through
// openrouter.ai, giving access to hosted open-weight models.
// Per prd003-classification R5.1.
type OpenRouter struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenRouter builds an OpenRouter client from cfg.
func NewOpenRouter(cfg types.LLMConfig) *OpenRouter {
	return &OpenRouter{
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(),
		limiter: newLimiter(cfg.RequestsPerMinute),
	}
}

func (o *OpenRouter) Name() string { return "openrouter" }

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the OpenAI-compatible response body.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// chatChoice is one completion choice.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Complete performs one chat completions call.
func (o *OpenRouter) Complete(ctx context.Context, req Request) (string, error) {
	if err := waitLimiter(ctx, o.limiter); err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("HTTP-Referer", openRouterReferer)
	httpReq.Header.Set("X-Title", openRouterTitle)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", newTransportError(o.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", newHTTPError(o.Name(), resp.StatusCode, body)
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(cResp.Choices) == 0 {
		return "", nil
	}
	return cResp.Choices[0].Message.Content, nil
}
