// Package proxyhttp adapts an OpenAI-legacy-completions-compatible
// endpoint (the /v1/completions shape, not /v1/chat/completions) to
// providers.ProxyProvider. That endpoint is the only common
// OpenAI-compatible surface that returns per-token log-probabilities
// with byte offsets when called with echo=true and logprobs>0, which
// providers.ProxyProvider's contract requires (spec.md §6's per-token,
// byte-offset-aligned Score). Same client-construction and auth-header
// idiom as internal/actionhttp and internal/sanitizerhttp, grounded on
// cmd/nullbot's askLLM.
package proxyhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corvid-labs/tripline/internal/providers"
)

// Client calls an OpenAI-completions-compatible endpoint with echo and
// logprobs enabled and slices out the continuation's per-token
// log-probabilities by byte offset.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// New constructs a Client. If httpClient is nil, a 30s-timeout default is used.
func New(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: baseURL, APIKey: apiKey, Model: model, HTTP: httpClient}
}

type completionRequest struct {
	Model     string  `json:"model"`
	Prompt    string  `json:"prompt"`
	MaxTokens int     `json:"max_tokens"`
	Echo      bool    `json:"echo"`
	Logprobs  int     `json:"logprobs"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Logprobs struct {
			Tokens        []string  `json:"tokens"`
			TokenLogprobs []float64 `json:"token_logprobs"`
			TextOffset    []int     `json:"text_offset"`
		} `json:"logprobs"`
	} `json:"choices"`
}

// Score implements providers.ProxyProvider. It sends Prompt+Continuation
// as a single echoed completion request and returns the per-token
// log-probabilities of every returned token whose text offset is at or
// beyond len(req.Prompt) — i.e. the continuation's own tokens.
func (c *Client) Score(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	full := req.Prompt + req.Continuation

	body, err := json.Marshal(completionRequest{
		Model:       c.Model,
		Prompt:      full,
		MaxTokens:   0,
		Echo:        true,
		Logprobs:    1,
		Temperature: 0,
	})
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: create request: %w", err)
	}
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: empty or malformed response")
	}

	lp := result.Choices[0].Logprobs
	cutoff := len(req.Prompt)

	var logprobs []float64
	for i, offset := range lp.TextOffset {
		if offset < cutoff {
			continue
		}
		if i < len(lp.TokenLogprobs) {
			logprobs = append(logprobs, lp.TokenLogprobs[i])
		}
	}
	if len(logprobs) == 0 {
		return providers.ScoreResponse{}, fmt.Errorf("proxyhttp: no continuation tokens found at or beyond offset %d", cutoff)
	}

	return providers.ScoreResponse{Logprobs: logprobs, TokenCount: len(logprobs)}, nil
}
