// Package actionhttp adapts an OpenAI-chat-compatible endpoint to
// providers.ActionProvider, regenerating a tool-call proposal from a
// (possibly sanitized, possibly CoT-masked) message sequence. Grounded
// on cmd/nullbot's askLLM: same client-construction, auth-header, and
// JSON-body idiom, generalized from a shell-command plan to a single
// tool-call proposal.
package actionhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corvid-labs/tripline/internal/model"
)

// Client calls an OpenAI-chat-compatible /chat/completions endpoint and
// parses its response as a single proposed tool call.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// New constructs a Client. If httpClient is nil, a 30s-timeout default
// is used, matching cmd/nullbot's askLLM.
func New(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: baseURL, APIKey: apiKey, Model: model, HTTP: httpClient}
}

const systemPrompt = `You are the action-proposing model in a tool-using agent loop. ` +
	`Given the conversation so far, propose exactly one tool call as JSON of the form ` +
	`{"name":"<tool name>","arguments":{...}}, with no markdown fences and no commentary. ` +
	`If no tool call is warranted, return {"name":"","arguments":{}}.`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type proposedCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Propose implements providers.ActionProvider.
func (c *Client) Propose(ctx context.Context, messages []model.Message) (*model.ToolCall, error) {
	chatMessages := make([]chatMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range messages {
		chatMessages = append(chatMessages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    chatMessages,
		Temperature: 0,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, fmt.Errorf("actionhttp: marshal request: %w", err)
	}

	raw, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var p proposedCall
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("actionhttp: invalid JSON response: %w (raw: %s)", err, raw)
	}
	if p.Name == "" {
		return nil, nil
	}

	return &model.ToolCall{
		Name:      p.Name,
		Arguments: p.Arguments,
		RawText:   raw,
	}, nil
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("actionhttp: create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("actionhttp: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("actionhttp: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return "", fmt.Errorf("actionhttp: empty or malformed response")
	}
	return result.Choices[0].Message.Content, nil
}
