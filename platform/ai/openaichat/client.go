// Package openaichat provides a thin client for OpenAI-compatible chat APIs.
// This is part of the platform layer and contains no business logic.
package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"vida_smart_backend/platform/config"

	openai "github.com/sashabaranov/go-openai"
)

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// New creates a chat client from configuration. An empty base URL uses the
// official OpenAI endpoint.
func New(cfg config.OpenAIConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.GetOpenAIAPIKey())
	if baseURL := cfg.GetOpenAIBaseURL(); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(clientConfig),
		model:       cfg.GetOpenAIModel(),
		temperature: 0.7,
		maxTokens:   800,
	}
}

// Complete sends the message sequence and returns the assistant reply text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("openaichat: empty message list")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    toAPIMessages(messages),
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openaichat: no completion choices returned")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("openaichat: empty completion")
	}
	return reply, nil
}

// CompleteJSON requests a JSON-object response and unmarshals it into out.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message, out interface{}) error {
	if len(messages) == 0 {
		return errors.New("openaichat: empty message list")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   2000,
		Messages:    toAPIMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("openaichat: no completion choices returned")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = stripCodeFence(raw)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.New("openaichat: completion is not valid JSON: " + err.Error())
	}
	return nil
}

func toAPIMessages(messages []Message) []openai.ChatCompletionMessage {
	apiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return apiMessages
}

// stripCodeFence removes a surrounding ```json fence some models emit even
// in JSON mode.
func stripCodeFence(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
