package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/zombar/authenticity/internal/models"
)

const (
	DefaultModel      = "gpt-4o"
	OpenRouterModel   = "openai/gpt-4o"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterPrefix  = "sk-or-"
	appTitle          = "Authenticity Checker"
)

// ErrEmptyResponse is returned when the API answers without any choices
var ErrEmptyResponse = errors.New("empty completion response")

// Config configures the chat completion client
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Keys with the OpenRouter prefix
	// default to OpenRouter.
	BaseURL string
	// AppURL is sent as the HTTP-Referer header to OpenRouter
	AppURL string
}

// Client completes prompts with the chat completions API
type Client struct {
	client *gopenai.Client
	model  string
	router bool
}

// New creates a chat completion client
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	router := strings.HasPrefix(cfg.APIKey, openRouterPrefix)
	conf := gopenai.DefaultConfig(cfg.APIKey)

	model := cfg.Model
	if router {
		conf.BaseURL = OpenRouterBaseURL
		conf.HTTPClient = &http.Client{Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.AppURL,
				"X-Title":      appTitle,
			},
		}}
		if model == "" {
			model = OpenRouterModel
		}
	}
	if model == "" {
		model = DefaultModel
	}
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: gopenai.NewClientWithConfig(conf),
		model:  model,
		router: router,
	}, nil
}

// Name identifies the provider and model in results
func (c *Client) Name() string {
	if c.router {
		return "openrouter/" + c.model
	}
	return "openai/" + c.model
}

// Complete sends a system and user message and returns the first choice
func (c *Client) Complete(ctx context.Context, p models.Prompt) (string, error) {
	req := gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: p.System},
			{Role: gopenai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		ResponseFormat: &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	slog.Debug("chat completion received",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
