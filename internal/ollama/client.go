package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/zombar/authenticity/internal/models"
)

const (
	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 60 * time.Second
)

// Client completes prompts against a local Ollama server
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// New creates a new Ollama client
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// Name identifies the model in results
func (c *Client) Name() string {
	return "ollama/" + c.model
}

// Complete sends a single non-streaming generation request and returns the
// trimmed response text. The model is asked for JSON output.
func (c *Client) Complete(ctx context.Context, p models.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	options := map[string]any{}
	if p.Temperature > 0 {
		options["temperature"] = p.Temperature
	}
	if p.MaxTokens > 0 {
		options["num_predict"] = p.MaxTokens
	}

	req := &api.GenerateRequest{
		Model:   c.model,
		System:  p.System,
		Prompt:  p.User,
		Stream:  new(bool), // false
		Format:  json.RawMessage(`"json"`),
		Options: options,
	}

	start := time.Now()
	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	slog.Debug("ollama response received",
		"model", c.model,
		"chars", len(result),
		"duration", time.Since(start))
	return result, nil
}
