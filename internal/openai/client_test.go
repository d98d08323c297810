package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/authenticity/internal/models"
)

func completionServer(t *testing.T, content string, got *gopenai.ChatCompletionRequest, headers *http.Header) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if headers != nil {
			*headers = r.Header.Clone()
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		resp := gopenai.ChatCompletionResponse{
			Model: got.Model,
			Choices: []gopenai.ChatCompletionChoice{
				{Message: gopenai.ChatCompletionMessage{Role: gopenai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, "openai/gpt-4o", c.Name())

	c, err = New(Config{APIKey: "sk-or-test"})
	require.NoError(t, err)
	assert.Equal(t, OpenRouterModel, c.model)
	assert.Equal(t, "openrouter/openai/gpt-4o", c.Name())

	c, err = New(Config{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
}

func TestComplete(t *testing.T) {
	var got gopenai.ChatCompletionRequest
	server := completionServer(t, " {\"isAI\": false} ", &got, nil)
	defer server.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), models.Prompt{
		System:      "system prompt",
		User:        "user prompt",
		Temperature: 0.1,
		MaxTokens:   500,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"isAI": false}`, out)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, gopenai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "user prompt", got.Messages[1].Content)
	assert.Equal(t, 500, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, gopenai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestCompleteOpenRouterHeaders(t *testing.T) {
	var got gopenai.ChatCompletionRequest
	var headers http.Header
	server := completionServer(t, "{}", &got, &headers)
	defer server.Close()

	c, err := New(Config{APIKey: "sk-or-test", BaseURL: server.URL, AppURL: "https://example.org"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), models.Prompt{User: "hello"})
	require.NoError(t, err)

	assert.Equal(t, OpenRouterModel, got.Model)
	assert.Equal(t, "https://example.org", headers.Get("HTTP-Referer"))
	assert.Equal(t, appTitle, headers.Get("X-Title"))
	assert.Equal(t, "Bearer sk-or-test", headers.Get("Authorization"))
}

func TestCompleteErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
		}))
		defer server.Close()

		c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = c.Complete(context.Background(), models.Prompt{User: "hi"})
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		c, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = c.Complete(context.Background(), models.Prompt{User: "hi"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
