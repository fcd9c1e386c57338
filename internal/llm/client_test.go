package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiURL string) *Config {
	return &Config{
		APIKey:      "test-key",
		APIURL:      apiURL,
		Model:       "test-model",
		MaxTokens:   300,
		Temperature: 0.7,
		Timeout:     30,
		SiteURL:     "https://emotune.example.com",
		AppName:     "emotune",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	return client
}

func chatReply(content string) string {
	return `{
		"id": "test-id",
		"object": "chat.completion",
		"model": "test-model",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": ` + jsonString(content) + `},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewClient(t *testing.T) {
	config := testConfig("https://api.example.com")

	client, err := NewClient(config)
	require.NoError(t, err)
	assert.Equal(t, config, client.config)
	assert.Equal(t, config.APIURL, client.baseURL)
	assert.NotNil(t, client.httpClient)

	_, err = NewClient(&Config{}) // Missing API key
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSimpleChat_SendsSystemThenUserMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://emotune.example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "emotune", r.Header.Get("X-Title"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, Message{Role: "system", Content: "You are a music director."}, req.Messages[0])
		assert.Equal(t, Message{Role: "user", Content: "Current emotional state: joyful"}, req.Messages[1])

		_, _ = w.Write([]byte(chatReply("uplifting synthwave, 120 bpm")))
	})

	content, err := client.SimpleChat(context.Background(), "Current emotional state: joyful", "You are a music director.")
	require.NoError(t, err)
	assert.Equal(t, "uplifting synthwave, 120 bpm", content)
}

func TestSimpleChat_WithoutSystemPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(chatReply("ok")))
	})

	_, err := client.SimpleChat(context.Background(), "hello", "")
	require.NoError(t, err)
}

func TestSimpleChat_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "test-id", "choices": []}`))
	})

	_, err := client.SimpleChat(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatCompletion_ErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{
			"error": {
				"message": "Invalid API key",
				"type": "authentication_error",
				"code": "401"
			}
		}`))
	})

	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "authentication_error", apiErr.Type)
	assert.Equal(t, "401", apiErr.Code)
}

func TestChatCompletion_HTTPErrorWithoutEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig("https://api.example.com")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing api key", mutate: func(c *Config) { c.APIKey = "" }},
		{name: "missing api url", mutate: func(c *Config) { c.APIURL = "" }},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }},
		{name: "zero max tokens", mutate: func(c *Config) { c.MaxTokens = 0 }},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 2.5 }},
		{name: "temperature negative", mutate: func(c *Config) { c.Temperature = -0.1 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig("https://api.example.com")
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
