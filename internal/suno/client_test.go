package suno

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:      "test-key",
		APIURL:      server.URL,
		CallbackURL: "http://localhost:8080/suno/callback",
	})
	require.NoError(t, err)
	return client
}

func TestClient_Generate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "calm piano", req.Prompt)
		require.True(t, req.Instrumental)
		require.Equal(t, "http://localhost:8080/suno/callback", req.CallbackURL)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"task_id": "abc123"},
		})
	})

	taskID, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:       "calm piano",
		Instrumental: true,
	})
	require.NoError(t, err)
	require.Equal(t, "abc123", taskID)
}

func TestClient_GenerateWithoutTaskID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"msg": "quota exceeded"})
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no task id")
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/status", r.URL.Path)
		require.Equal(t, "a,b", r.URL.Query().Get("ids"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"task_id": "a", "status": "complete", "clips": []map[string]any{{"id": "c1", "title": "Song A"}}},
				{"task_id": "b", "status": "processing"},
			},
		})
	})

	entries, err := client.Status(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Complete())
	require.False(t, entries[1].Complete())
}

func TestClient_StatusEmptyBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty batch")
	})

	entries, err := client.Status(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestClient_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.Status(context.Background(), []string{"a"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestNewClient_RequiresKeyAndURL(t *testing.T) {
	_, err := NewClient(Config{APIURL: "http://x"})
	require.Error(t, err)

	_, err = NewClient(Config{APIKey: "k"})
	require.Error(t, err)
}
