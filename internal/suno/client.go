package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the connection settings for the generation API.
type Config struct {
	APIKey string
	APIURL string
	// CallbackURL is where the API posts job completions.
	CallbackURL string
	// Timeout is the per-request timeout in seconds.
	Timeout int
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("suno api key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("suno api url is required")
	}
	return nil
}

// Client talks to the third-party music generation API. Thread-safe for
// concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	baseURL    string
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		config:  config,
		baseURL: strings.TrimSuffix(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

type generateResponse struct {
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
	Msg string `json:"msg"`
}

// Generate starts one generation job and returns its job id. The completion
// itself arrives later through the configured callback URL.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.config.CallbackURL
	}

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("start generation: %w", err)
	}
	if resp.Data.TaskID == "" {
		return "", fmt.Errorf("generation API returned no task id (msg: %q)", resp.Msg)
	}
	return resp.Data.TaskID, nil
}

type statusResponse struct {
	Data []StatusEntry `json:"data"`
}

// Status queries the API once for the state of every id in the batch.
func (c *Client) Status(ctx context.Context, ids []string) ([]StatusEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	path := "/api/status?ids=" + url.QueryEscape(strings.Join(ids, ","))
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
