package wait

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/emotune/emotune/internal/notify"
)

// SSESource awaits completions over the server's /events stream.
type SSESource struct {
	BaseURL string
	Client  *http.Client
}

func (s *SSESource) httpClient() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

// Await opens the event stream for ids and returns the first complete event.
// The connection has no timeout of its own; the Waiter bounds it through ctx.
func (s *SSESource) Await(ctx context.Context, ids []string) (notify.Record, error) {
	endpoint := strings.TrimSuffix(s.BaseURL, "/") + "/events?clipIds=" + url.QueryEscape(strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return notify.Record{}, fmt.Errorf("create events request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return notify.Record{}, fmt.Errorf("open event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return notify.Record{}, fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	rec, err := readCompleteEvent(resp.Body)
	if err != nil {
		return notify.Record{}, err
	}
	return rec, nil
}

// readCompleteEvent scans SSE frames until the first "complete" event.
// Comment lines (keep-alives) are skipped.
func readCompleteEvent(r io.Reader) (notify.Record, error) {
	scanner := bufio.NewScanner(r)

	event := ""
	data := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "complete" && data != "" {
				var rec notify.Record
				if err := json.Unmarshal([]byte(data), &rec); err != nil {
					return notify.Record{}, fmt.Errorf("decode event payload: %w", err)
				}
				return rec, nil
			}
			event, data = "", ""
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return notify.Record{}, fmt.Errorf("read event stream: %w", err)
	}
	return notify.Record{}, fmt.Errorf("event stream closed before a complete event")
}

// StatusPoller polls the server's /status reconciliation endpoint.
type StatusPoller struct {
	BaseURL string
	Client  *http.Client
}

func (p *StatusPoller) httpClient() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *StatusPoller) Poll(ctx context.Context, ids []string) ([]notify.Record, []string, error) {
	endpoint := strings.TrimSuffix(p.BaseURL, "/") + "/status?ids=" + url.QueryEscape(strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create status request: %w", err)
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("query status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var ret struct {
		Found   []notify.Record `json:"found"`
		Pending []string        `json:"pending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, nil, fmt.Errorf("decode status response: %w", err)
	}
	return ret.Found, ret.Pending, nil
}
