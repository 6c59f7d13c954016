package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"sportsdb_sync/ingestion/internal/eventlog"
	"sportsdb_sync/ingestion/internal/metrics"
)

// Response bodies larger than this are rejected
const maxBodyBytes = 16 << 20

// FetchError reports a failed read from the API: transport failure,
// non-success status, or an undecodable body. StatusCode is 0 when no
// response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client is the TheSportsDB API client. It issues exactly one request per
// Fetch and never retries.
type Client struct {
	httpClient *http.Client
	userAgent  string
	events     eventlog.Sink
}

// NewClient creates a new TheSportsDB API client
func NewClient(timeout time.Duration, userAgent string, events eventlog.Sink) *Client {
	if events == nil {
		events = eventlog.Discard
	}

	return &Client{
		userAgent: userAgent,
		events:    events,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch GETs rawURL and decodes the body as a JSON object. A JSON null body
// decodes to a nil map.
func (c *Client) Fetch(ctx context.Context, rawURL string) (map[string]any, error) {
	endpoint := endpointName(rawURL)

	c.events.Record(eventlog.Info("API call initiated", "url", rawURL))
	start := time.Now()

	data, status, err := c.get(ctx, rawURL)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordAPICall(endpoint, statusLabel(status), duration.Seconds())
		c.events.Record(eventlog.Error("Failed to fetch data", err,
			"url", rawURL,
			"status", status,
			"duration", duration,
		))
		return nil, err
	}

	metrics.RecordAPICall(endpoint, "success", duration.Seconds())
	c.events.Record(eventlog.Info("API call terminated",
		"url", rawURL,
		"duration", duration,
	))

	return data, nil
}

// get performs the request and decodes the response
func (c *Client) get(ctx context.Context, rawURL string) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &FetchError{URL: rawURL, Err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        errors.Newf("API returned status %d: %s", resp.StatusCode, abbreviate(body)),
		}
	}
	if len(body) > maxBodyBytes {
		return nil, resp.StatusCode, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.Newf("response body exceeds %d bytes", maxBodyBytes)}
	}

	var data map[string]any
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, resp.StatusCode, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	return data, resp.StatusCode, nil
}

// endpointName keeps metric labels bounded: the last path element, without
// query string or API key.
func endpointName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return path.Base(u.Path)
}

func statusLabel(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return fmt.Sprintf("%d", status)
}

func abbreviate(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
