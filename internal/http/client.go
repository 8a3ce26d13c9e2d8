package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request, including the response body.
const DefaultTimeout = 2 * time.Minute

// maxErrorBody limits how much of an error response is quoted in errors.
const maxErrorBody = 512

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Status, e.Body)
}

// Client wraps HTTP operations with face runtime configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - JSON encoding of requests and decoding of responses
//
// Example usage:
//
//	client := NewClient(0) // DefaultTimeout
//
//	var out swapResponse
//	err := client.PostJSON(ctx, baseURL+"/swap", swapRequest{...}, &out)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client. A timeout <= 0 uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "fooocus-batch",
	}
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 2xx (as *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "http://127.0.0.1:7870/health")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// PostJSON sends in as a JSON body and decodes the JSON response into out.
// out may be nil when the response body is not needed.
//
// Example:
//
//	var resp detectResponse
//	err := client.PostJSON(ctx, baseURL+"/detect", detectRequest{Image: b64}, &resp)
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: msg}
	}

	return body, nil
}
