package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/mcp-workbench/internal/common"
)

// maxResponseSize caps response bodies to prevent OOM from unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// Client issues manifest and call requests against one tool server.
// It carries no session state; callers build one per request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *common.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for baseURL. One trailing slash is stripped.
// No request timeout is applied; cancel through the context instead.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.NewSilentLogger()
	}
	return c
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchManifest retrieves the tool catalog.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	resp, body, err := c.do(ctx, http.MethodGet, ManifestPath, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{
			Op:         OpManifest,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// CallTool invokes name with args. Non-2xx responses return a *StatusError
// carrying the raw response body.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	payload, err := json.Marshal(NewCallRequest(name, args))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, body, err := c.do(ctx, http.MethodPost, CallPath, payload)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{
			Op:         OpCall,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(body),
		}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode call result: invalid JSON body")
	}

	result := &CallResult{
		Raw:        json.RawMessage(body),
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Content []Content `json:"content"`
			IsError bool      `json:"isError"`
		}
		// The envelope is advisory; an unexpected shape still yields Raw.
		if json.Unmarshal(trimmed, &envelope) == nil {
			result.Content = envelope.Content
			result.IsError = envelope.IsError
		}
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	c.logger.Debug().Str("method", method).Str("path", path).Msg("tool server request")

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Warn().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("tool server request failed")
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("tool server response")

	return resp, body, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// statusText returns the reason phrase of the response status line.
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
