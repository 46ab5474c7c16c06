// Package webfetch provides a client for the page text-extraction provider.
package webfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Request describes one fetch call.
type Request struct {
	URL         string `json:"url"`
	ExtractMode string `json:"extractMode,omitempty"`
	MaxChars    int    `json:"maxChars,omitempty"`
}

// Details wraps the extracted content.
type Details struct {
	Content string `json:"content"`
}

// Response is the provider response envelope.
type Response struct {
	Details Details `json:"details"`
}

// Client fetches page text.
type Client interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a web-fetch client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://r.jina.ai",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Execute(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fetch", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: create request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("webfetch: status %d: %s", resp.StatusCode, string(body))
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "webfetch: unmarshal response")
	}
	return &result, nil
}
