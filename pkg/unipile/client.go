// Package unipile provides a client for the Unipile LinkedIn API.
package unipile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.unipile.com/v1"

// Client defines the LinkedIn collaborator operations the pipeline consumes.
type Client interface {
	SearchTalent(ctx context.Context, params SearchParams) (*SearchResult, error)
	GetUserProfile(ctx context.Context, providerID string) (*Profile, error)
	GetUserPosts(ctx context.Context, providerID string) (*ActivityPage, error)
	GetUserComments(ctx context.Context, providerID string) (*ActivityPage, error)
	GetUserReactions(ctx context.Context, providerID string) (*ActivityPage, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type httpClient struct {
	apiKey    string
	accountID string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a new Unipile client bound to a LinkedIn account.
func NewClient(apiKey, accountID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		accountID: accountID,
		baseURL:   defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "unipile: rate limiter")
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "unipile: marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "unipile: create request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "unipile: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "unipile: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return &apiError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unipile: unmarshal response")
	}
	return nil
}

func (c *httpClient) SearchTalent(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.AccountID == "" {
		params.AccountID = c.accountID
	}
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, "/linkedin/search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) GetUserProfile(ctx context.Context, providerID string) (*Profile, error) {
	var p Profile
	path := fmt.Sprintf("/users/%s?account_id=%s", url.PathEscape(providerID), url.QueryEscape(c.accountID))
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *httpClient) GetUserPosts(ctx context.Context, providerID string) (*ActivityPage, error) {
	return c.activity(ctx, providerID, "posts")
}

func (c *httpClient) GetUserComments(ctx context.Context, providerID string) (*ActivityPage, error) {
	return c.activity(ctx, providerID, "comments")
}

func (c *httpClient) GetUserReactions(ctx context.Context, providerID string) (*ActivityPage, error) {
	return c.activity(ctx, providerID, "reactions")
}

func (c *httpClient) activity(ctx context.Context, providerID, kind string) (*ActivityPage, error) {
	var page ActivityPage
	path := fmt.Sprintf("/users/%s/%s?account_id=%s", url.PathEscape(providerID), kind, url.QueryEscape(c.accountID))
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// apiError carries the HTTP status for classification.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("unipile: status %d: %s", e.StatusCode, e.Body)
}
