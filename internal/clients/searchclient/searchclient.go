// Package searchclient queries an operator-provided meta-search aggregator
// (SearXNG-shaped JSON) on behalf of the meta-search and LLM-over-search
// verifiers.
package searchclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/5n10/domain-lead-pipeline/internal/clients/ratelimit"
)

// searchRatePerSecond paces calls to the operator's meta-search aggregator,
// which is typically a single self-hosted SearXNG instance with no API quota
// of its own to lean on.
const searchRatePerSecond = 2

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type response struct {
	Results []Result `json:"results"`
}

// Client queries a single configured meta-search endpoint.
type Client struct {
	BaseURL string
	hc      *http.Client
	limiter *ratelimit.Limiter
}

// New builds a Client against baseURL (e.g. a local SearXNG instance's
// "/search" endpoint). Timeout defaults to the 10s the search path is
// budgeted.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	return &Client{BaseURL: baseURL, hc: rc.StandardClient(), limiter: ratelimit.New(searchRatePerSecond, searchRatePerSecond)}
}

// Search issues one query and returns up to maxResults hits.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for search rate limiter: %w", err)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if maxResults > 0 && len(out.Results) > maxResults {
		out.Results = out.Results[:maxResults]
	}
	return out.Results, nil
}

// ErrRateLimited signals a 429 so callers can track consecutive-rate-limit
// streaks and abort their batch early.
var ErrRateLimited = fmt.Errorf("searchclient: rate limited")
