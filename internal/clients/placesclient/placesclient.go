// Package placesclient queries a place-search API (Google Places Text Search
// or Foursquare Places, shape fixed per Provider) for a best-match candidate.
package placesclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/5n10/domain-lead-pipeline/internal/clients/ratelimit"
)

// placesRatePerSecond paces calls to a single provider; both Google Places
// and Foursquare enforce their own per-key quotas well above this, so the
// limiter here is a floor against a misconfigured batch size, not a quota fit.
const placesRatePerSecond = 3

// Place is one candidate result.
type Place struct {
	Name       string
	WebsiteURL string
	Address    string
}

// Provider fixes one place-search API's request shape and auth.
type Provider struct {
	Name       string // "google_places" | "foursquare"
	Endpoint   string
	APIKey     string
}

// Client queries a single configured place-search provider.
type Client struct {
	provider Provider
	hc       *http.Client
	limiter  *ratelimit.Limiter
}

// New builds a Client for provider. Timeout defaults to 10s.
func New(provider Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	return &Client{provider: provider, hc: rc.StandardClient(), limiter: ratelimit.New(placesRatePerSecond, placesRatePerSecond)}
}

// ErrRateLimited signals a 429 response.
var ErrRateLimited = fmt.Errorf("placesclient: rate limited")

// FindBestMatch issues a text query with optional location bias and returns
// the single best candidate the provider returns, or ok=false if it returned
// none.
func (c *Client) FindBestMatch(ctx context.Context, query string, lat, lon *float64) (Place, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Place{}, false, fmt.Errorf("wait for places rate limiter: %w", err)
	}

	u, err := url.Parse(c.provider.Endpoint)
	if err != nil {
		return Place{}, false, fmt.Errorf("parse provider endpoint: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	if lat != nil && lon != nil {
		q.Set("ll", strconv.FormatFloat(*lat, 'f', 6, 64)+","+strconv.FormatFloat(*lon, 'f', 6, 64))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Place{}, false, fmt.Errorf("build request: %w", err)
	}
	switch c.provider.Name {
	case "foursquare":
		req.Header.Set("Authorization", c.provider.APIKey)
	default:
		req.Header.Set("X-Goog-Api-Key", c.provider.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Place{}, false, fmt.Errorf("call %s: %w", c.provider.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Place{}, false, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Place{}, false, fmt.Errorf("%s returned status %d", c.provider.Name, resp.StatusCode)
	}

	var raw struct {
		Results []struct {
			Name       string `json:"name"`
			WebsiteURL string `json:"website"`
			Address    string `json:"formatted_address"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Place{}, false, fmt.Errorf("decode %s response: %w", c.provider.Name, err)
	}
	if len(raw.Results) == 0 {
		return Place{}, false, nil
	}
	best := raw.Results[0]
	return Place{Name: best.Name, WebsiteURL: best.WebsiteURL, Address: best.Address}, true, nil
}
