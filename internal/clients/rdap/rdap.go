// Package rdap fetches and parses RDAP domain lookups.
package rdap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Response is a minimal RDAP domain record: only what the registrar lookup needs.
type Response struct {
	Entities []Entity `json:"entities"`
}

// Entity is one vcard-bearing RDAP entity (registrar, registrant, ...).
type Entity struct {
	Roles      []string `json:"roles"`
	VCardArray []any    `json:"vcardArray"`
}

// Result is one RDAP lookup's outcome.
type Result struct {
	StatusCode int // 0 if the request never completed (transport error)
	Data       *Response
}

// Client issues RDAP GETs against a single configured base URL.
type Client struct {
	BaseURL string
	hc      *http.Client
}

// New builds a Client. baseURL is the RDAP service root, e.g. "https://rdap.org/domain".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), hc: rc.StandardClient()}
}

// Fetch performs GET {base}/{domain}. A non-2xx status is recorded, never
// treated as a registration signal by itself: many ccTLD registries have no
// public RDAP service and 404 there is not evidence of non-registration.
func (c *Client) Fetch(ctx context.Context, domain string) (Result, error) {
	url := fmt.Sprintf("%s/%s", c.BaseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build rdap request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, nil // transport failure: recorded by caller as a diagnostic, not fatal
	}
	defer resp.Body.Close()

	result := Result{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, nil
	}

	var data Response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return result, nil // malformed body: treated as transient, not fatal
	}
	result.Data = &data
	return result, nil
}

// Registrar returns the "fn" (formatted name) field of the first entity
// whose roles include "registrar", per the vCard jCard array shape RDAP uses.
func Registrar(resp *Response) string {
	if resp == nil {
		return ""
	}
	for _, e := range resp.Entities {
		if !containsRole(e.Roles, "registrar") {
			continue
		}
		if len(e.VCardArray) < 2 {
			continue
		}
		props, ok := e.VCardArray[1].([]any)
		if !ok {
			continue
		}
		for _, p := range props {
			item, ok := p.([]any)
			if !ok || len(item) < 4 {
				continue
			}
			name, _ := item[0].(string)
			if name != "fn" {
				continue
			}
			if val, ok := item[3].(string); ok {
				return val
			}
		}
	}
	return ""
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
