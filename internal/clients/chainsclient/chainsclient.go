// Package chainsclient loads the Wikidata-sourced set of known business
// chain/franchise names the scorer uses to zero out businesses that
// definitely have a corporate website.
package chainsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/5n10/domain-lead-pipeline/internal/scoring"
)

const defaultEndpoint = "https://query.wikidata.org/sparql"

// sparqlQuery selects English labels for instances of "chain store" (Q507619)
// or "franchise" (Q126793).
const sparqlQuery = `
SELECT DISTINCT ?label WHERE {
  { ?item wdt:P31 wd:Q507619 . }
  UNION
  { ?item wdt:P31 wd:Q126793 . }
  ?item rdfs:label ?label .
  FILTER(LANG(?label) = "en")
}`

type sparqlResponse struct {
	Results struct {
		Bindings []struct {
			Label struct {
				Value string `json:"value"`
			} `json:"label"`
		} `json:"bindings"`
	} `json:"results"`
}

// Client fetches the chain-name set from a Wikidata-shaped SPARQL endpoint.
type Client struct {
	endpoint string
	hc       *http.Client
}

// New builds a Client against the public Wikidata SPARQL endpoint, with a
// 30s timeout matching the budget chain-list loading has always used. An
// empty endpoint falls back to the public default.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.Logger = nil
	rc.HTTPClient.Timeout = 30 * time.Second
	return &Client{endpoint: endpoint, hc: rc.StandardClient()}
}

// Fetch queries the endpoint and returns the lowercased chain-name set. A
// non-2xx response or decode failure yields an empty set, never an error:
// the scorer treats "no chain data" as "nothing matches", not a hard stop.
func (c *Client) Fetch(ctx context.Context) scoring.ChainSet {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return scoring.ChainSet{}
	}
	q := u.Query()
	q.Set("query", sparqlQuery)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return scoring.ChainSet{}
	}
	req.Header.Set("User-Agent", "domain-lead-pipeline/0.1")

	resp, err := c.hc.Do(req)
	if err != nil {
		return scoring.ChainSet{}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return scoring.ChainSet{}
	}

	var out sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return scoring.ChainSet{}
	}

	names := make(scoring.ChainSet, len(out.Results.Bindings))
	for _, b := range out.Results.Bindings {
		v := strings.ToLower(strings.TrimSpace(b.Label.Value))
		if v != "" {
			names[v] = true
		}
	}
	return names
}

// Cache lazily loads the chain set once per process and never reloads it
// afterward, matching the "immutable after first load" guard the rest of
// the system relies on for this global.
type Cache struct {
	client *Client
	once   sync.Once
	chains scoring.ChainSet
}

// NewCache builds a Cache over client.
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached chain set, fetching it on first call.
func (c *Cache) Get(ctx context.Context) scoring.ChainSet {
	c.once.Do(func() {
		c.chains = c.client.Fetch(ctx)
	})
	return c.chains
}
