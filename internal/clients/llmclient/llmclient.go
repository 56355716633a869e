// Package llmclient calls an operator-configured LLM provider with the
// deterministic, JSON-shaped prompt the LLM-over-search verifier builds.
// The concrete provider (OpenAI-compatible endpoint, local model server,
// etc.) is supplied by the operator; this package only fixes the contract.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/5n10/domain-lead-pipeline/internal/clients/ratelimit"
)

// llmRatePerSecond paces provider calls; LLM backends bill per token and
// throttle far more aggressively than a search or places API would.
const llmRatePerSecond = 1

// Verdict is the LLM's structured answer.
type Verdict struct {
	Status     string `json:"status"` // has_website | no_website | not_sure
	WebsiteURL string `json:"website_url,omitempty"`
	Reason     string `json:"reason"`
}

// Provider is one configured LLM backend, tried in the order Client lists them.
type Provider struct {
	Name       string
	Endpoint   string
	APIKey     string
	Model      string
}

// Client tries each configured provider in order until one answers.
type Client struct {
	providers []Provider
	hc        *http.Client
	limiter   *ratelimit.Limiter
}

// New builds a Client. providers is tried in the given order; the first to
// respond successfully wins.
func New(providers []Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{providers: providers, hc: &http.Client{Timeout: timeout}, limiter: ratelimit.New(llmRatePerSecond, llmRatePerSecond)}
}

// ErrRateLimited signals a 429 from every configured provider.
var ErrRateLimited = fmt.Errorf("llmclient: rate limited")

// Classify sends prompt to the first provider in preference order, retrying
// each with exponential backoff on transport failure, and parses the
// JSON-shaped verdict from its response text.
func (c *Client) Classify(ctx context.Context, prompt string) (Verdict, error) {
	var lastErr error
	rateLimitedCount := 0
	for _, p := range c.providers {
		verdict, err := c.callWithRetry(ctx, p, prompt)
		if err == nil {
			return verdict, nil
		}
		if err == ErrRateLimited {
			rateLimitedCount++
		}
		lastErr = err
	}
	if rateLimitedCount == len(c.providers) && len(c.providers) > 0 {
		return Verdict{}, ErrRateLimited
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no llm providers configured")
	}
	return Verdict{}, lastErr
}

func (c *Client) callWithRetry(ctx context.Context, p Provider, prompt string) (Verdict, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	var verdict Verdict
	err := backoff.Retry(func() error {
		v, err := c.call(ctx, p, prompt)
		if err != nil {
			if err == ErrRateLimited {
				return backoff.Permanent(err) // a 429 streak is handled by the caller, not retried here
			}
			return err
		}
		verdict = v
		return nil
	}, b)
	return verdict, err
}

func (c *Client) call(ctx context.Context, p Provider, prompt string) (Verdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Verdict{}, fmt.Errorf("wait for llm rate limiter: %w", err)
	}

	body := map[string]any{
		"model": p.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return Verdict{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("call provider %s: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Verdict{}, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verdict{}, fmt.Errorf("provider %s returned status %d", p.Name, resp.StatusCode)
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Verdict{}, fmt.Errorf("decode provider %s response: %w", p.Name, err)
	}
	if len(raw.Choices) == 0 {
		return Verdict{}, fmt.Errorf("provider %s returned no choices", p.Name)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(raw.Choices[0].Message.Content), &verdict); err != nil {
		return Verdict{}, fmt.Errorf("malformed verdict json from %s: %w", p.Name, err)
	}
	return verdict, nil
}

// BuildPrompt assembles the deterministic prompt the verifier sends: the
// business's identity, the search context, and the fixed rule set (chains
// count as has_website, directories/social are never the official site).
func BuildPrompt(businessName, city, country string, searchContext []string) string {
	var b strings.Builder
	b.WriteString("You are verifying whether a local business has an official website.\n")
	fmt.Fprintf(&b, "Business: %s", businessName)
	if city != "" {
		fmt.Fprintf(&b, ", %s", city)
	}
	if country != "" {
		fmt.Fprintf(&b, ", %s", country)
	}
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Directory listings and social media profiles are never the business's official website.\n")
	b.WriteString("- A branded chain location is treated as has_website even without a location-specific page.\n")
	b.WriteString("- Respond with strict JSON only: {\"status\": \"has_website\"|\"no_website\"|\"not_sure\", \"website_url\": \"...\", \"reason\": \"...\"}.\n\n")
	b.WriteString("Search results:\n")
	for _, r := range searchContext {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}
