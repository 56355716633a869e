// Package httpprobe performs the domain classifier's concurrent multi-scheme
// HTTP(+TCP) liveness probe.
package httpprobe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// BrowserUA is the realistic desktop-browser user agent probes present, so
// servers that block obvious bot UAs still answer.
const BrowserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config tunes probe timeouts, the body cap and which TCP ports are tried;
// the hosts (apex, www) and schemes (https, http) Sweep tries are fixed.
type Config struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	MaxBodyBytes   int64
	TCPPorts       []int
}

// Result is the winning probe outcome, or the zero value if every attempt failed.
type Result struct {
	Succeeded  bool
	URL        string
	FinalURL   string
	StatusCode int
	Body       string // up to MaxBodyBytes, text responses only
}

// Client fires the classifier's concurrent GET sweep and the optional TCP probe.
type Client struct {
	cfg Config
	hc  *http.Client
}

// New builds a Client. Zero-valued fields in cfg fall back to the
// classifier's default budget (~2s connect, ~10s total, 200KB body cap).
func New(cfg Config) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 2 * time.Second
	}
	if cfg.TotalTimeout <= 0 {
		cfg.TotalTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 200 * 1024
	}
	if len(cfg.TCPPorts) == 0 {
		cfg.TCPPorts = []int{80, 443}
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // the classifier races schemes/hosts itself; no inner retry
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.TotalTimeout
	rc.HTTPClient.Transport = &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}

	return &Client{cfg: cfg, hc: rc.StandardClient()}
}

// Sweep races a GET against every (scheme, host) combination in
// {https, http} x {apex, www} and returns the first success. A 5xx response
// is treated as a failure for that attempt, not a terminal error.
func (c *Client) Sweep(ctx context.Context, apex string) Result {
	hosts := []string{apex, "www." + apex}
	schemes := []string{"https", "http"}

	type attempt struct {
		scheme, host string
	}
	var attempts []attempt
	for _, scheme := range schemes {
		for _, host := range hosts {
			attempts = append(attempts, attempt{scheme, host})
		}
	}

	resultCh := make(chan Result, len(attempts))
	sweepCtx, cancel := context.WithTimeout(ctx, c.cfg.TotalTimeout)
	defer cancel()

	for _, a := range attempts {
		go func(scheme, host string) {
			resultCh <- c.fetch(sweepCtx, fmt.Sprintf("%s://%s", scheme, host))
		}(a.scheme, a.host)
	}

	for range attempts {
		select {
		case r := <-resultCh:
			if r.Succeeded {
				return r
			}
		case <-sweepCtx.Done():
			return Result{}
		}
	}
	return Result{}
}

func (c *Client) fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}
	}
	req.Header.Set("User-Agent", BrowserUA)

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	text := ""
	if ct := resp.Header.Get("Content-Type"); ct == "" || strings.Contains(ct, "text") || strings.Contains(ct, "html") {
		text = string(body)
	}

	return Result{
		Succeeded:  true,
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       text,
	}
}

// TCPOpen tries each configured port on host, returning true on the first
// successful connection.
func (c *Client) TCPOpen(ctx context.Context, host string) bool {
	for _, port := range c.cfg.TCPPorts {
		d := net.Dialer{Timeout: c.cfg.ConnectTimeout}
		conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}

