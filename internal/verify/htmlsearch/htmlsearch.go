// Package htmlsearch implements the two HTML-scraping search verifiers
// (DuckDuckGo and Google result pages): no API key, just a GET against the
// engine's HTML results page and a regex-based link/title extraction, with
// the same domain/title matching rules the meta-search verifier uses.
package htmlsearch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
	"github.com/5n10/domain-lead-pipeline/internal/verify/directory"
)

// maxResultPageBytes bounds how much of a results page is read; the result
// anchors the patterns need always appear well within the first portion.
const maxResultPageBytes = 512 * 1024

// Engine fixes one HTML search engine's query URL shape and result markup.
type Engine struct {
	Source        string // "ddg" | "google_search"
	QueryURLFmt   string // e.g. "https://html.duckduckgo.com/html/?q=%s"
	ResultPattern *regexp.Regexp
	Pacing        time.Duration
}

// DuckDuckGoEngine is the DuckDuckGo HTML-results variant.
func DuckDuckGoEngine() Engine {
	return Engine{
		Source:      "ddg",
		QueryURLFmt: "https://html.duckduckgo.com/html/?q=%s",
		// DDG's lite HTML wraps each result anchor with class "result__a".
		ResultPattern: regexp.MustCompile(`(?is)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`),
		Pacing:        1500 * time.Millisecond,
	}
}

// GoogleEngine is the Google HTML-results variant.
func GoogleEngine() Engine {
	return Engine{
		Source:      "google_search",
		QueryURLFmt: "https://www.google.com/search?q=%s",
		// Google's markup churns constantly; this pattern matches any anchor
		// whose href starts with an outbound "/url?q=" redirect, which is the
		// stable part of its result markup across most layout variants.
		ResultPattern: regexp.MustCompile(`(?is)<a[^>]+href="/url\?q=([^"&]+)[^"]*"[^>]*>(.*?)</a>`),
		Pacing:        4 * time.Second,
	}
}

const maxResultsConsidered = 20
const maxConsecutiveRateLimits = 3

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "for": true,
	"at": true, "in": true, "on": true, "to": true, "llc": true, "inc": true,
	"ltd": true, "co": true,
}
var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Verifier fetches an HTML results page directly and matches results against
// the business name and (for multi-word names) the result titles.
type Verifier struct {
	engine Engine
	hc     *http.Client

	lastAt            time.Time
	consecutiveLimits int
}

// New builds a Verifier for engine.
func New(engine Engine) *Verifier {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.HTTPClient.Timeout = 10 * time.Second
	return &Verifier{engine: engine, hc: rc.StandardClient()}
}

// Source identifies this verifier's raw keys.
func (v *Verifier) Source() string { return v.engine.Source }

// Run fetches the engine's results page for "<name> <city>", and applies the
// domain-match then title-match passes shared with the meta-search verifier.
func (v *Verifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	if v.consecutiveLimits >= maxConsecutiveRateLimits {
		return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictBlocked}, nil
	}
	v.pace()

	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictNoResults}, nil
	}
	name := *b.Name
	query := name
	if city, ok := b.Raw["city"].(string); ok && city != "" {
		query = name + " " + city
	}

	pageURL := strings.Replace(v.engine.QueryURLFmt, "%s", url.QueryEscape(query), 1)

	page, statusCode, err := v.fetch(ctx, pageURL)
	if err != nil {
		return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictError}, nil
	}
	if statusCode == 429 {
		v.consecutiveLimits++
		return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictError}, nil
	}
	v.consecutiveLimits = 0

	links := extractResults(v.engine.ResultPattern, page, maxResultsConsidered)
	if len(links) == 0 {
		return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictNoResults}, nil
	}

	words := significantWords(name)

	for _, r := range links {
		host, rootURL, ok := rootOf(r.url)
		if !ok || directory.IsListing(host) {
			continue
		}
		if domainMatchesName(host, words) {
			return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictHasWebsite, WebsiteURL: rootURL}, nil
		}
	}

	if len(words) >= 2 {
		for _, r := range links {
			host, rootURL, ok := rootOf(r.url)
			if !ok || directory.IsListing(host) || !isRootURL(r.url) {
				continue
			}
			if titleMatchesName(r.title, words) {
				return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictHasWebsite, WebsiteURL: rootURL}, nil
			}
		}
	}

	return verify.Outcome{Source: v.engine.Source, Verdict: verify.VerdictNoWebsite}, nil
}

func (v *Verifier) fetch(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", httpprobe.BrowserUA)

	resp, err := v.hc.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultPageBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

func (v *Verifier) pace() {
	if v.lastAt.IsZero() {
		v.lastAt = time.Now()
		return
	}
	elapsed := time.Since(v.lastAt)
	if elapsed < v.engine.Pacing {
		time.Sleep(v.engine.Pacing - elapsed)
	}
	v.lastAt = time.Now()
}

type resultLink struct {
	url   string
	title string
}

func extractResults(pattern *regexp.Regexp, page string, max int) []resultLink {
	matches := pattern.FindAllStringSubmatch(page, max)
	out := make([]resultLink, 0, len(matches))
	for _, m := range matches {
		if len(m) < 3 {
			continue
		}
		u, err := url.QueryUnescape(m[1])
		if err != nil {
			u = m[1]
		}
		title := strings.TrimSpace(tagPattern.ReplaceAllString(m[2], ""))
		out = append(out, resultLink{url: u, title: title})
	}
	return out
}

func significantWords(name string) []string {
	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(name), " ")
	var out []string
	for _, w := range strings.Fields(normalized) {
		if len(w) >= 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func domainMatchesName(host string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	joined := strings.Join(words, "")
	label := nonWordPattern.ReplaceAllString(strings.ToLower(host), "")
	if joined != "" && strings.Contains(label, joined) {
		return true
	}
	matches := 0
	for _, w := range words {
		if strings.Contains(label, w) {
			matches++
			if len(w) >= 7 {
				return true
			}
		}
	}
	return matches >= 2
}

func titleMatchesName(title string, words []string) bool {
	titleWords := significantWords(title)
	titleSet := map[string]bool{}
	for _, w := range titleWords {
		titleSet[w] = true
	}
	shared := 0
	for _, w := range words {
		if titleSet[w] {
			shared++
		}
	}
	if shared < 2 {
		return false
	}
	return float64(shared)/float64(len(words)) >= 0.6
}

func rootOf(rawURL string) (host, root string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	return u.Host, u.Scheme + "://" + u.Host + "/", true
}

func isRootURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Trim(u.Path, "/") == ""
}

