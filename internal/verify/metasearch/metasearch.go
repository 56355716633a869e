// Package metasearch verifies business web presence by querying an
// operator-provided meta-search aggregator and matching results against the
// business name.
package metasearch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/5n10/domain-lead-pipeline/internal/clients/searchclient"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
	"github.com/5n10/domain-lead-pipeline/internal/verify/directory"
)

const sourceName = "searxng"

const maxResultsConsidered = 20

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "for": true,
	"at": true, "in": true, "on": true, "to": true, "llc": true, "inc": true,
	"ltd": true, "co": true,
}

var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// articlePathPattern flags blog/news/article URL shapes: a year segment or an
// explicit blog/news/article/press segment. isArticlePath adds the deep-path
// and long-hyphenated-slug checks.
var articlePathPattern = regexp.MustCompile(`/(19|20)\d{2}/|/(blog|news|article|articles|press)/`)

// Verifier queries a meta-search endpoint and matches results against a
// business's name.
type Verifier struct {
	search *searchclient.Client
}

// New builds a Verifier against an already-configured search client.
func New(search *searchclient.Client) *Verifier {
	return &Verifier{search: search}
}

// Source identifies this verifier's raw keys.
func (v *Verifier) Source() string { return sourceName }

// Run queries "<name> <city>" and applies the domain-match-then-title-match
// passes in order.
func (v *Verifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoWebsite}, nil
	}
	name := *b.Name
	query := name
	if city, ok := b.Raw["city"].(string); ok && city != "" {
		query = name + " " + city
	}

	results, err := v.search.Search(ctx, query, maxResultsConsidered)
	if err != nil {
		if err == searchclient.ErrRateLimited {
			return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, nil
		}
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, nil
	}
	if len(results) == 0 {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoResults}, nil
	}

	words := significantWords(name)

	// Pass 1: strong domain-name match.
	for _, r := range results {
		host, rootURL, ok := rootOf(r.URL)
		if !ok || directory.IsListing(host) {
			continue
		}
		if domainMatchesName(host, words) {
			return verify.Outcome{Source: sourceName, Verdict: verify.VerdictHasWebsite, WebsiteURL: rootURL}, nil
		}
	}

	// Pass 2: strict title match, root URLs only, 2+ word names only.
	if len(words) >= 2 {
		for _, r := range results {
			host, rootURL, ok := rootOf(r.URL)
			if !ok || directory.IsListing(host) || !isRootURL(r.URL) || isArticlePath(r.URL) {
				continue
			}
			if titleMatchesName(r.Title, words) {
				return verify.Outcome{Source: sourceName, Verdict: verify.VerdictHasWebsite, WebsiteURL: rootURL}, nil
			}
		}
	}

	return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoWebsite}, nil
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

// domainMatchesName applies the tight containment rule: full substring,
// 2-word overlap, or a single distinctive (>=7 char) word match.
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

// titleMatchesName requires >=2 shared words and >=60% word overlap against
// the business name's significant words.
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
	overlap := float64(shared) / float64(len(words))
	return overlap >= 0.6
}

func rootOf(rawURL string) (host, root string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	return u.Host, fmt.Sprintf("%s://%s/", u.Scheme, u.Host), true
}

func isRootURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.Trim(u.Path, "/")
	return path == ""
}

func isArticlePath(rawURL string) bool {
	if articlePathPattern.MatchString(strings.ToLower(rawURL)) {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) >= 3 {
		return true
	}
	for _, seg := range segments {
		if strings.Count(seg, "-") >= 4 {
			return true
		}
	}
	return false
}
