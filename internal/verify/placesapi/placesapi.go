// Package placesapi implements the Google-Places/Foursquare verifier
// variant: same matching rule, different backing provider.
package placesapi

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/5n10/domain-lead-pipeline/internal/clients/placesclient"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

// pacingInterval is the minimum gap between consecutive provider calls.
const pacingInterval = 150 * time.Millisecond

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "for": true,
	"at": true, "in": true, "on": true, "to": true, "llc": true, "inc": true,
	"ltd": true, "co": true,
}

var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Verifier queries a parameterized place-search provider and accepts a
// result only when its name sufficiently overlaps the business name.
type Verifier struct {
	source string
	client *placesclient.Client
	lastAt time.Time
}

// New builds a Verifier for source ("google_places" or "foursquare") against
// an already-configured client.
func New(source string, client *placesclient.Client) *Verifier {
	return &Verifier{source: source, client: client}
}

// Source identifies this verifier's raw keys.
func (v *Verifier) Source() string { return v.source }

// Run builds a text query from the business's name and address/city, fetches
// up to one candidate with location bias when available, and accepts it only
// if at least half of the business name's significant words appear in the
// candidate's name.
func (v *Verifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	v.pace()

	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return verify.Outcome{Source: v.source, Verdict: verify.VerdictError}, nil
	}
	name := *b.Name
	query := name
	if b.Address != nil && *b.Address != "" {
		query = name + " " + *b.Address
	} else if city, ok := b.Raw["city"].(string); ok && city != "" {
		query = name + " " + city
	}

	place, ok, err := v.client.FindBestMatch(ctx, query, b.Lat, b.Lon)
	if err != nil {
		if err == placesclient.ErrRateLimited {
			return verify.Outcome{Source: v.source, Verdict: verify.VerdictError}, nil
		}
		return verify.Outcome{Source: v.source, Verdict: verify.VerdictError}, nil
	}
	if !ok {
		return verify.Outcome{Source: v.source, Verdict: verify.VerdictNoMatch}, nil
	}

	if !namesOverlap(name, place.Name) {
		return verify.Outcome{Source: v.source, Verdict: verify.VerdictPoorMatch}, nil
	}

	if place.WebsiteURL == "" {
		return verify.Outcome{Source: v.source, Verdict: verify.VerdictNoWebsite}, nil
	}
	return verify.Outcome{Source: v.source, Verdict: verify.VerdictHasWebsite, WebsiteURL: place.WebsiteURL}, nil
}

// pace sleeps out the remainder of pacingInterval since the last call, so
// successive Run calls from a sequential batch loop don't burst the provider.
func (v *Verifier) pace() {
	if v.lastAt.IsZero() {
		v.lastAt = time.Now()
		return
	}
	elapsed := time.Since(v.lastAt)
	if elapsed < pacingInterval {
		time.Sleep(pacingInterval - elapsed)
	}
	v.lastAt = time.Now()
}

// namesOverlap requires at least half of the business name's significant
// words to appear among the result name's words.
func namesOverlap(businessName, resultName string) bool {
	want := significantWords(businessName)
	if len(want) == 0 {
		return false
	}
	have := map[string]bool{}
	for _, w := range significantWords(resultName) {
		have[w] = true
	}
	matches := 0
	for _, w := range want {
		if have[w] {
			matches++
		}
	}
	return float64(matches)/float64(len(want)) >= 0.5
}

func significantWords(name string) []string {
	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(name), " ")
	var out []string
	for _, w := range strings.Fields(normalized) {
		if len(w) >= 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}
