package nameguess

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/5n10/domain-lead-pipeline/internal/clients/htmlutil"
	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

const sourceName = "domain_guess"

// maxConcurrentProbes bounds the per-business candidate probe fan-out.
const maxConcurrentProbes = 12

// Verifier generates and probes candidate domains for a business name.
type Verifier struct {
	http *httpprobe.Client
}

// New builds a Verifier.
func New(http *httpprobe.Client) *Verifier {
	if http == nil {
		http = httpprobe.New(httpprobe.Config{})
	}
	return &Verifier{http: http}
}

// Source identifies this verifier's raw keys.
func (v *Verifier) Source() string { return sourceName }

// Run generates candidates for b's name/country, probes them bounded-
// concurrently, and validates the first acceptable hit.
func (v *Verifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoCandidates}, nil
	}
	country := ""
	if c, ok := b.Raw["country"].(string); ok {
		country = c
	}

	candidates := Candidates(*b.Name, country)
	if len(candidates) == 0 {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoCandidates}, nil
	}

	type probeResult struct {
		candidate string
		result    httpprobe.Result
	}
	sem := make(chan struct{}, maxConcurrentProbes)
	resultCh := make(chan probeResult, len(candidates))
	var wg sync.WaitGroup

	for _, c := range candidates {
		wg.Add(1)
		go func(candidate string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			resultCh <- probeResult{candidate, v.http.Sweep(ctx, candidate)}
		}(c)
	}
	go func() { wg.Wait(); close(resultCh) }()

	var live []probeResult
	for r := range resultCh {
		if r.result.Succeeded {
			live = append(live, r)
		}
	}
	// Prefer the longest (most specific) candidate base among the live hits,
	// matching the generation order's "longer bases first" preference.
	sort.Slice(live, func(i, j int) bool { return len(live[i].candidate) > len(live[j].candidate) })

	nameWords := significantWords(*b.Name)
	for _, r := range live {
		if accepted, url := v.validate(*b.Name, r.candidate, r.result, len(nameWords)); accepted {
			return verify.Outcome{
				Source:     sourceName,
				Verdict:    verify.VerdictHasWebsite,
				WebsiteURL: url,
				Extra:      map[string]any{"domain_guess_candidate": r.candidate},
			}, nil
		}
	}
	return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoMatch}, nil
}

func (v *Verifier) validate(name, candidate string, result httpprobe.Result, nameWordCount int) (bool, string) {
	if len(result.Body) < minRealPageBytes {
		return false, ""
	}
	meta := htmlutil.Parse(result.Body)

	if IsParked(result.FinalURL, result.Body) {
		return false, ""
	}

	requestedHost := hostOf(result.URL)
	finalHost := hostOf(result.FinalURL)
	if finalHost != "" && !domainsRelated(candidate, finalHost) {
		return false, ""
	}
	// A redirect that lands on a related-but-different host (e.g. a regional
	// mirror) is accepted, but needs stronger content evidence than a page
	// reached directly at the candidate — see the redirect-stricter rule in
	// ContentRelevance.
	redirectedToRelatedHost := finalHost != "" && finalHost != requestedHost

	titleEcho := isTitleDomainEcho(meta.Title, candidate)
	if titleEcho && len(result.Body) < minRealPageBytes*4 {
		return false, ""
	}

	checkText := htmlutil.CheckText(meta, result.Body, 5*1024)
	if !ContentRelevance(name, meta.Title, meta.Description, checkText, titleEcho, redirectedToRelatedHost) {
		return false, ""
	}
	if TitleIsGenericOnly(meta.Title, nameWordCount) {
		return false, ""
	}

	return true, fmt.Sprintf("https://%s/", candidate)
}

func hostOf(rawURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	return u
}

// probeTimeout is the per-candidate budget this verifier expects of the
// httpprobe.Client it is given; nothing in the package applies it.
const probeTimeout = 5 * time.Second
