// Package llmsearch verifies business web presence by fetching meta-search
// context and asking a configured LLM provider to classify it.
package llmsearch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/5n10/domain-lead-pipeline/internal/clients/llmclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/searchclient"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

const sourceName = "llm"

const searchContextSize = 15

// maxConsecutiveRateLimits aborts the remainder of a batch once every
// provider has rate-limited this many businesses in a row, rather than
// retrying every remaining business only to fail the same way.
const maxConsecutiveRateLimits = 5

// Verifier fetches search context, builds the deterministic prompt, and asks
// an LLM provider to classify web presence.
type Verifier struct {
	search *searchclient.Client
	llm    *llmclient.Client

	mu                sync.Mutex
	consecutiveLimits int
	aborted           bool
}

// New builds a Verifier against already-configured search and LLM clients.
func New(search *searchclient.Client, llm *llmclient.Client) *Verifier {
	return &Verifier{search: search, llm: llm}
}

// Source identifies this verifier's raw keys.
func (v *Verifier) Source() string { return sourceName }

// Run fetches search context for b, builds the prompt, and classifies it.
// Once the provider pool has rate-limited maxConsecutiveRateLimits businesses
// in a row, Run short-circuits to VerdictError without calling out again,
// and returns verify.ErrBatchAborted so the caller's batch loop can stop early.
func (v *Verifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	v.mu.Lock()
	if v.aborted {
		v.mu.Unlock()
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, verify.ErrBatchAborted
	}
	v.mu.Unlock()

	if b.Name == nil || strings.TrimSpace(*b.Name) == "" {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, nil
	}
	name := *b.Name
	city, _ := b.Raw["city"].(string)
	country, _ := b.Raw["country"].(string)

	query := name
	if city != "" {
		query = name + " " + city
	}
	results, err := v.search.Search(ctx, query, searchContextSize)
	if err != nil {
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, nil
	}

	searchContext := make([]string, 0, len(results))
	for _, r := range results {
		searchContext = append(searchContext, fmt.Sprintf("%s | %s | %s", r.Title, r.URL, r.Content))
	}
	prompt := llmclient.BuildPrompt(name, city, country, searchContext)

	verdict, err := v.llm.Classify(ctx, prompt)
	if err != nil {
		if err == llmclient.ErrRateLimited {
			return v.recordRateLimit(), nil
		}
		v.resetStreak()
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}, nil
	}
	v.resetStreak()

	return outcomeFromVerdict(verdict), nil
}

func (v *Verifier) recordRateLimit() verify.Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.consecutiveLimits++
	if v.consecutiveLimits >= maxConsecutiveRateLimits {
		v.aborted = true
	}
	return verify.Outcome{Source: sourceName, Verdict: verify.VerdictError}
}

func (v *Verifier) resetStreak() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.consecutiveLimits = 0
}

func outcomeFromVerdict(verdict llmclient.Verdict) verify.Outcome {
	switch verdict.Status {
	case "has_website":
		return verify.Outcome{
			Source:     sourceName,
			Verdict:    verify.VerdictHasWebsite,
			WebsiteURL: verdict.WebsiteURL,
			Extra:      map[string]any{"llm_reason": verdict.Reason},
		}
	case "no_website":
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNoWebsite, Extra: map[string]any{"llm_reason": verdict.Reason}}
	default:
		return verify.Outcome{Source: sourceName, Verdict: verify.VerdictNotSure, Extra: map[string]any{"llm_reason": verdict.Reason}}
	}
}
