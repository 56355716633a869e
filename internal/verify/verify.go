// Package verify defines the shared verifier contract every single-source,
// fails-in-isolation verifier implements, plus the directory/social domain
// filter they all consult.
package verify

import (
	"context"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// Verdict is the closed enum every verifier returns.
type Verdict string

const (
	VerdictHasWebsite   Verdict = "has_website"
	VerdictNoWebsite    Verdict = "no_website"
	VerdictNoMatch      Verdict = "no_match"
	VerdictPoorMatch    Verdict = "poor_match"
	VerdictNoCandidates Verdict = "no_candidates"
	VerdictNoResults    Verdict = "no_results"
	VerdictNotSure      Verdict = "not_sure"
	VerdictBlocked      Verdict = "blocked"
	VerdictError        Verdict = "error"
)

// Outcome is one verifier run's result for one business.
type Outcome struct {
	Source     string
	Verdict    Verdict
	WebsiteURL string // set only on VerdictHasWebsite
	Extra      map[string]any
}

// Verifier is the contract every single-source verifier implements: given a
// business, produce exactly one verdict, never raising for ordinary
// provider failure (those become VerdictError/VerdictBlocked).
type Verifier interface {
	// Source is the "<source>" key stamped into raw as "<source>_verified"/"<source>_result".
	Source() string
	Run(ctx context.Context, b store.Business) (Outcome, error)
}

// ApplyOutcome stamps an Outcome into a business's raw patch the way every
// verifier's contract requires: "<source>_verified": true, "<source>_result":
// verdict, plus any extras. The patch does not touch scored_at; RunBatch
// resets it through UpdateRaw so the business re-scores.
func ApplyOutcome(o Outcome) store.JSONMap {
	patch := store.JSONMap{
		o.Source + "_verified": true,
		o.Source + "_result":   string(o.Verdict),
	}
	for k, v := range o.Extra {
		patch[k] = v
	}
	return patch
}
