package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// BatchResult reports what one RunBatch call did.
type BatchResult struct {
	Processed []store.Business // businesses whose raw was updated, for the caller to rescore
	RanCount  int
}

// RunBatch fetches up to limit businesses still needing v's source, runs v
// on each, and merges the outcome into the business's raw map. A verifier
// that returns an error for one business is logged and skipped, not fatal to
// the batch, except ErrBatchAborted (raised by verifiers that detect
// sustained rate-limiting) which stops the batch early without error.
func RunBatch(ctx context.Context, db *store.Store, v Verifier, minScore, limit int, log *logging.Logger) (BatchResult, error) {
	if log == nil {
		log = logging.NewDefault("verify")
	}
	businessStore := store.NewBusinessStore(db.DB)

	candidates, err := businessStore.ListNeedingVerifier(ctx, v.Source(), minScore, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list businesses needing %s: %w", v.Source(), err)
	}

	result := BatchResult{}
	for _, b := range candidates {
		outcome, err := v.Run(ctx, b)
		if err != nil {
			if errors.Is(err, ErrBatchAborted) {
				log.WithField("source", v.Source()).Warn("verifier aborted batch early")
				break
			}
			log.WithField("source", v.Source()).WithField("business_id", b.ID).WithField("error", err).Error("verifier run failed")
			continue
		}

		patch := ApplyOutcome(outcome)
		var websiteURL *string
		if outcome.Verdict == VerdictHasWebsite && outcome.WebsiteURL != "" {
			websiteURL = &outcome.WebsiteURL
		}
		if err := businessStore.UpdateRaw(ctx, b.ID, patch, websiteURL, true); err != nil {
			log.WithField("source", v.Source()).WithField("business_id", b.ID).WithField("error", err).Error("update business raw")
			continue
		}
		result.Processed = append(result.Processed, b)
		result.RanCount++
	}
	return result, nil
}

// ErrBatchAborted signals that a verifier stopped processing its batch early
// (e.g. after a run of consecutive rate-limit responses) without failing the
// businesses it never got to.
var ErrBatchAborted = errors.New("verify: batch aborted")
