package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/confidence"
	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// ChainCache supplies the process-wide, lazily loaded chain-name set. Callers
// pass *chainsclient.Cache; kept as an interface here so scoring never
// imports an HTTP client.
type ChainCache interface {
	Get(ctx context.Context) ChainSet
}

// Runner rescores businesses, writing lead_score/score_reasons/scored_at.
// The scoring decision stays in Score; Runner is the I/O shell around it.
type Runner struct {
	db     *store.Store
	loader *features.Loader
	chains ChainCache
	log    *logging.Logger
}

// NewRunner builds a Runner.
func NewRunner(db *store.Store, loader *features.Loader, chains ChainCache, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.NewDefault("scoring")
	}
	return &Runner{db: db, loader: loader, chains: chains, log: log}
}

// RunBatch scores up to limit never-scored businesses.
func (r *Runner) RunBatch(ctx context.Context, limit int) (int, error) {
	businessStore := store.NewBusinessStore(r.db.DB)

	businesses, err := businessStore.ListUnscored(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unscored businesses: %w", err)
	}
	return r.scoreAll(ctx, businessStore, businesses)
}

// RunFor rescores a specific set of businesses, used after a verifier pass
// updates their raw verdicts so lead_score reflects the new evidence.
func (r *Runner) RunFor(ctx context.Context, businesses []store.Business) (int, error) {
	businessStore := store.NewBusinessStore(r.db.DB)
	return r.scoreAll(ctx, businessStore, businesses)
}

func (r *Runner) scoreAll(ctx context.Context, businessStore *store.BusinessStore, businesses []store.Business) (int, error) {
	if len(businesses) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(businesses))
	for i, b := range businesses {
		ids[i] = b.ID
	}
	bundles, err := r.loader.Load(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load feature bundles: %w", err)
	}

	chains := r.chains.Get(ctx)

	scored := 0
	for _, b := range businesses {
		_, level := confidence.Compute(b.Raw)
		result := Score(b, bundles[b.ID], level, chains)
		if err := businessStore.SetScore(ctx, b.ID, result.Score, result.Reasons); err != nil {
			r.log.WithField("business_id", b.ID).WithField("error", err).Error("set business score")
			continue
		}
		scored++
	}
	return scored, nil
}
