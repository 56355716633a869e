package schedule

import (
	"context"
	"fmt"

	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

// RunVerifierNow runs a single named verifier's batch immediately, outside
// either loop's own pacing, for an operator-triggered trigger from the API.
// It does not take the run lock, and listing businesses claims nothing: a
// business that a running loop has listed but not yet stamped
// "<source>_verified" can be run by both.
func (s *Scheduler) RunVerifierNow(ctx context.Context, source string) (verify.BatchResult, error) {
	v := s.findVerifier(source)
	if v == nil {
		return verify.BatchResult{}, fmt.Errorf("unknown verifier source %q", source)
	}
	settings := s.snapshot()
	cfg := settings.Verifiers[source]
	return verify.RunBatch(ctx, s.collab.DB, v, cfg.MinScore, batchSizeOrDefault(cfg.BatchSize), s.log)
}

// VerifierSources lists every verifier source this scheduler can trigger,
// in pipeline order: layered verifiers first, then per-API verifiers.
func (s *Scheduler) VerifierSources() []string {
	sources := make([]string, 0, len(s.collab.VerifierLayers)+len(s.collab.APIVerifiers))
	for _, v := range s.collab.VerifierLayers {
		sources = append(sources, v.Source())
	}
	for _, v := range s.collab.APIVerifiers {
		sources = append(sources, v.Source())
	}
	return sources
}

func (s *Scheduler) findVerifier(source string) verify.Verifier {
	for _, v := range s.collab.VerifierLayers {
		if v.Source() == source {
			return v
		}
	}
	for _, v := range s.collab.APIVerifiers {
		if v.Source() == source {
			return v
		}
	}
	return nil
}
