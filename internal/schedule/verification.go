package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// verificationJobName is the job_runs row name for a tight verification
// cycle, distinct from pipelineJobName since the two loops run independently.
const verificationJobName = "verification_cycle"

// runVerificationLoop runs a tight cycle over the verifier layers (never the
// API verifiers, which are pipeline-only), rescoring anything touched, and
// paces itself by whether the cycle did any work at all.
func (s *Scheduler) runVerificationLoop(ctx context.Context) {
	defer close(s.verificationDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopVerification:
			return
		default:
		}

		settings := s.snapshot()
		didWork, err := s.runVerificationCycle(ctx, settings)
		if err != nil {
			s.log.WithField("error", err).Error("verification cycle failed")
		}

		sleep := time.Duration(settings.PauseBetweenBatchSeconds) * time.Second
		if !didWork {
			sleep = time.Duration(settings.PauseWhenIdleSeconds) * time.Second
		}
		if sleep <= 0 {
			sleep = 5 * time.Second
		}
		if !s.sleepOrStop(sleep, s.stopVerification) {
			return
		}
	}
}

// runVerificationCycle runs every verifier layer once, rescoring any
// touched business, and reports whether any verifier processed at least one
// business. Each verifier call is isolated: a failing source is logged and
// skipped, never stopping the cycle. Records a JobRun row with the cycle's
// outcome.
func (s *Scheduler) runVerificationCycle(ctx context.Context, settings Settings) (bool, error) {
	jobs := store.NewJobStore(s.collab.DB.DB)
	run, jobErr := jobs.Start(ctx, verificationJobName, store.GlobalScope)
	if jobErr != nil {
		s.log.WithField("error", jobErr).Error("record verification job start failed")
	}

	didWork, processed, err := s.runVerificationCycleInner(ctx, settings)

	if jobErr == nil {
		if err != nil {
			if failErr := jobs.Fail(ctx, run.ID, processed, err); failErr != nil {
				s.log.WithField("error", failErr).Error("record verification job failure failed")
			}
		} else if completeErr := jobs.Complete(ctx, run.ID, processed, store.JSONMap{}); completeErr != nil {
			s.log.WithField("error", completeErr).Error("record verification job completion failed")
		}
	}
	return didWork, err
}

func (s *Scheduler) runVerificationCycleInner(ctx context.Context, settings Settings) (bool, int, error) {
	touched := map[uuid.UUID]store.Business{}

	for _, v := range s.collab.VerifierLayers {
		if s.stopped(s.stopVerification) {
			break
		}
		if err := s.runVerifierStage(ctx, v, settings, touched); err != nil {
			s.log.WithField("source", v.Source()).WithField("error", err).Error("verifier layer failed")
		}
	}

	if len(touched) == 0 {
		return false, 0, nil
	}

	businesses := make([]store.Business, 0, len(touched))
	for _, b := range touched {
		businesses = append(businesses, b)
	}
	if _, err := s.collab.ScoreRunner.RunFor(ctx, businesses); err != nil {
		return true, len(touched), err
	}
	return true, len(touched), nil
}
