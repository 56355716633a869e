package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/export"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

// runPipelineLoop drives full pipeline cycles, sleeping interval_seconds
// between them, until stopped.
func (s *Scheduler) runPipelineLoop(ctx context.Context) {
	defer close(s.pipelineDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopPipeline:
			return
		default:
		}

		if s.lock.TryAcquire() {
			settings := s.snapshot()
			if err := s.runPipelineCycle(ctx, settings); err != nil {
				s.log.WithField("error", err).Error("pipeline cycle failed")
				s.collab.Notify.Notify(ctx, "pipeline cycle failed", err.Error())
			}
			s.lock.Release()
		}

		sleep := time.Duration(s.snapshot().PipelineIntervalSeconds) * time.Second
		if sleep <= 0 {
			sleep = 15 * time.Minute
		}
		if !s.sleepOrStop(sleep, s.stopPipeline) {
			return
		}
	}
}

// pipelineJobName is the job_runs row name for a full pipeline cycle, so
// each run and its outcome are recorded in the database, not only in logs.
const pipelineJobName = "pipeline_cycle"

// runPipelineCycle runs one full pass: business↔domain sync, domain
// classification, role-email enrichment, contacts export, business scoring,
// every verifier layer and API verifier, a rescore of anything a verifier
// touched, then business export. The caller must already hold the run lock.
func (s *Scheduler) runPipelineCycle(ctx context.Context, settings Settings) error {
	jobs := store.NewJobStore(s.collab.DB.DB)
	run, jobErr := jobs.Start(ctx, pipelineJobName, store.GlobalScope)
	if jobErr != nil {
		s.log.WithField("error", jobErr).Error("record pipeline job start failed")
	}

	processed, err := s.runPipelineCycleInner(ctx, settings)

	if jobErr == nil {
		if err != nil {
			if failErr := jobs.Fail(ctx, run.ID, processed, err); failErr != nil {
				s.log.WithField("error", failErr).Error("record pipeline job failure failed")
			}
		} else if completeErr := jobs.Complete(ctx, run.ID, processed, store.JSONMap{}); completeErr != nil {
			s.log.WithField("error", completeErr).Error("record pipeline job completion failed")
		}
	}
	return err
}

// runPipelineCycleInner does the actual work; split out so runPipelineCycle
// can bracket it with job-run bookkeeping regardless of where it returns.
func (s *Scheduler) runPipelineCycleInner(ctx context.Context, settings Settings) (int, error) {
	batch := settings.PipelineBatchSize
	if batch <= 0 {
		batch = 100
	}
	processed := 0

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	if n, err := s.collab.Syncer.RunBatch(ctx, batch); err != nil {
		s.log.WithField("error", err).Error("business-domain sync failed")
	} else {
		processed += n
	}

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	if n, err := s.collab.Classifier.RunBatch(ctx, s.collab.DB, batch); err != nil {
		s.log.WithField("error", err).Error("domain classification failed")
	} else {
		processed += n
	}

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	if n, err := s.collab.RoleEnricher.RunBatch(ctx, batch); err != nil {
		s.log.WithField("error", err).Error("role-email enrichment failed")
	} else {
		processed += n
	}

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	if _, err := s.collab.ContactExporter.Run(ctx, settings.ExportPlatform, batch, settings.ExportOutputDir); err != nil {
		s.log.WithField("error", err).Error("contacts export failed")
	}

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	if n, err := s.collab.ScoreRunner.RunBatch(ctx, batch); err != nil {
		s.log.WithField("error", err).Error("business scoring failed")
	} else {
		processed += n
	}

	touched := map[uuid.UUID]store.Business{}

	for _, v := range s.collab.VerifierLayers {
		if s.stopped(s.stopPipeline) {
			break
		}
		if err := s.runVerifierStage(ctx, v, settings, touched); err != nil {
			s.log.WithField("source", v.Source()).WithField("error", err).Error("verifier layer failed")
		}
	}
	for _, v := range s.collab.APIVerifiers {
		if s.stopped(s.stopPipeline) {
			break
		}
		if err := s.runVerifierStage(ctx, v, settings, touched); err != nil {
			s.log.WithField("source", v.Source()).WithField("error", err).Error("API verifier failed")
		}
	}
	processed += len(touched)

	if len(touched) > 0 {
		businesses := make([]store.Business, 0, len(touched))
		for _, b := range touched {
			businesses = append(businesses, b)
		}
		if _, err := s.collab.ScoreRunner.RunFor(ctx, businesses); err != nil {
			s.log.WithField("error", err).Error("post-verification rescore failed")
		}
	}

	if s.stopped(s.stopPipeline) {
		return processed, nil
	}
	req := export.Request{
		Platform:  settings.ExportPlatform,
		MinScore:  settings.ExportMinScore,
		Limit:     batch,
		OutputDir: settings.ExportOutputDir,
	}
	if _, err := s.collab.LeadExporter.Run(ctx, req); err != nil {
		s.log.WithField("error", err).Error("business export failed")
	}

	return processed, nil
}

// runVerifierStage runs one verifier's batch and records every business it
// touched so the cycle can rescore them once, after every layer has run.
func (s *Scheduler) runVerifierStage(ctx context.Context, v verify.Verifier, settings Settings, touched map[uuid.UUID]store.Business) error {
	cfg := settings.Verifiers[v.Source()]
	result, err := verify.RunBatch(ctx, s.collab.DB, v, cfg.MinScore, batchSizeOrDefault(cfg.BatchSize), s.log)
	if err != nil {
		return err
	}
	for _, b := range result.Processed {
		touched[b.ID] = b
	}
	return nil
}

func batchSizeOrDefault(n int) int {
	if n <= 0 {
		return 25
	}
	return n
}

func (s *Scheduler) stopped(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// sleepOrStop sleeps for d unless the stop channel fires first. Returns
// false if it was interrupted by a stop signal.
func (s *Scheduler) sleepOrStop(d time.Duration, stop chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}
