package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/5n10/domain-lead-pipeline/internal/export"
)

// defaultDailyTargetCronExpr fires once a day, well outside business hours
// for the sources this system scrapes.
const defaultDailyTargetCronExpr = "0 3 * * *"

// runDailyTargetLoop wakes on the configured cron schedule and runs the
// daily-target export engine, sharing the pipeline's run lock so it never
// races a concurrent pipeline cycle or a user-triggered run-now.
func (s *Scheduler) runDailyTargetLoop(ctx context.Context) {
	defer close(s.dailyTargetDone)

	for {
		schedule, err := cron.ParseStandard(s.dailyTargetCronExpr())
		if err != nil {
			s.log.WithField("error", err).Error("invalid daily-target cron expression, falling back to default")
			schedule, _ = cron.ParseStandard(defaultDailyTargetCronExpr)
		}

		now := time.Now().UTC()
		wait := schedule.Next(now).Sub(now)
		if wait <= 0 {
			wait = time.Minute
		}

		if !s.sleepOrStop(wait, s.stopDailyTarget) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopDailyTarget:
			return
		default:
		}

		result, ran, err := s.RunDailyTargetNow(ctx)
		if err != nil {
			s.log.WithField("error", err).Error("daily-target export failed")
			s.collab.Notify.Notify(ctx, "daily-target export failed", err.Error())
		} else if ran {
			s.collab.Notify.Notify(ctx, "daily-target export completed",
				fmt.Sprintf("wrote %d businesses to %s", result.WrittenCount, result.Path))
		}
	}
}

func (s *Scheduler) dailyTargetCronExpr() string {
	expr := s.snapshot().DailyTargetCronExpr
	if expr == "" {
		return defaultDailyTargetCronExpr
	}
	return expr
}

// ExportNow runs a one-off export for an arbitrary platform name, sharing
// the pipeline's run lock with RunPipelineOnce and RunDailyTargetNow.
func (s *Scheduler) ExportNow(ctx context.Context, platform string, minScore, limit int) (export.Result, bool, error) {
	if !s.lock.TryAcquire() {
		return export.Result{}, false, nil
	}
	defer s.lock.Release()

	settings := s.snapshot()
	if limit <= 0 {
		limit = settings.PipelineBatchSize
	}
	req := export.Request{
		Platform:  platform,
		MinScore:  minScore,
		Limit:     limit,
		OutputDir: settings.ExportOutputDir,
	}
	result, err := s.collab.LeadExporter.Run(ctx, req)
	return result, true, err
}
