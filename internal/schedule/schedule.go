// Package schedule drives the long-lived background loops — the full
// pipeline cycle, the tight verification cycle, and the cron-scheduled
// daily-target export — that keep the lead pipeline moving without an
// operator triggering every step by hand.
package schedule

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/5n10/domain-lead-pipeline/internal/classifier"
	"github.com/5n10/domain-lead-pipeline/internal/clients/notify"
	"github.com/5n10/domain-lead-pipeline/internal/config"
	"github.com/5n10/domain-lead-pipeline/internal/contacts"
	"github.com/5n10/domain-lead-pipeline/internal/export"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/scoring"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	domainsync "github.com/5n10/domain-lead-pipeline/internal/sync"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

// Settings is the mutable, hot-reloadable knob set every loop reads. A
// snapshot is taken under Scheduler.mu at the top of every cycle so a
// concurrent update never tears a cycle in progress.
type Settings struct {
	PipelineIntervalSeconds  int
	PauseWhenIdleSeconds     int
	PauseBetweenBatchSeconds int
	PipelineStopTimeout      time.Duration
	VerificationStopTimeout  time.Duration
	Verifiers                map[string]config.VerifierConfig
	ExportPlatform           string
	ExportMinScore           int
	ExportOutputDir          string
	DailyTargetCount         int
	DailyTargetPrefix        string
	DailyTargetCronExpr      string
	AllowRecycling           bool
	PipelineBatchSize        int
}

// SettingsFromConfig builds the initial snapshot from a loaded Config.
func SettingsFromConfig(cfg *config.Config) Settings {
	verifiers := make(map[string]config.VerifierConfig, len(cfg.Verifiers))
	for k, v := range cfg.Verifiers {
		verifiers[k] = v
	}
	return Settings{
		PipelineIntervalSeconds:  cfg.Scheduler.PipelineIntervalSeconds,
		PauseWhenIdleSeconds:     cfg.Scheduler.PauseWhenIdleSeconds,
		PauseBetweenBatchSeconds: cfg.Scheduler.PauseBetweenBatchSeconds,
		PipelineStopTimeout:      cfg.Scheduler.PipelineStopTimeout,
		VerificationStopTimeout:  cfg.Scheduler.VerificationStopTimeout,
		Verifiers:                verifiers,
		ExportPlatform:           cfg.Export.DailyPlatformPrefix,
		ExportMinScore:           0,
		ExportOutputDir:          cfg.Export.OutputDir,
		DailyTargetCount:         cfg.Export.DailyTargetCount,
		DailyTargetPrefix:        cfg.Export.DailyPlatformPrefix,
		DailyTargetCronExpr:      cfg.Export.DailyTargetCronExpr,
		AllowRecycling:           cfg.Export.AllowRecycling,
		PipelineBatchSize:        100,
	}
}

// Collaborators bundles every component the scheduler orchestrates. Built
// once at process startup and handed to New.
type Collaborators struct {
	DB              *store.Store
	Syncer          *domainsync.Syncer
	Classifier      *classifier.Classifier
	RoleEnricher    *contacts.Enricher
	ContactExporter *contacts.Exporter
	ScoreRunner     *scoring.Runner
	LeadExporter    *export.Exporter
	// Notify delivers operator-facing alerts on cycle failures and
	// completed daily-target runs. Defaults to a no-op sink if nil.
	Notify notify.Sink

	// VerifierLayers runs in PipelineLoop order and in VerificationLoop's
	// tight cycle: name-guess, meta-search, LLM, DDG-HTML, Google-HTML.
	VerifierLayers []verify.Verifier
	// APIVerifiers runs only in PipelineLoop, after VerifierLayers: the
	// per-provider place-search verifiers (google_places, foursquare).
	APIVerifiers []verify.Verifier
}

// Scheduler owns the pipeline, verification and daily-target background loops.
type Scheduler struct {
	collab Collaborators
	log    *logging.Logger

	mu       stdsync.RWMutex
	settings Settings

	lock *runLock

	stopPipeline     chan struct{}
	stopVerification chan struct{}
	pipelineDone     chan struct{}
	verificationDone chan struct{}

	stopDailyTarget  chan struct{}
	dailyTargetDone  chan struct{}
}

// New builds a Scheduler. Call Start to launch its background loops.
func New(collab Collaborators, settings Settings, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewDefault("schedule")
	}
	if collab.Notify == nil {
		collab.Notify = notify.NoopSink{}
	}
	return &Scheduler{
		collab:   collab,
		log:      log,
		settings: settings,
		lock:     newRunLock(),
	}
}

// snapshot returns the current settings under a read lock.
func (s *Scheduler) snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the live settings snapshot.
func (s *Scheduler) UpdateSettings(next Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = next
}

// Start launches the pipeline, verification and daily-target loops. Calling
// Start twice without an
// intervening Stop is a programming error the caller must avoid.
func (s *Scheduler) Start(ctx context.Context) {
	s.stopPipeline = make(chan struct{})
	s.stopVerification = make(chan struct{})
	s.pipelineDone = make(chan struct{})
	s.verificationDone = make(chan struct{})
	s.stopDailyTarget = make(chan struct{})
	s.dailyTargetDone = make(chan struct{})

	go s.runPipelineLoop(ctx)
	go s.runVerificationLoop(ctx)
	go s.runDailyTargetLoop(ctx)
}

// Stop signals all three loops and waits (bounded by each loop's configured
// stop timeout; the daily-target loop uses the pipeline's) for them to exit
// their current cycle.
func (s *Scheduler) Stop() {
	settings := s.snapshot()

	close(s.stopPipeline)
	close(s.stopVerification)
	close(s.stopDailyTarget)

	waitFor(s.pipelineDone, settings.PipelineStopTimeout)
	waitFor(s.verificationDone, settings.VerificationStopTimeout)
	waitFor(s.dailyTargetDone, settings.PipelineStopTimeout)
}

func waitFor(done chan struct{}, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// RunPipelineOnce runs a single pipeline cycle outside the loop's own
// sleep schedule, for a user-triggered "run now". Returns false without
// running if a cycle (scheduled or triggered) is already in progress.
func (s *Scheduler) RunPipelineOnce(ctx context.Context) (bool, error) {
	if !s.lock.TryAcquire() {
		return false, nil
	}
	defer s.lock.Release()
	return true, s.runPipelineCycle(ctx, s.snapshot())
}

// dailyTargetJobName is the job_runs row name for a daily-target export,
// whether fired by the cron loop or a user-triggered run-now.
const dailyTargetJobName = "daily_target_export"

// RunDailyTargetNow runs the daily-target export engine outside the
// pipeline's own cycle, sharing the same run lock.
func (s *Scheduler) RunDailyTargetNow(ctx context.Context) (export.Result, bool, error) {
	if !s.lock.TryAcquire() {
		return export.Result{}, false, nil
	}
	defer s.lock.Release()
	settings := s.snapshot()
	platform := export.DailyTargetPlatform(settings.DailyTargetPrefix, time.Now().UTC())

	jobs := store.NewJobStore(s.collab.DB.DB)
	run, jobErr := jobs.Start(ctx, dailyTargetJobName, store.GlobalScope)
	if jobErr != nil {
		s.log.WithField("error", jobErr).Error("record daily-target job start failed")
	}

	result, err := s.collab.LeadExporter.RunDailyTarget(ctx, platform, settings.DailyTargetCount, settings.ExportMinScore, settings.AllowRecycling, settings.ExportOutputDir)

	if jobErr == nil {
		if err != nil {
			if failErr := jobs.Fail(ctx, run.ID, result.WrittenCount, err); failErr != nil {
				s.log.WithField("error", failErr).Error("record daily-target job failure failed")
			}
		} else if completeErr := jobs.Complete(ctx, run.ID, result.WrittenCount, store.JSONMap{"path": result.Path}); completeErr != nil {
			s.log.WithField("error", completeErr).Error("record daily-target job completion failed")
		}
	}
	return result, true, err
}
