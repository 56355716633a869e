package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/5n10/domain-lead-pipeline/internal/config"
	"github.com/5n10/domain-lead-pipeline/internal/store"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

type stubVerifier struct{ source string }

func (v stubVerifier) Source() string { return v.source }
func (v stubVerifier) Run(ctx context.Context, b store.Business) (verify.Outcome, error) {
	return verify.Outcome{Source: v.source, Verdict: verify.VerdictNoMatch}, nil
}

func TestSettingsFromConfigMapsFields(t *testing.T) {
	cfg := config.New()
	cfg.Verifiers["ddg"] = config.VerifierConfig{BatchSize: 7, MinScore: 3}

	s := SettingsFromConfig(cfg)

	if s.PipelineIntervalSeconds != cfg.Scheduler.PipelineIntervalSeconds {
		t.Fatalf("pipeline interval not carried over")
	}
	if s.DailyTargetPrefix != cfg.Export.DailyPlatformPrefix {
		t.Fatalf("daily target prefix not carried over")
	}
	if got := s.Verifiers["ddg"].BatchSize; got != 7 {
		t.Fatalf("verifier config not copied, got batch size %d", got)
	}

	// Mutating the source config afterward must not leak into the snapshot.
	cfg.Verifiers["ddg"] = config.VerifierConfig{BatchSize: 99}
	if got := s.Verifiers["ddg"].BatchSize; got != 7 {
		t.Fatalf("settings snapshot shares the config's map, got %d after mutation", got)
	}
}

func TestRunPipelineOnceFailsWhileLockHeld(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	if !s.lock.TryAcquire() {
		t.Fatal("expected to acquire run lock directly")
	}
	defer s.lock.Release()

	ran, err := s.RunPipelineOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatal("expected RunPipelineOnce to refuse while the lock is held")
	}
}

func TestRunDailyTargetNowFailsWhileLockHeld(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	if !s.lock.TryAcquire() {
		t.Fatal("expected to acquire run lock directly")
	}
	defer s.lock.Release()

	_, ran, err := s.RunDailyTargetNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatal("expected RunDailyTargetNow to refuse while the lock is held")
	}
}

func TestStoppedReflectsChannelState(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	open := make(chan struct{})
	if s.stopped(open) {
		t.Fatal("expected an open channel to report not stopped")
	}
	close(open)
	if !s.stopped(open) {
		t.Fatal("expected a closed channel to report stopped")
	}
}

func TestSleepOrStopInterruptedByStop(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	stop := make(chan struct{})
	close(stop)

	if s.sleepOrStop(time.Hour, stop) {
		t.Fatal("expected sleepOrStop to report interrupted when stop is already closed")
	}
}

func TestSleepOrStopCompletesNaturally(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	stop := make(chan struct{})

	if !s.sleepOrStop(time.Millisecond, stop) {
		t.Fatal("expected sleepOrStop to report completion when not interrupted")
	}
}

func TestVerifierSourcesListsLayersThenAPIVerifiers(t *testing.T) {
	collab := Collaborators{
		VerifierLayers: []verify.Verifier{stubVerifier{"domain_guess"}, stubVerifier{"llm"}},
		APIVerifiers:   []verify.Verifier{stubVerifier{"google_places"}},
	}
	s := New(collab, Settings{}, nil)

	got := s.VerifierSources()
	want := []string{"domain_guess", "llm", "google_places"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRunVerifierNowRejectsUnknownSource(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	if _, err := s.RunVerifierNow(context.Background(), "nope"); err == nil {
		t.Fatal("expected an error for an unknown verifier source")
	}
}

func TestDailyTargetCronExprDefaultsWhenUnset(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	if got := s.dailyTargetCronExpr(); got != defaultDailyTargetCronExpr {
		t.Fatalf("got %q, want default %q", got, defaultDailyTargetCronExpr)
	}
}

func TestDailyTargetCronExprUsesConfiguredValue(t *testing.T) {
	s := New(Collaborators{}, Settings{DailyTargetCronExpr: "30 6 * * *"}, nil)
	if got := s.dailyTargetCronExpr(); got != "30 6 * * *" {
		t.Fatalf("got %q, want configured expression", got)
	}
}

func TestExportNowFailsWhileLockHeld(t *testing.T) {
	s := New(Collaborators{}, Settings{}, nil)
	if !s.lock.TryAcquire() {
		t.Fatal("expected to acquire run lock directly")
	}
	defer s.lock.Release()

	_, ran, err := s.ExportNow(context.Background(), "google_places", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Fatal("expected ExportNow to refuse while the lock is held")
	}
}

func TestBatchSizeOrDefault(t *testing.T) {
	if got := batchSizeOrDefault(0); got != 25 {
		t.Fatalf("expected default 25, got %d", got)
	}
	if got := batchSizeOrDefault(-5); got != 25 {
		t.Fatalf("expected default 25 for negative input, got %d", got)
	}
	if got := batchSizeOrDefault(40); got != 40 {
		t.Fatalf("expected passthrough of positive input, got %d", got)
	}
}
