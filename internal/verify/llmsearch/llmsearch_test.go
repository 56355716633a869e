package llmsearch

import (
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/clients/llmclient"
	"github.com/5n10/domain-lead-pipeline/internal/verify"
)

func TestOutcomeFromVerdictHasWebsite(t *testing.T) {
	o := outcomeFromVerdict(llmclient.Verdict{Status: "has_website", WebsiteURL: "https://acme.com/", Reason: "found listing"})
	if o.Verdict != verify.VerdictHasWebsite || o.WebsiteURL != "https://acme.com/" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestOutcomeFromVerdictNoWebsite(t *testing.T) {
	o := outcomeFromVerdict(llmclient.Verdict{Status: "no_website"})
	if o.Verdict != verify.VerdictNoWebsite {
		t.Fatalf("unexpected verdict: %v", o.Verdict)
	}
}

func TestOutcomeFromVerdictUnrecognizedStatusBecomesNotSure(t *testing.T) {
	o := outcomeFromVerdict(llmclient.Verdict{Status: "not_sure"})
	if o.Verdict != verify.VerdictNotSure {
		t.Fatalf("unexpected verdict: %v", o.Verdict)
	}
	o2 := outcomeFromVerdict(llmclient.Verdict{Status: "garbage"})
	if o2.Verdict != verify.VerdictNotSure {
		t.Fatalf("unexpected verdict for unmodeled status: %v", o2.Verdict)
	}
}

func TestRecordRateLimitAbortsAfterStreak(t *testing.T) {
	v := &Verifier{}
	for i := 0; i < maxConsecutiveRateLimits-1; i++ {
		v.recordRateLimit()
		if v.aborted {
			t.Fatalf("should not abort before reaching the streak threshold (iteration %d)", i)
		}
	}
	v.recordRateLimit()
	if !v.aborted {
		t.Fatal("expected verifier to abort after reaching the consecutive rate-limit threshold")
	}
}

func TestResetStreakClearsCounter(t *testing.T) {
	v := &Verifier{consecutiveLimits: maxConsecutiveRateLimits - 1}
	v.resetStreak()
	if v.consecutiveLimits != 0 {
		t.Fatalf("expected streak to reset to 0, got %d", v.consecutiveLimits)
	}
}
