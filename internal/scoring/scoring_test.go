package scoring

import (
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/confidence"
	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func strPtr(s string) *string { return &s }

func TestScoreZeroWhenWebsiteURLPresent(t *testing.T) {
	b := store.Business{WebsiteURL: strPtr("https://acme.com")}
	result := Score(b, features.Bundle{}, confidence.LevelHigh, nil)
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestScoreZeroForBrandedChainTag(t *testing.T) {
	b := store.Business{Raw: store.JSONMap{"brand:wikidata": "Q12345"}}
	result := Score(b, features.Bundle{}, confidence.LevelHigh, nil)
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestScoreZeroForKnownChainName(t *testing.T) {
	b := store.Business{Name: strPtr("McDonald's")}
	chains := ChainSet{"mcdonald's": true}
	result := Score(b, features.Bundle{}, confidence.LevelHigh, chains)
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestScoreZeroWhenWebPresenceElsewhere(t *testing.T) {
	b := store.Business{}
	bundle := features.Bundle{DomainStatusCounts: map[store.DomainStatus]int{store.DomainStatusHosted: 1}}
	result := Score(b, bundle, confidence.LevelHigh, nil)
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestScoreAcmePlumbingHighConfidence(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	bundle := features.Bundle{
		BusinessEmails: []string{"owner@acme-plumbing.com"},
		Emails:         []string{"owner@acme-plumbing.com"},
		Phones:         []string{"+15551234567"},
	}
	result := Score(b, bundle, confidence.LevelHigh, nil)
	want := 25 + 20 + 15 + 20 // no-website + business email + phone + trades category
	if result.Score != want {
		t.Errorf("score = %d, want %d (reasons=%v)", result.Score, want, result.Reasons)
	}
}

func TestScoreCapsAtUnverifiedConfidence(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	bundle := features.Bundle{
		BusinessEmails: []string{"owner@acme.com"},
		Emails:         []string{"owner@acme.com"},
		Phones:         []string{"+15551234567"},
	}
	result := Score(b, bundle, confidence.LevelUnverified, nil)
	if result.Score != 35 {
		t.Errorf("score = %d, want 35", result.Score)
	}
}

func TestScoreCapsAtLowConfidence(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	bundle := features.Bundle{
		BusinessEmails: []string{"owner@acme.com"},
		Emails:         []string{"owner@acme.com"},
		Phones:         []string{"+15551234567"},
	}
	result := Score(b, bundle, confidence.LevelLow, nil)
	if result.Score != 50 {
		t.Errorf("score = %d, want 50", result.Score)
	}
}

func TestScoreNameLooksLikeDomainCapsAt15(t *testing.T) {
	b := store.Business{Name: strPtr("iRepair.ca"), Category: strPtr("trades")}
	bundle := features.Bundle{
		BusinessEmails: []string{"a@irepair.ca"},
		Emails:         []string{"a@irepair.ca"},
		Phones:         []string{"+15551234567"},
	}
	result := Score(b, bundle, confidence.LevelHigh, nil)
	if result.Score != 15 {
		t.Errorf("score = %d, want 15", result.Score)
	}
}

func TestScoreNoContactsCapsAt5(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	result := Score(b, features.Bundle{}, confidence.LevelHigh, nil)
	if result.Score != 5 {
		t.Errorf("score = %d, want 5", result.Score)
	}
}

func TestScoreUnknownDomainsOnlyCapsAt10(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	bundle := features.Bundle{
		Emails:         []string{"a@example.com"},
		BusinessEmails: []string{"a@example.com"},
		Phones:         []string{"+15551234567"},
		UnknownDomains: []string{"mystery.example"},
	}
	result := Score(b, bundle, confidence.LevelHigh, nil)
	if result.Score != 10 {
		t.Errorf("score = %d, want 10", result.Score)
	}
}

func TestScoreNeverExceeds100(t *testing.T) {
	b := store.Business{Category: strPtr("trades")}
	bundle := features.Bundle{
		BusinessEmails: []string{"a@example.com"},
		Emails:         []string{"a@example.com"},
		Phones:         []string{"+15551234567"},
	}
	result := Score(b, bundle, confidence.LevelHigh, nil)
	if result.Score > 100 {
		t.Errorf("score = %d exceeds 100", result.Score)
	}
}

func TestLooksLikeDomain(t *testing.T) {
	cases := map[string]bool{
		"iRepair.ca":            true,
		"acme-plumbing.com":     true,
		"Acme Plumbing":         false,
		"Village Cobbler Shop":  false,
		"zowar.net":             true,
	}
	for name, want := range cases {
		if got := looksLikeDomain(name); got != want {
			t.Errorf("looksLikeDomain(%q) = %v, want %v", name, got, want)
		}
	}
}
