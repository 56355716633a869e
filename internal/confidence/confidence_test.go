package confidence

import (
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func TestComputeUnverifiedWhenNothingRan(t *testing.T) {
	total, level := Compute(store.JSONMap{})
	if total != 0 || level != LevelUnverified {
		t.Errorf("got (%v, %v), want (0, unverified)", total, level)
	}
}

func TestComputeExamplesFromWeightTable(t *testing.T) {
	cases := []struct {
		name string
		raw  store.JSONMap
		want float64
	}{
		{"domain_guess no_match", store.JSONMap{"domain_guess_verified": true, "domain_guess_result": "no_match"}, 0.7},
		{"searxng no_website", store.JSONMap{"searxng_verified": true, "searxng_result": "no_website"}, 0.9},
		{"google_places no_website", store.JSONMap{"google_places_verified": true, "google_places_result": "no_website"}, 0.9},
		{"ddg no_results", store.JSONMap{"ddg_verified": true, "ddg_result": "no_results"}, 0.05},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, _ := Compute(tc.raw)
			if total != tc.want {
				t.Errorf("total = %v, want %v", total, tc.want)
			}
		})
	}
}

func TestComputeUnmodeledVerdictFallsBackToDefault(t *testing.T) {
	total, level := Compute(store.JSONMap{"llm_verified": true, "llm_result": "some_future_verdict"})
	if total != defaultWeight {
		t.Errorf("total = %v, want %v", total, defaultWeight)
	}
	if level != LevelLow {
		t.Errorf("level = %v, want low", level)
	}
}

func TestBucketizeBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  Level
	}{
		{0, LevelUnverified},
		{0.01, LevelLow},
		{0.7, LevelMedium},
		{1.49, LevelMedium},
		{1.5, LevelHigh},
		{5, LevelHigh},
	}
	for _, tc := range cases {
		if got := bucketize(tc.total); got != tc.want {
			t.Errorf("bucketize(%v) = %v, want %v", tc.total, got, tc.want)
		}
	}
}

func TestComputeMonotoneInEvidence(t *testing.T) {
	base := store.JSONMap{"domain_guess_verified": true, "domain_guess_result": "no_match"}
	baseTotal, baseLevel := Compute(base)

	enriched := store.JSONMap{
		"domain_guess_verified": true, "domain_guess_result": "no_match",
		"searxng_verified": true, "searxng_result": "no_website",
	}
	enrichedTotal, enrichedLevel := Compute(enriched)

	if enrichedTotal < baseTotal {
		t.Errorf("adding a positive-weight verdict lowered total: %v -> %v", baseTotal, enrichedTotal)
	}
	levelRank := map[Level]int{LevelUnverified: 0, LevelLow: 1, LevelMedium: 2, LevelHigh: 3}
	if levelRank[enrichedLevel] < levelRank[baseLevel] {
		t.Errorf("adding a positive-weight verdict lowered level: %v -> %v", baseLevel, enrichedLevel)
	}
}
