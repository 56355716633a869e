package export

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestJoinSortedEmpty(t *testing.T) {
	if got := joinSorted(nil); got != "" {
		t.Errorf("joinSorted(nil) = %q", got)
	}
}

func TestJoinSortedSortsLexicographically(t *testing.T) {
	got := joinSorted([]string{"zeta.com", "alpha.com", "mid.com"})
	want := "alpha.com;mid.com;zeta.com"
	if got != want {
		t.Errorf("joinSorted = %q, want %q", got, want)
	}
}

func TestDailyTargetPlatformFormat(t *testing.T) {
	day := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	got := DailyTargetPlatform("daily", day)
	want := "daily_20260311"
	if got != want {
		t.Errorf("DailyTargetPlatform = %q, want %q", got, want)
	}
}

func TestRowProducesFixedColumnOrder(t *testing.T) {
	cityID := uuid.New()
	b := store.Business{
		Name:      strPtr("Acme Plumbing"),
		Category:  strPtr("trades"),
		Address:   strPtr("123 Main St"),
		CityID:    &cityID,
		LeadScore: intPtr(80),
		Source:    "osm",
		SourceID:  "node/123",
	}
	bundle := features.Bundle{
		Emails:         []string{"owner@acme.com"},
		BusinessEmails: []string{"owner@acme.com"},
		Phones:         []string{"+15551234567"},
		HostedDomains:  []string{"acme.com"},
	}
	cities := map[uuid.UUID]store.City{
		cityID: {ID: cityID, Name: "Toronto", Country: strPtr("CA")},
	}
	got := row(b, bundle, cities)
	if len(got) != len(Columns) {
		t.Fatalf("row length = %d, want %d", len(got), len(Columns))
	}
	if got[0] != "Acme Plumbing" || got[1] != "trades" || got[3] != "Toronto" || got[4] != "CA" ||
		got[16] != "80" || got[17] != "osm" || got[18] != "node/123" {
		t.Errorf("row = %v", got)
	}
}

func TestRowLeavesCityCountryBlankWhenCityUnresolved(t *testing.T) {
	b := store.Business{Name: strPtr("Acme Plumbing"), Source: "osm", SourceID: "node/123"}
	got := row(b, features.Bundle{}, map[uuid.UUID]store.City{})
	if got[3] != "" || got[4] != "" {
		t.Errorf("expected blank city/country when CityID is nil, got city=%q country=%q", got[3], got[4])
	}
}
