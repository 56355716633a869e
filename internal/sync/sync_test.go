package sync

import (
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func strPtr(s string) *string { return &s }

func TestCandidateDomainsFromWebsite(t *testing.T) {
	b := store.Business{WebsiteURL: strPtr("https://www.Acme-Plumbing.com/contact")}
	got := CandidateDomains(b)
	if got["acme-plumbing.com"] != store.LinkSourceWebsite {
		t.Errorf("got %v", got)
	}
}

func TestCandidateDomainsFromEmailSkipsPublic(t *testing.T) {
	b := store.Business{
		Raw: store.JSONMap{
			"emails": []any{"owner@acme-plumbing.com", "info@gmail.com"},
		},
	}
	got := CandidateDomains(b)
	if _, ok := got["gmail.com"]; ok {
		t.Error("expected public email domain to be excluded")
	}
	if got["acme-plumbing.com"] != store.LinkSourceEmail {
		t.Errorf("got %v", got)
	}
}

func TestCandidateDomainsWebsiteWinsOverEmail(t *testing.T) {
	b := store.Business{
		WebsiteURL: strPtr("https://acme-plumbing.com"),
		Raw: store.JSONMap{
			"emails": []any{"owner@acme-plumbing.com"},
		},
	}
	got := CandidateDomains(b)
	if got["acme-plumbing.com"] != store.LinkSourceWebsite {
		t.Errorf("expected website source to take precedence, got %v", got)
	}
}

func TestCandidateDomainsEmptyWhenNoEvidence(t *testing.T) {
	got := CandidateDomains(store.Business{})
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := cursor{}
	encoded := encodeCursor(c)
	decoded := decodeCursor(encoded)
	if decoded.ID != c.ID {
		t.Errorf("ID round-trip failed: %v != %v", decoded.ID, c.ID)
	}
}
