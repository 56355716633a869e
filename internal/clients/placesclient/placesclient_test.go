package placesclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFindBestMatchParsesFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "" {
			t.Error("expected a query parameter")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"name": "Acme Plumbing", "website": "https://acmeplumbing.com", "formatted_address": "1 Main St"},
			},
		})
	}))
	defer srv.Close()

	c := New(Provider{Name: "google_places", Endpoint: srv.URL, APIKey: "key"}, 0)
	place, ok, err := c.FindBestMatch(context.Background(), "Acme Plumbing", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a match")
	}
	if place.Name != "Acme Plumbing" || place.WebsiteURL != "https://acmeplumbing.com" {
		t.Errorf("unexpected place: %+v", place)
	}
}

func TestFindBestMatchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]string{}})
	}))
	defer srv.Close()

	c := New(Provider{Name: "foursquare", Endpoint: srv.URL, APIKey: "key"}, 0)
	_, ok, err := c.FindBestMatch(context.Background(), "Acme", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no match")
	}
}

func TestFindBestMatchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Provider{Name: "google_places", Endpoint: srv.URL}, 0)
	_, _, err := c.FindBestMatch(context.Background(), "Acme", nil, nil)
	if err != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
