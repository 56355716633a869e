package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildPromptIncludesRulesAndContext(t *testing.T) {
	prompt := BuildPrompt("Acme Plumbing", "Toronto", "CA", []string{"Acme Plumbing - Yelp"})
	if !strings.Contains(prompt, "Acme Plumbing") {
		t.Error("expected business name in prompt")
	}
	if !strings.Contains(prompt, "Toronto") {
		t.Error("expected city in prompt")
	}
	if !strings.Contains(prompt, "Directory listings") {
		t.Error("expected directory rule in prompt")
	}
}

func TestClassifyParsesVerdictFromChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"status\":\"has_website\",\"website_url\":\"https://acme.com\",\"reason\":\"found official site\"}"}}]}`))
	}))
	defer srv.Close()

	c := New([]Provider{{Name: "test", Endpoint: srv.URL, Model: "test-model"}}, 0)
	verdict, err := c.Classify(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict.Status != "has_website" || verdict.WebsiteURL != "https://acme.com" {
		t.Errorf("verdict = %+v", verdict)
	}
}

func TestClassifyReturnsRateLimitedWhenAllProvidersThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New([]Provider{{Name: "test", Endpoint: srv.URL}}, 0)
	_, err := c.Classify(context.Background(), "prompt")
	if err != ErrRateLimited {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}
