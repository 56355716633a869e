package normalize

import "testing"

func TestDomainVariants(t *testing.T) {
	cases := map[string]string{
		"https://WWW.Example.com/foo?x=1": "example.com",
		"http://example.com:8080/":        "example.com",
		"EXAMPLE.COM.":                    "example.com",
		"www.example.com":                 "example.com",
		"foo@example.com":                 "example.com",
	}
	for in, want := range cases {
		got, ok := Domain(in)
		if !ok {
			t.Errorf("Domain(%q) rejected, want %q", in, want)
			continue
		}
		if got != want {
			t.Errorf("Domain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDomainRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "no-dot-host", "has space.com", "  "} {
		if _, ok := Domain(in); ok {
			t.Errorf("Domain(%q) should be rejected", in)
		}
	}
}

func TestDomainIdempotent(t *testing.T) {
	once, ok := Domain("https://X.Example.com/foo")
	if !ok {
		t.Fatal("first normalize failed")
	}
	twice, ok := Domain(once)
	if !ok {
		t.Fatal("second normalize failed")
	}
	if once != twice {
		t.Errorf("normalize not idempotent: %q != %q", once, twice)
	}
}

func TestDomainMatchesEmailNormalization(t *testing.T) {
	urlForm, _ := Domain("https://X.example.com/foo")
	emailForm, _ := Domain("foo@x.example.com")
	if urlForm != "x.example.com" || emailForm != "x.example.com" {
		t.Errorf("urlForm=%q emailForm=%q, want both x.example.com", urlForm, emailForm)
	}
}

func TestIsPublicEmailDomain(t *testing.T) {
	if !IsPublicEmailDomain("gmail.com") {
		t.Error("gmail.com should be public")
	}
	if !IsPublicEmailDomain("yahoo.co.uk") {
		t.Error("yahoo.co.uk should be public via prefix family")
	}
	if IsPublicEmailDomain("acmeplumbing.com") {
		t.Error("acmeplumbing.com should not be public")
	}
}

func TestEmailDomain(t *testing.T) {
	d, ok := EmailDomain("Owner@ACME-Plumbing.com")
	if !ok || d != "acme-plumbing.com" {
		t.Errorf("EmailDomain = %q, %v, want acme-plumbing.com, true", d, ok)
	}
	if _, ok := EmailDomain("not-an-email"); ok {
		t.Error("expected rejection for string without @")
	}
}
