package htmlsearch

import "testing"

func TestExtractResultsParsesDuckDuckGoMarkup(t *testing.T) {
	page := `<html><body>
		<a class="result__a" href="https://acmeplumbing.com/">Acme Plumbing - Home</a>
		<a class="result__a" href="https://yelp.com/biz/acme">Acme Plumbing | Yelp</a>
	</body></html>`
	links := extractResults(DuckDuckGoEngine().ResultPattern, page, 10)
	if len(links) != 2 {
		t.Fatalf("expected 2 results, got %d", len(links))
	}
	if links[0].url != "https://acmeplumbing.com/" || links[0].title != "Acme Plumbing - Home" {
		t.Errorf("unexpected first result: %+v", links[0])
	}
}

func TestExtractResultsParsesGoogleRedirectMarkup(t *testing.T) {
	page := `<a href="/url?q=https://acmeplumbing.com/&amp;sa=U">Acme Plumbing</a>`
	links := extractResults(GoogleEngine().ResultPattern, page, 10)
	if len(links) != 1 {
		t.Fatalf("expected 1 result, got %d", len(links))
	}
	if links[0].url != "https://acmeplumbing.com/" {
		t.Errorf("unexpected decoded url: %q", links[0].url)
	}
}

func TestDomainMatchesNameFullSubstring(t *testing.T) {
	words := significantWords("Acme Plumbing")
	if !domainMatchesName("acmeplumbing.com", words) {
		t.Error("expected full-name substring match")
	}
}

func TestTitleMatchesNameRequiresSharedWordsAndOverlap(t *testing.T) {
	words := significantWords("Acme Plumbing Services")
	if !titleMatchesName("Acme Plumbing - Official Site", words) {
		t.Error("expected 2-of-3 word overlap at 60%+ to match")
	}
	if titleMatchesName("Acme News", words) {
		t.Error("did not expect a single shared word to match")
	}
}

func TestIsRootURL(t *testing.T) {
	if !isRootURL("https://acmeplumbing.com/") {
		t.Error("expected trailing-slash root to be a root URL")
	}
	if isRootURL("https://acmeplumbing.com/about") {
		t.Error("did not expect a sub-path to be a root URL")
	}
}
