package nameguess

import (
	"regexp"
	"strings"
)

// stopWords are excluded from a business name's significant-word set.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "for": true,
	"at": true, "in": true, "on": true, "to": true, "llc": true, "inc": true,
	"ltd": true, "co": true,
}

var minRealPageBytes = 500

// genericLocationWords are geographic/generic business-category words that
// show up on many unrelated pages; a content match made up solely of these
// words (e.g. "College Street" matching any College St. business) is treated
// as coincidental, not as evidence the page belongs to this business.
var genericLocationWords = map[string]bool{
	"street": true, "avenue": true, "road": true, "drive": true, "boulevard": true,
	"lane": true, "place": true, "way": true, "court": true, "circle": true,
	"terrace": true, "crescent": true, "square": true,
	"north": true, "south": true, "east": true, "west": true, "central": true,
	"upper": true, "lower": true,
	"college": true, "park": true, "lake": true, "hill": true, "mountain": true,
	"river": true, "bay": true,
	"city": true, "town": true, "village": true, "downtown": true, "midtown": true,
	"uptown": true,
	"first": true, "second": true, "third": true, "main": true, "high": true,
	"grand": true,
	"new": true, "old": true, "big": true, "little": true, "great": true,
	"royal": true, "golden": true,
	"green": true, "blue": true, "red": true, "white": true, "black": true,
	"national": true, "international": true, "global": true, "general": true,
	"universal": true,
	"auto": true, "car": true, "home": true, "food": true, "tech": true,
	"pro": true, "express": true, "quick": true, "fast": true, "best": true,
	"top": true, "prime": true, "elite": true, "premium": true,
}

var parkedIndicators = []string{
	"domain is for sale", "buy this domain", "sedoparking", "bodis",
	"hugedomains", "dan.com", "afternic", "namecheap.com/domains",
	"coming soon</title>", "under construction</title>", "parkingcrew",
	"this domain may be for sale", "courtesy of", "related searches",
	"future home of", "domain parking", "renew now", "expired domain",
	"website coming soon", "site is under construction", "default web page",
	"this web page is parked", "the sponsored listings", "buy now",
	"make an offer", "backorder this domain", "premium domain",
	"domain name is for sale", "click here to buy", "godaddy.com/park",
}

var parkedHostHints = []string{
	"parkingcrew", "sedoparking", "bodis", "afternic", "dan.com",
	"namecheap", "hugedomains",
}

// significantWords returns name's lowercased, ≥3-char, non-stop-word tokens.
func significantWords(name string) []string {
	var out []string
	for _, w := range tokenize(name) {
		if len(w) >= 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// IsParked reports whether a probe response looks like a parking/for-sale
// placeholder rather than a real site.
func IsParked(finalHost, body string) bool {
	finalHost = strings.ToLower(finalHost)
	for _, hint := range parkedHostHints {
		if strings.Contains(finalHost, hint) {
			return true
		}
	}
	lowerBody := strings.ToLower(body)
	for _, kw := range parkedIndicators {
		if strings.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}

// domainsRelated implements the redirect-validation rule: exact match,
// substring match with a length-ratio of at least 60%, or a shared prefix
// of at least 10 characters.
func domainsRelated(requested, actual string) bool {
	requested = strings.ToLower(requested)
	actual = strings.ToLower(actual)
	if requested == actual {
		return true
	}
	shorter, longer := requested, actual
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) && len(shorter) > 0 {
		ratio := float64(len(shorter)) / float64(len(longer))
		if ratio >= 0.6 {
			return true
		}
	}
	prefixLen := commonPrefixLen(requested, actual)
	return prefixLen >= 10
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]`)

// isTitleDomainEcho reports whether title is just the domain name restated
// (the classic parking-page signature).
func isTitleDomainEcho(title, domain string) bool {
	t := nonAlnumPattern.ReplaceAllString(strings.ToLower(title), "")
	d := nonAlnumPattern.ReplaceAllString(strings.ToLower(strings.TrimSuffix(domain, domainTLDSuffix(domain))), "")
	return t == d || t == nonAlnumPattern.ReplaceAllString(strings.ToLower(domain), "")
}

func domainTLDSuffix(domain string) string {
	if i := strings.LastIndex(domain, "."); i >= 0 {
		return domain[i:]
	}
	return ""
}

// ContentRelevance applies the proportional word-match rules: given the
// business name's significant words and the page's lowercased check text
// (title+meta+first-n-bytes-of-body), decide whether the page is relevant
// enough to accept as this business's site.
//
//   - 3+ word names: all matching words generic/location-only -> reject;
//     otherwise >=2 matches, OR 1 match of length >=7. A redirect to a
//     related-but-different host (redirectedToRelatedHost) additionally
//     requires >=2 total matches AND at least one non-generic distinctive
//     (>=5 char) match — a plain direct hit needs less evidence than one
//     reached by bouncing to another host.
//   - 2-word names: >=1 distinctive (>=5 char) match; if both words are
//     distinctive, both must match.
//   - 1-word names: the word must appear in title, unless title is a domain
//     echo, in which case it must appear in the meta description instead.
func ContentRelevance(name string, title, metaDescription, checkText string, titleIsDomainEcho, redirectedToRelatedHost bool) bool {
	words := significantWords(name)
	if len(words) == 0 {
		return false
	}

	if len(words) == 1 {
		w := words[0]
		if !titleIsDomainEcho {
			return containsWord(strings.ToLower(title), w)
		}
		return containsWord(strings.ToLower(metaDescription), w)
	}

	matches := 0
	var longMatch bool
	distinctiveMatches := 0
	distinctiveTotal := 0
	nonGenericMatches := 0
	nonGenericDistinctive := 0
	for _, w := range words {
		distinctive := len(w) >= 5
		if distinctive {
			distinctiveTotal++
		}
		if !containsWord(checkText, w) {
			continue
		}
		matches++
		if len(w) >= 7 {
			longMatch = true
		}
		if distinctive {
			distinctiveMatches++
		}
		if genericLocationWords[w] || stripAlways[w] {
			continue
		}
		nonGenericMatches++
		if distinctive {
			nonGenericDistinctive++
		}
	}

	if len(words) == 2 {
		if distinctiveTotal == 2 {
			return distinctiveMatches == 2
		}
		return distinctiveMatches >= 1
	}

	// 3+ word names: a match made up entirely of generic/location words is
	// coincidental, not brand-specific evidence.
	if matches > 0 && nonGenericMatches == 0 {
		return false
	}
	if matches < 2 && !longMatch {
		return false
	}
	if redirectedToRelatedHost && (matches < 2 || nonGenericDistinctive == 0) {
		return false
	}
	return true
}

func containsWord(text, word string) bool {
	return strings.Contains(text, word)
}

// TitleIsGenericOnly reports whether title consists solely of generic words
// when the business name has 2+ words, disqualifying an otherwise-matching page.
func TitleIsGenericOnly(title string, nameWordCount int) bool {
	if nameWordCount < 2 {
		return false
	}
	words := tokenize(title)
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if !stopWords[w] && !stripAlways[w] {
			return false
		}
	}
	return true
}
