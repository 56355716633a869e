// Package nameguess implements the offline-candidate-generation-plus-probe
// verifier: given a business name and country, it guesses plausible domains,
// probes them, and validates the response before accepting a match.
package nameguess

import (
	"regexp"
	"strings"
)

// countryTLDs maps a country code to its preferred TLD search order.
// Unlisted countries fall back to defaultTLDs.
var countryTLDs = map[string][]string{
	"CA": {".ca", ".com", ".net"},
	"AE": {".ae", ".com", ".net"},
	"QA": {".qa", ".com", ".net"},
	"US": {".com", ".net", ".us"},
	"GB": {".co.uk", ".com", ".net"},
	"UK": {".co.uk", ".com", ".net"},
	"AU": {".com.au", ".com", ".net"},
	"IN": {".in", ".co.in", ".com"},
	"SA": {".sa", ".com.sa", ".com"},
	"KW": {".kw", ".com", ".net"},
	"BH": {".bh", ".com", ".net"},
	"OM": {".om", ".com", ".net"},
	"JO": {".jo", ".com.jo", ".com"},
	"LB": {".com.lb", ".com", ".net"},
	"EG": {".com.eg", ".com", ".net"},
	"PK": {".com.pk", ".pk", ".com"},
}

var defaultTLDs = []string{".com", ".net"}

// articleWords are kept in the "brand+articles" cleaning pass.
var articleWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"al": true, "el": true, "le": true, "la": true, "les": true, "de": true,
}

// entitySuffixes are legal-entity suffixes stripped in every pass.
var entitySuffixes = map[string]bool{
	"llc": true, "ltd": true, "inc": true, "corp": true, "co": true,
	"fzc": true, "fze": true, "llp": true, "plc": true, "pvt": true,
	"gmbh": true, "srl": true, "sa": true, "bv": true,
}

// stripAlways is the generic-business-word set removed in the "brand-only"
// pass: category words that add no identity (restaurant, shop, services, ...).
var stripAlways = map[string]bool{
	"restaurant": true, "cafe": true, "shop": true, "store": true,
	"services": true, "service": true, "company": true, "group": true,
	"center": true, "centre": true, "clinic": true, "studio": true,
	"salon": true, "repair": true, "repairs": true, "garage": true,
	"auto": true, "automotive": true, "plumbing": true, "electric": true,
	"electrical": true, "construction": true, "contracting": true,
	"contractors": true, "trading": true, "enterprises": true,
	"solutions": true, "consulting": true, "consultants": true,
	"international": true, "global": true, "national": true,
	"restaurant&grill": true, "bakery": true, "bar": true, "grill": true,
	"hotel": true, "motel": true, "inn": true, "market": true,
	"supermarket": true, "pharmacy": true, "hospital": true, "medical": true,
}

var acronymPattern = regexp.MustCompile(`^[A-Z]{2,5}$`)
var nonWordPattern = regexp.MustCompile(`[^a-z0-9]+`)

// cleanMode selects which words get stripped during cleaning.
type cleanMode int

const (
	modeBrandOnly cleanMode = iota // strip articles + generic words + entity suffixes
	modeKeepArticles
	modeFullMinimal // strip only entity suffixes
)

// tldsFor returns the preferred TLD list for a country code (case-insensitive).
func tldsFor(country string) []string {
	if tlds, ok := countryTLDs[strings.ToUpper(country)]; ok {
		return tlds
	}
	return defaultTLDs
}

// cleanWords tokenizes name and applies mode's stripping rules.
func cleanWords(name string, mode cleanMode) []string {
	tokens := tokenize(name)
	var out []string
	for _, w := range tokens {
		lower := strings.ToLower(w)
		if entitySuffixes[lower] {
			continue
		}
		if mode == modeFullMinimal {
			out = append(out, lower)
			continue
		}
		if mode == modeKeepArticles && articleWords[lower] {
			out = append(out, lower)
			continue
		}
		if stripAlways[lower] {
			continue
		}
		if mode == modeBrandOnly && articleWords[lower] {
			continue
		}
		out = append(out, lower)
	}
	return out
}

func tokenize(name string) []string {
	normalized := nonWordPattern.ReplaceAllString(strings.ToLower(name), " ")
	fields := strings.Fields(normalized)
	return fields
}

// bases builds the candidate "base" strings (pre-TLD, pre-variant) from a
// cleaned word list: full-joined, first-two, first-three, hyphenated, and
// acronym+first-word when the original name contains an all-caps 2-5 letter
// token (the first cleaned word other than the acronym itself; entity
// suffixes such as "LLC" are not treated as acronyms).
func bases(original string, words []string) []string {
	if len(words) == 0 {
		return nil
	}
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	add(strings.Join(words, ""))
	if len(words) >= 2 {
		add(strings.Join(words[:2], ""))
		add(strings.Join(words, "-"))
	}
	if len(words) >= 3 {
		add(strings.Join(words[:3], ""))
	}
	// The caps pattern needs the original casing, so split without tokenize.
	rawTokens := strings.FieldsFunc(original, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, tok := range rawTokens {
		acronym := strings.ToLower(tok)
		if !acronymPattern.MatchString(tok) || entitySuffixes[acronym] {
			continue
		}
		for _, w := range words {
			if w != acronym {
				add(acronym + w)
				break
			}
		}
	}
	return out
}

// singularPluralVariants generates the morphological variants of base the
// original uses to catch both singular and plural registrations.
func singularPluralVariants(base string) []string {
	variants := map[string]bool{base: true}
	switch {
	case strings.HasSuffix(base, "ies") && len(base) > 3:
		variants[base[:len(base)-3]+"y"] = true
	case strings.HasSuffix(base, "ses") || strings.HasSuffix(base, "xes") ||
		strings.HasSuffix(base, "zes") || strings.HasSuffix(base, "ches") || strings.HasSuffix(base, "shes"):
		variants[strings.TrimSuffix(base, "es")] = true
	case strings.HasSuffix(base, "s") && !strings.HasSuffix(base, "ss"):
		variants[strings.TrimSuffix(base, "s")] = true
		variants[base+"es"] = true
	default:
		if strings.HasSuffix(base, "sh") || strings.HasSuffix(base, "ch") ||
			strings.HasSuffix(base, "x") || strings.HasSuffix(base, "z") {
			variants[base+"es"] = true
		}
		variants[base+"s"] = true
	}
	out := make([]string, 0, len(variants))
	for v := range variants {
		out = append(out, v)
	}
	return out
}

// arabicTransliterationVariants simplifies common Arabic-name romanization
// patterns: drop a leading "al-"/"el-" article, and simplify a trailing
// "-ain"/"-een" to a shorter vowel form.
func arabicTransliterationVariants(base string) []string {
	var out []string
	for _, prefix := range []string{"al", "el"} {
		if strings.HasPrefix(base, prefix) && len(base) > len(prefix)+2 {
			out = append(out, base[len(prefix):])
		}
	}
	switch {
	case strings.HasSuffix(base, "ain"):
		out = append(out, strings.TrimSuffix(base, "ain")+"a")
	case strings.HasSuffix(base, "een"):
		out = append(out, strings.TrimSuffix(base, "een")+"i")
	}
	return out
}

// Candidates generates every domain candidate for name in country, longest
// base first, deduplicated.
func Candidates(name, country string) []string {
	tlds := tldsFor(country)
	seen := map[string]bool{}
	var baseList []string

	for _, mode := range []cleanMode{modeBrandOnly, modeKeepArticles, modeFullMinimal} {
		words := cleanWords(name, mode)
		for _, b := range bases(name, words) {
			if b == "" || seen[b] {
				continue
			}
			seen[b] = true
			baseList = append(baseList, b)
		}
	}

	// Expand every base with morphology + transliteration variants, still deduped.
	expanded := map[string]bool{}
	var allBases []string
	for _, b := range baseList {
		for _, v := range singularPluralVariants(b) {
			if !expanded[v] {
				expanded[v] = true
				allBases = append(allBases, v)
			}
		}
		for _, v := range arabicTransliterationVariants(b) {
			if !expanded[v] {
				expanded[v] = true
				allBases = append(allBases, v)
			}
		}
	}

	sortByLengthDesc(allBases)

	var candidates []string
	candidateSeen := map[string]bool{}
	for _, b := range allBases {
		for _, tld := range tlds {
			domain := b + tld
			if !candidateSeen[domain] {
				candidateSeen[domain] = true
				candidates = append(candidates, domain)
			}
		}
	}
	return candidates
}

func sortByLengthDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j-1]) < len(s[j]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
