// Package scoring computes a business's lead score: a pure function of the
// business, its feature bundle, and its verification confidence. No clock,
// no randomness, no database access.
package scoring

import (
	"regexp"
	"strings"

	"github.com/5n10/domain-lead-pipeline/internal/confidence"
	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// highCategories get the +20 bonus; mediumCategories get +10; anything else
// non-empty gets +5.
var highCategories = map[string]bool{
	"trades":      true,
	"contractors": true,
}

var mediumCategories = map[string]bool{
	"professional_services": true,
	"retail":                true,
	"health":                true,
	"food":                  true,
	"auto":                  true,
}

// domainTLDPattern matches a bare name that is itself shaped like a domain:
// letters/digits/hyphens ending in a short known TLD, no whitespace anywhere.
var domainTLDPattern = regexp.MustCompile(`^[a-z0-9-]+\.(com|net|org|ca|ae|co|io|biz|info|us|uk)$`)

// hasWebPresenceElsewhereStatuses are linked-domain statuses that count as
// "the business has a web presence somewhere" even without website_url set.
var hasWebPresenceElsewhereStatuses = map[store.DomainStatus]bool{
	store.DomainStatusHosted:            true,
	store.DomainStatusParked:            true,
	store.DomainStatusRegisteredNoWeb:   true,
	store.DomainStatusRegisteredDNSOnly: true,
}

// ChainSet is the Wikidata-sourced branded-chain name set. It is supplied by
// the caller (loaded once, lazily, and cached process-wide) rather than
// looked up globally here, so Score stays a pure function of its arguments.
type ChainSet map[string]bool

// Result is the scorer's output: the numeric score plus every signal that
// contributed to it, for operator-facing debugging.
type Result struct {
	Score   int
	Reasons map[string]any
}

// Score computes (score, reasons) for b given its feature bundle, its
// verification confidence level, and the chain-name set disqualification
// check relies on. website_url present forces 0 regardless of every other
// signal.
func Score(b store.Business, bundle features.Bundle, level confidence.Level, chains ChainSet) Result {
	reasons := map[string]any{"confidence": string(level)}

	if b.WebsiteURL != nil && strings.TrimSpace(*b.WebsiteURL) != "" {
		reasons["disqualified"] = "has_website_url"
		return Result{Score: 0, Reasons: reasons}
	}

	if isBrandedChain(b, chains) {
		reasons["disqualified"] = "branded_chain"
		return Result{Score: 0, Reasons: reasons}
	}

	if hasWebPresenceElsewhere(bundle) {
		reasons["disqualified"] = "web_presence_elsewhere"
		return Result{Score: 0, Reasons: reasons}
	}

	score := 0
	score += 25
	reasons["no_website_bonus"] = 25

	switch {
	case len(bundle.BusinessEmails) > 0:
		score += 20
		reasons["email_bonus"] = 20
	case len(bundle.Emails) > 0:
		score += 5
		reasons["email_bonus"] = 5
	}

	if len(bundle.Phones) > 0 {
		score += 15
		reasons["phone_bonus"] = 15
	}

	category := ""
	if b.Category != nil {
		category = strings.ToLower(strings.TrimSpace(*b.Category))
	}
	switch {
	case highCategories[category]:
		score += 20
		reasons["category_bonus"] = 20
	case mediumCategories[category]:
		score += 10
		reasons["category_bonus"] = 10
	case category != "":
		score += 5
		reasons["category_bonus"] = 5
	}

	score = applyCaps(score, b, bundle, level, reasons)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	reasons["final_score"] = score
	return Result{Score: score, Reasons: reasons}
}

func applyCaps(score int, b store.Business, bundle features.Bundle, level confidence.Level, reasons map[string]any) int {
	capAt := func(limit int, reasonKey string) {
		if score > limit {
			score = limit
			reasons[reasonKey] = limit
		}
	}

	hasQualifiedDomain := len(bundle.HostedDomains) > 0 || len(bundle.ParkedDomains) > 0 ||
		len(bundle.RegisteredDomains) > 0 || len(bundle.VerifiedUnhostedDomains) > 0 ||
		len(bundle.UnregisteredDomains) > 0
	if len(bundle.UnknownDomains) > 0 && !hasQualifiedDomain {
		capAt(10, "cap_unknown_domains")
	}

	if b.Name != nil && looksLikeDomain(*b.Name) {
		capAt(15, "cap_name_looks_like_domain")
	}

	if len(bundle.Emails) == 0 && len(bundle.Phones) == 0 {
		capAt(5, "cap_no_contacts")
	}

	switch level {
	case confidence.LevelUnverified:
		capAt(35, "cap_unverified_confidence")
	case confidence.LevelLow:
		capAt(50, "cap_low_confidence")
	}

	return score
}

// looksLikeDomain matches business names that are themselves a bare domain
// (e.g. "iRepair.ca"): these are near-certainly already websites mislabeled
// as businesses, not leads.
func looksLikeDomain(name string) bool {
	trimmed := strings.TrimSpace(name)
	if strings.ContainsAny(trimmed, " \t\n") {
		return false
	}
	return domainTLDPattern.MatchString(strings.ToLower(trimmed))
}

func isBrandedChain(b store.Business, chains ChainSet) bool {
	if raw, ok := b.Raw["brand:wikidata"]; ok && raw != nil && raw != "" {
		return true
	}
	if raw, ok := b.Raw["operator:wikidata"]; ok && raw != nil && raw != "" {
		return true
	}
	if raw, ok := b.Raw["brand"]; ok && raw != nil && raw != "" {
		return true
	}
	if b.Name == nil || chains == nil {
		return false
	}
	return chains[strings.ToLower(strings.TrimSpace(*b.Name))]
}

func hasWebPresenceElsewhere(bundle features.Bundle) bool {
	for status, count := range bundle.DomainStatusCounts {
		if count > 0 && hasWebPresenceElsewhereStatuses[status] {
			return true
		}
	}
	return false
}
