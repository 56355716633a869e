// Package normalize turns a URL, an email address, or a bare host into the
// canonical domain key the rest of the pipeline stores and joins on.
package normalize

import (
	"net"
	"net/url"
	"strings"
)

// publicEmailDomains are major free-mail providers whose domains never
// identify a specific business.
var publicEmailDomains = map[string]bool{
	"gmail.com": true, "yahoo.com": true, "hotmail.com": true, "outlook.com": true,
	"icloud.com": true, "aol.com": true, "protonmail.com": true, "proton.me": true,
	"live.com": true, "msn.com": true, "mail.com": true, "yandex.com": true,
	"gmx.com": true, "zoho.com": true,
}

// publicEmailPrefixes catches locale variants of the big providers
// (gmail.co.uk, yahoo.ca, outlook.de, ...).
var publicEmailPrefixes = []string{"gmail.", "yahoo.", "hotmail.", "outlook.", "live.", "aol."}

// localeISPDomains are major consumer-ISP mail domains, treated as public
// the same way free webmail is: they identify a household, not a business.
var localeISPDomains = map[string]bool{
	"comcast.net": true, "verizon.net": true, "att.net": true, "sbcglobal.net": true,
	"rogers.com": true, "bell.net": true, "shaw.ca": true, "telus.net": true,
	"btinternet.com": true, "sky.com": true, "virginmedia.com": true,
	"etisalat.ae": true, "du.ae": true,
}

// Domain strips scheme, userinfo, path, query and port from input (a URL, a
// bare host, or an email address's domain part), lowercases it, strips a
// trailing dot and a leading "www.", and returns the normalized key. ok is
// false if the result has no dot or contains whitespace — not a valid
// domain key.
func Domain(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}

	if at := strings.LastIndex(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		s = s[at+1:]
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return "", false
		}
		s = u.Host
	}

	if strings.ContainsAny(s, " \t\r\n") {
		return "", false
	}

	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, ".")

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	s = strings.TrimPrefix(s, "www.")

	if !strings.Contains(s, ".") || strings.ContainsAny(s, " \t\r\n") {
		return "", false
	}
	return s, true
}

// IsPublicEmailDomain reports whether domain belongs to a free webmail or
// consumer-ISP provider rather than a specific business.
func IsPublicEmailDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if publicEmailDomains[domain] || localeISPDomains[domain] {
		return true
	}
	for _, prefix := range publicEmailPrefixes {
		if strings.HasPrefix(domain, prefix) {
			return true
		}
	}
	return false
}

// EmailDomain extracts and normalizes the domain part of an email address.
func EmailDomain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", false
	}
	return Domain(email[at+1:])
}
