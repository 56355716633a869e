// Package directory holds the domain sets every search-based verifier
// shares: directory/social listing hosts and public webmail hosts, neither
// of which can ever be "the business's website."
package directory

import "strings"

// listingHosts are directories, social networks, marketplaces, aggregators
// and similar platforms that host a business's listing rather than being
// owned by it.
var listingHosts = map[string]bool{
	"yelp.com": true, "facebook.com": true, "instagram.com": true,
	"linkedin.com": true, "twitter.com": true, "x.com": true,
	"tripadvisor.com": true, "yellowpages.com": true, "yellowpages.ca": true,
	"maps.google.com": true, "google.com": true, "zomato.com": true,
	"foursquare.com": true, "booking.com": true, "amazon.com": true,
	"ebay.com": true, "bayut.com": true, "dubizzle.com": true,
	"canada411.ca": true, "wikipedia.org": true, "medium.com": true,
	"wordpress.com": true, "blogspot.com": true, "wix.com": true,
	"squarespace.com": true, "justdial.com": true, "angi.com": true,
	"bbb.org": true, "manta.com": true, "mapquest.com": true,
	"opentable.com": true, "grubhub.com": true, "doordash.com": true,
}

// publicMailboxHosts are consumer webmail providers: an email at one of
// these can never stand in for a business's own domain.
var publicMailboxHosts = map[string]bool{
	"gmail.com": true, "yahoo.com": true, "hotmail.com": true,
	"outlook.com": true, "icloud.com": true, "aol.com": true,
	"protonmail.com": true, "live.com": true, "msn.com": true,
}

// IsListing reports whether host (or any of its parents) is a known
// directory/social listing host.
func IsListing(host string) bool {
	return matchesAnySuffix(host, listingHosts)
}

// IsPublicMailbox reports whether host is a known free webmail provider.
func IsPublicMailbox(host string) bool {
	return matchesAnySuffix(host, publicMailboxHosts)
}

func matchesAnySuffix(host string, set map[string]bool) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if set[host] {
		return true
	}
	for known := range set {
		if strings.HasSuffix(host, "."+known) {
			return true
		}
	}
	return false
}
