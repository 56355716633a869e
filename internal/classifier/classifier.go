// Package classifier determines a domain's presence status by combining
// RDAP, DNS and HTTP(+TCP) evidence, and drives the batch worker loop that
// claims unclassified domains and writes their verdicts.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/5n10/domain-lead-pipeline/internal/clients/dnsclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/clients/rdap"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// parkedKeywords are body substrings (checked lowercased) that indicate a
// parking-page placeholder rather than a real site.
var parkedKeywords = []string{
	"domain is for sale",
	"buy this domain",
	"this domain may be for sale",
	"parked free",
	"domain parking",
	"the owner of this domain",
	"related searches",
	"this web page is parked",
	"courtesy of",
	"future home of something",
	"this domain has expired",
	"renew now",
}

// parkedHostHints are hostnames/CNAME targets that are well-known parking
// services: a match is conclusive regardless of body content.
var parkedHostHints = []string{
	"sedoparking.com",
	"parkingcrew.net",
	"bodis.com",
	"dan.com",
	"afternic.com",
	"above.com",
	"hugedomains.com",
	"godaddy.com/park",
	"uniregistrymarket.link",
	"parklogic.com",
	"domainmarket.com",
	"voodoo.com",
}

// Diagnosis is the full evidence bundle behind one Classify call, mirrored
// into WhoisCheck.Raw for later inspection.
type Diagnosis struct {
	Domain         string
	Status         store.DomainStatus
	IsRegistered   *bool
	IsParked       bool
	HasA           bool
	HasAAAA        bool
	HasCNAME       bool
	HasMX          bool
	HasHTTP        bool
	HTTPStatus     int
	Registrar      string
	RDAPStatusCode int
	Diagnostics    map[string]any
}

// Config tunes the clients Classify builds if not overridden.
type Config struct {
	RDAPBaseURL string
	DNSTimeout  time.Duration
	HTTPConfig  httpprobe.Config
	ProbeTCP    bool
}

// Classifier resolves domain-presence status for individual domains and
// drives the batch loop over the store.
type Classifier struct {
	rdapClient *rdap.Client
	dnsClient  *dnsclient.Client
	httpClient *httpprobe.Client
	probeTCP   bool
	log        *logging.Logger
}

// New builds a Classifier from cfg.
func New(cfg Config, log *logging.Logger) *Classifier {
	if log == nil {
		log = logging.NewDefault("classifier")
	}
	base := cfg.RDAPBaseURL
	if base == "" {
		base = "https://rdap.org/domain"
	}
	return &Classifier{
		rdapClient: rdap.New(base, 10*time.Second),
		dnsClient:  dnsclient.New(cfg.DNSTimeout),
		httpClient: httpprobe.New(cfg.HTTPConfig),
		probeTCP:   cfg.ProbeTCP,
		log:        log,
	}
}

// Classify gathers RDAP, DNS and HTTP(+TCP) evidence for domain and reduces
// it to a single DomainStatus verdict.
//
// Status precedence, first match wins:
//  1. parked                  - parking-page evidence present
//  2. hosted                  - A/AAAA/CNAME record, HTTP success or open TCP port
//  3. registered_no_web       - has MX but no website
//  4. registered_dns_only     - DNS presence (any record) but no MX, no website
//  5. dns_error                - DNS queries all failed (transient, not registered/unregistered)
//  6. unregistered_candidate   - no DNS records of any kind and no DNS errors; a real gap
//  7. rdap_error                - RDAP failed and DNS was inconclusive (some queries errored)
//
// DNS is ground truth for registration: an RDAP 404 never by itself implies
// unregistered, since most ccTLD registries run no public RDAP service at all.
func (c *Classifier) Classify(ctx context.Context, domain string) Diagnosis {
	var wg sync.WaitGroup
	var rdapResult rdap.Result
	var apexDNS, wwwDNS dnsclient.HostResult
	var httpResult httpprobe.Result
	var tcpOpen bool

	wg.Add(3)
	go func() { defer wg.Done(); rdapResult, _ = c.rdapClient.Fetch(ctx, domain) }()
	go func() {
		defer wg.Done()
		apexDNS = c.dnsClient.Lookup(ctx, domain)
		wwwDNS = c.dnsClient.Lookup(ctx, "www."+domain)
	}()
	go func() { defer wg.Done(); httpResult = c.httpClient.Sweep(ctx, domain) }()
	wg.Wait()

	if c.probeTCP && !httpResult.Succeeded {
		tcpOpen = c.httpClient.TCPOpen(ctx, domain)
	}

	hasA := apexDNS.A.Exists || wwwDNS.A.Exists
	hasAAAA := apexDNS.AAAA.Exists || wwwDNS.AAAA.Exists
	hasCNAME := apexDNS.CNAME.Exists || wwwDNS.CNAME.Exists
	hasMX := apexDNS.MX.Exists
	hasNS := apexDNS.NS.Exists
	dnsAllFailed := apexDNS.AnyError() && wwwDNS.AnyError() && !hasA && !hasAAAA && !hasCNAME && !hasMX && !hasNS
	anyDNSRecord := hasA || hasAAAA || hasCNAME || hasMX || hasNS

	registrar := ""
	if rdapResult.Data != nil {
		registrar = rdap.Registrar(rdapResult.Data)
	}
	var isRegistered *bool
	if rdapResult.StatusCode > 0 {
		v := rdapResult.StatusCode >= 200 && rdapResult.StatusCode < 400
		isRegistered = &v
	}

	parked := c.detectParked(httpResult, apexDNS, wwwDNS)

	diag := Diagnosis{
		Domain:         domain,
		IsParked:       parked,
		HasA:           hasA,
		HasAAAA:        hasAAAA,
		HasCNAME:       hasCNAME,
		HasMX:          hasMX,
		HasHTTP:        httpResult.Succeeded,
		HTTPStatus:     httpResult.StatusCode,
		Registrar:      registrar,
		RDAPStatusCode: rdapResult.StatusCode,
		IsRegistered:   isRegistered,
		Diagnostics: map[string]any{
			"rdap_status_code": rdapResult.StatusCode,
			"has_ns":           hasNS,
			"tcp_open":         tcpOpen,
			"final_url":        httpResult.FinalURL,
		},
	}

	diag.Status = decideStatus(decision{
		parked:          parked,
		hosted:          isHosted(hasA, hasAAAA, hasCNAME, httpResult.Succeeded, tcpOpen),
		hasMX:           hasMX,
		anyDNSRecord:    anyDNSRecord,
		dnsAllFailed:    dnsAllFailed,
		dnsAnyError:     apexDNS.AnyError() || wwwDNS.AnyError(),
		rdapUnreachable: rdapResult.StatusCode == 0,
	})
	return diag
}

// isHosted reports whether a domain has a live web presence by any evidence:
// a resolvable A/AAAA/CNAME record is enough even if the webserver itself is
// unreachable or firewalled, since the domain is still demonstrably hosted.
func isHosted(hasA, hasAAAA, hasCNAME, httpSucceeded, tcpOpen bool) bool {
	return hasA || hasAAAA || hasCNAME || httpSucceeded || tcpOpen
}

// decision is the reduced boolean evidence decideStatus needs; kept separate
// from the network-calling Classify so the precedence table is unit-testable
// without a transport.
type decision struct {
	parked          bool
	hosted          bool
	hasMX           bool
	anyDNSRecord    bool
	dnsAllFailed    bool
	dnsAnyError     bool
	rdapUnreachable bool
}

// decideStatus applies the fixed precedence order: parked beats hosted beats
// registered-with-mail beats registered-dns-only beats dns-error beats
// unregistered-candidate beats rdap-error. DNS evidence always outranks RDAP:
// a clean DNS negative (no records, no DNS errors) is unregistered_candidate
// whether or not RDAP answered, since RDAP coverage is incomplete across
// ccTLDs. rdap_error is left for an RDAP failure while DNS was inconclusive.
func decideStatus(d decision) store.DomainStatus {
	switch {
	case d.parked:
		return store.DomainStatusParked
	case d.hosted:
		return store.DomainStatusHosted
	case d.hasMX:
		return store.DomainStatusRegisteredNoWeb
	case d.anyDNSRecord:
		return store.DomainStatusRegisteredDNSOnly
	case d.dnsAllFailed:
		return store.DomainStatusDNSError
	case !d.dnsAnyError:
		return store.DomainStatusUnregisteredCandidate
	case d.rdapUnreachable:
		return store.DomainStatusRDAPError
	default:
		return store.DomainStatusUnregisteredCandidate
	}
}

// detectParked matches the final response host (or any CNAME target) against
// the known parking-service hints, then falls back to a body keyword scan.
func (c *Classifier) detectParked(http httpprobe.Result, apex, www dnsclient.HostResult) bool {
	if http.Succeeded {
		finalHost := strings.ToLower(http.FinalURL)
		for _, hint := range parkedHostHints {
			if strings.Contains(finalHost, hint) {
				return true
			}
		}
		body := strings.ToLower(http.Body)
		for _, kw := range parkedKeywords {
			if strings.Contains(body, kw) {
				return true
			}
		}
	}
	for _, target := range append(apex.CNAMETargets(), www.CNAMETargets()...) {
		target = strings.ToLower(target)
		for _, hint := range parkedHostHints {
			if strings.Contains(target, hint) {
				return true
			}
		}
	}
	return false
}

// RunBatch claims up to limit unclassified domains, classifies each, and
// persists both the status transition and a WhoisCheck row, all inside one
// transaction so a crash mid-batch never leaves domains half-claimed.
func (c *Classifier) RunBatch(ctx context.Context, db *store.Store, limit int) (int, error) {
	processed := 0
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		domainStore := store.NewDomainStore(tx)
		domains, err := domainStore.ClaimBatch(ctx, limit)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		for _, d := range domains {
			diag := c.Classify(ctx, d.Domain)
			if err := domainStore.SetStatus(ctx, d.ID, diag.Status); err != nil {
				return fmt.Errorf("set status for %s: %w", d.Domain, err)
			}
			check := diagnosisToCheck(diag)
			check.DomainID = d.ID
			if _, err := domainStore.InsertWhoisCheck(ctx, check); err != nil {
				return fmt.Errorf("insert whois check for %s: %w", d.Domain, err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return processed, err
	}
	return processed, nil
}

func diagnosisToCheck(diag Diagnosis) store.WhoisCheck {
	registrar := diag.Registrar
	var registrarPtr *string
	if registrar != "" {
		registrarPtr = &registrar
	}
	httpStatus := diag.HTTPStatus
	parked := diag.IsParked
	hasA, hasAAAA, hasCNAME, hasMX, hasHTTP := diag.HasA, diag.HasAAAA, diag.HasCNAME, diag.HasMX, diag.HasHTTP

	return store.WhoisCheck{
		IsRegistered: diag.IsRegistered,
		IsParked:     &parked,
		HasA:         &hasA,
		HasAAAA:      &hasAAAA,
		HasCNAME:     &hasCNAME,
		HasMX:        &hasMX,
		HasHTTP:      &hasHTTP,
		HTTPStatus:   &httpStatus,
		Registrar:    registrarPtr,
		Raw:          store.JSONMap(diag.Diagnostics),
	}
}
