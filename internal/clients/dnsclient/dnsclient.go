// Package dnsclient resolves authoritative DNS records for the domain
// classifier using miekg/dns directly against the system resolver.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// RecordSet is the presence/error state of one record type for one host.
type RecordSet struct {
	Exists bool
	Errors []string
}

// HostResult is everything resolved for one host (apex or "www.").
type HostResult struct {
	Host  string
	A     RecordSet
	AAAA  RecordSet
	CNAME RecordSet
	MX    RecordSet
	NS    RecordSet

	cnameTargets []string
}

// AnyRecord reports whether any record type resolved for this host.
func (h HostResult) AnyRecord() bool {
	return h.A.Exists || h.AAAA.Exists || h.CNAME.Exists || h.MX.Exists || h.NS.Exists
}

// AnyError reports whether any record type failed with a transport/server error.
func (h HostResult) AnyError() bool {
	return len(h.A.Errors) > 0 || len(h.AAAA.Errors) > 0 || len(h.CNAME.Errors) > 0 ||
		len(h.MX.Errors) > 0 || len(h.NS.Errors) > 0
}

// CNAMETargets returns the lowercased CNAME target hostnames found for this host.
func (h HostResult) CNAMETargets() []string { return h.cnameTargets }

// Client resolves records against one or more upstream resolvers.
type Client struct {
	Timeout    time.Duration
	Nameserver string // "host:port"; empty uses the system resolver config.
}

// New builds a Client with the given per-query timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{Timeout: timeout}
}

func (c *Client) resolver() string {
	if c.Nameserver != "" {
		return c.Nameserver
	}
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return "8.8.8.8:53"
	}
	return cfg.Servers[0] + ":" + cfg.Port
}

// Lookup resolves A, AAAA, CNAME, MX, NS for host. Timeouts and NXDOMAIN/
// NoAnswer are recorded as absence, not error; transport/server failures are
// recorded in Errors.
func (c *Client) Lookup(ctx context.Context, host string) HostResult {
	result := HostResult{Host: host}
	var cnamesFromA, cnamesFromCNAME []string
	result.A, cnamesFromA = c.query(ctx, host, dns.TypeA)
	result.AAAA, _ = c.query(ctx, host, dns.TypeAAAA)
	result.CNAME, cnamesFromCNAME = c.query(ctx, host, dns.TypeCNAME)
	result.MX, _ = c.query(ctx, host, dns.TypeMX)
	result.NS, _ = c.query(ctx, host, dns.TypeNS)
	result.cnameTargets = append(cnamesFromA, cnamesFromCNAME...)
	return result
}

// query issues one DNS query and classifies the outcome. It also returns any
// CNAME targets observed in the answer section (useful even for A/AAAA
// queries, since a CNAME chain answers those too).
func (c *Client) query(ctx context.Context, host string, qtype uint16) (RecordSet, []string) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	client := new(dns.Client)
	client.Timeout = c.Timeout
	client.Net = "udp"

	resp, _, err := client.ExchangeContext(ctx, m, c.resolver())
	var netErr net.Error
	if err != nil && errors.As(err, &netErr) && netErr.Timeout() {
		return RecordSet{}, nil // a timeout counts as absence, not as an error
	}
	if err != nil {
		return RecordSet{Errors: []string{fmt.Sprintf("%s query: %v", dns.TypeToString[qtype], err)}}, nil
	}
	if resp.Rcode == dns.RcodeServerFailure || resp.Rcode == dns.RcodeRefused {
		return RecordSet{Errors: []string{fmt.Sprintf("%s query: server returned %s", dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode])}}, nil
	}

	var cnames []string
	for _, rr := range resp.Answer {
		if c, ok := rr.(*dns.CNAME); ok {
			cnames = append(cnames, strings.ToLower(dns.Fqdn(c.Target)))
		}
	}
	return RecordSet{Exists: len(resp.Answer) > 0}, cnames
}
