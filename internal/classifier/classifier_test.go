package classifier

import (
	"testing"

	"github.com/5n10/domain-lead-pipeline/internal/clients/dnsclient"
	"github.com/5n10/domain-lead-pipeline/internal/clients/httpprobe"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func TestDecideStatusPrecedence(t *testing.T) {
	cases := []struct {
		name string
		d    decision
		want store.DomainStatus
	}{
		{"parked beats everything", decision{parked: true, hosted: true, hasMX: true}, store.DomainStatusParked},
		{"hosted beats mx", decision{hosted: true, hasMX: true}, store.DomainStatusHosted},
		{"mx without web", decision{hasMX: true, anyDNSRecord: true}, store.DomainStatusRegisteredNoWeb},
		{"dns only, no mx", decision{anyDNSRecord: true}, store.DomainStatusRegisteredDNSOnly},
		{"dns all failed", decision{dnsAllFailed: true}, store.DomainStatusDNSError},
		{"rdap unreachable, dns clean negative", decision{rdapUnreachable: true}, store.DomainStatusUnregisteredCandidate},
		{"no evidence at all", decision{}, store.DomainStatusUnregisteredCandidate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decideStatus(tc.d); got != tc.want {
				t.Errorf("decideStatus(%+v) = %v, want %v", tc.d, got, tc.want)
			}
		})
	}
}

func TestIsHostedByDNSRecordAloneEvenIfHTTPUnreachable(t *testing.T) {
	// A record present but the webserver is down/firewalled: still hosted.
	if !isHosted(true, false, false, false, false) {
		t.Error("expected A record alone to count as hosted")
	}
	if !isHosted(false, true, false, false, false) {
		t.Error("expected AAAA record alone to count as hosted")
	}
	if !isHosted(false, false, true, false, false) {
		t.Error("expected CNAME record alone to count as hosted")
	}
}

func TestIsHostedByHTTPOrTCPAlone(t *testing.T) {
	if !isHosted(false, false, false, true, false) {
		t.Error("expected HTTP success alone to count as hosted")
	}
	if !isHosted(false, false, false, false, true) {
		t.Error("expected open TCP port alone to count as hosted")
	}
}

func TestIsHostedFalseWithNoEvidence(t *testing.T) {
	if isHosted(false, false, false, false, false) {
		t.Error("expected no evidence to not count as hosted")
	}
}

func TestDetectParkedByHostHint(t *testing.T) {
	c := &Classifier{}
	http := httpprobe.Result{Succeeded: true, FinalURL: "https://example.sedoparking.com/"}
	if !c.detectParked(http, dnsclient.HostResult{}, dnsclient.HostResult{}) {
		t.Error("expected host-hint match to detect parking")
	}
}

func TestDetectParkedByKeyword(t *testing.T) {
	c := &Classifier{}
	http := httpprobe.Result{Succeeded: true, FinalURL: "https://example.com/", Body: "This domain may be for sale. Contact us."}
	if !c.detectParked(http, dnsclient.HostResult{}, dnsclient.HostResult{}) {
		t.Error("expected keyword match to detect parking")
	}
}

func TestDetectParkedFalseForRealSite(t *testing.T) {
	c := &Classifier{}
	http := httpprobe.Result{Succeeded: true, FinalURL: "https://example.com/", Body: "Welcome to Acme Plumbing, serving the city since 1990."}
	if c.detectParked(http, dnsclient.HostResult{}, dnsclient.HostResult{}) {
		t.Error("expected no false-positive parking match")
	}
}

func TestDetectParkedFalseWithoutHTTPOrCNAMEEvidence(t *testing.T) {
	c := &Classifier{}
	apex := dnsclient.HostResult{}
	www := dnsclient.HostResult{}
	http := httpprobe.Result{} // sweep failed entirely, only CNAME evidence available
	// CNAMETargets is derived from an unexported field; simulate via Lookup's shape
	// by checking the no-evidence path returns false when nothing points at a parker.
	if c.detectParked(http, apex, www) {
		t.Error("expected no parking signal with no HTTP success and no CNAME hints")
	}
}
