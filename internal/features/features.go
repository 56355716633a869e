// Package features loads the uniform per-business feature bundle the scorer
// and confidence model consume: contacts split by provenance, and linked
// domains bucketed by classification status.
package features

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/clients/normalize"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// Bundle is one business's feature snapshot.
type Bundle struct {
	Emails         []string
	BusinessEmails []string // non-public domain
	FreeEmails     []string // public/free-provider domain
	Phones         []string

	Domains                 []string
	VerifiedUnhostedDomains []string
	UnregisteredDomains     []string
	HostedDomains           []string
	ParkedDomains           []string
	RegisteredDomains       []string
	UnknownDomains          []string
	DomainStatusCounts      map[store.DomainStatus]int
}

// bucket is which Bundle slice a DomainStatus contributes to.
type bucket int

const (
	bucketUnknown bucket = iota
	bucketHosted
	bucketParked
	bucketRegistered
	bucketUnregistered
	bucketVerifiedUnhosted
)

func bucketFor(status store.DomainStatus) bucket {
	switch status {
	case store.DomainStatusHosted:
		return bucketHosted
	case store.DomainStatusParked:
		return bucketParked
	case store.DomainStatusRegisteredNoWeb, store.DomainStatusRegisteredDNSOnly:
		return bucketRegistered
	case store.DomainStatusUnregisteredCandidate:
		return bucketUnregistered
	case store.DomainStatusVerifiedUnhosted:
		return bucketVerifiedUnhosted
	default:
		// new, dns_error, rdap_error, and the remaining legacy statuses all
		// land here: none of them is positive evidence either way.
		return bucketUnknown
	}
}

// Loader fetches contacts and domain links from the store to build bundles.
type Loader struct {
	contacts *store.ContactStore
	links    *store.LinkStore
	domains  *store.DomainStore
}

// New builds a Loader over db.
func New(db *store.Store) *Loader {
	return &Loader{
		contacts: store.NewContactStore(db.DB),
		links:    store.NewLinkStore(db.DB),
		domains:  store.NewDomainStore(db.DB),
	}
}

// Load builds one Bundle per business id.
func (l *Loader) Load(ctx context.Context, businessIDs []uuid.UUID) (map[uuid.UUID]Bundle, error) {
	out := make(map[uuid.UUID]Bundle, len(businessIDs))
	for _, id := range businessIDs {
		b, err := l.loadOne(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load features for %s: %w", id, err)
		}
		out[id] = b
	}
	return out, nil
}

func (l *Loader) loadOne(ctx context.Context, businessID uuid.UUID) (Bundle, error) {
	b := Bundle{DomainStatusCounts: map[store.DomainStatus]int{}}

	contacts, err := l.contacts.ListByBusiness(ctx, businessID)
	if err != nil {
		return Bundle{}, err
	}
	for _, c := range contacts {
		switch c.ContactType {
		case store.ContactTypeEmail:
			b.Emails = append(b.Emails, c.Value)
			if domain, ok := normalize.EmailDomain(c.Value); ok && normalize.IsPublicEmailDomain(domain) {
				b.FreeEmails = append(b.FreeEmails, c.Value)
			} else {
				b.BusinessEmails = append(b.BusinessEmails, c.Value)
			}
		case store.ContactTypePhone:
			b.Phones = append(b.Phones, c.Value)
		}
	}

	links, err := l.links.ListByBusiness(ctx, businessID)
	if err != nil {
		return Bundle{}, err
	}
	for _, link := range links {
		d, err := l.domains.GetByID(ctx, link.DomainID)
		if err != nil {
			continue // a domain row can vanish under concurrent cleanup; skip rather than fail the whole bundle
		}
		b.Domains = append(b.Domains, d.Domain)
		b.DomainStatusCounts[d.Status]++
		switch bucketFor(d.Status) {
		case bucketHosted:
			b.HostedDomains = append(b.HostedDomains, d.Domain)
		case bucketParked:
			b.ParkedDomains = append(b.ParkedDomains, d.Domain)
		case bucketRegistered:
			b.RegisteredDomains = append(b.RegisteredDomains, d.Domain)
		case bucketUnregistered:
			b.UnregisteredDomains = append(b.UnregisteredDomains, d.Domain)
		case bucketVerifiedUnhosted:
			b.VerifiedUnhostedDomains = append(b.VerifiedUnhostedDomains, d.Domain)
		default:
			b.UnknownDomains = append(b.UnknownDomains, d.Domain)
		}
	}
	return b, nil
}
