// Package contacts synthesizes role-address contacts for MX-confirmed
// unhosted domains and exports them to CSV, the lead pipeline's oldest
// enrichment path, predating the per-source verifier portfolio.
package contacts

import (
	"context"
	"fmt"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

const jobName = "enrich_role_emails"

// rolePrefixes are the local-parts every MX-confirmed domain is assumed to
// answer at, in the absence of a crawled mailbox list.
var rolePrefixes = []string{"info", "admin", "sales", "support", "contact"}

// roleContactSource tags a synthesized role-address contact; export flips it
// to roleExportedSource once written so the next run doesn't repeat it.
const (
	roleContactSource  = "role"
	roleExportedSource = "role_exported"
)

// BuildRoleEmails returns the standard role addresses for domain.
func BuildRoleEmails(domain string) []string {
	out := make([]string, len(rolePrefixes))
	for i, prefix := range rolePrefixes {
		out[i] = fmt.Sprintf("%s@%s", prefix, domain)
	}
	return out
}

// Enricher synthesizes role-address contacts for domains the classifier has
// confirmed are unhosted-but-registered with a working mail exchanger.
type Enricher struct {
	db  *store.Store
	log *logging.Logger
}

// New builds an Enricher.
func New(db *store.Store, log *logging.Logger) *Enricher {
	if log == nil {
		log = logging.NewDefault("contacts")
	}
	return &Enricher{db: db, log: log}
}

// RunBatch inspects up to limit registered_no_web domains, confirms MX
// presence from the latest classification pass, and synthesizes role-address
// contacts for every business linked to each qualifying domain. Domains
// without MX, or whose linked businesses already carry role contacts, are
// skipped; this makes reruns idempotent without a separate "enriched" marker.
func (e *Enricher) RunBatch(ctx context.Context, limit int) (int, error) {
	domainStore := store.NewDomainStore(e.db.DB)
	linkStore := store.NewLinkStore(e.db.DB)
	contactStore := store.NewContactStore(e.db.DB)

	domains, err := domainStore.ListByStatus(ctx, store.DomainStatusRegisteredNoWeb, limit)
	if err != nil {
		return 0, fmt.Errorf("list registered-no-web domains: %w", err)
	}

	processed := 0
	for _, d := range domains {
		check, err := domainStore.LatestWhoisCheck(ctx, d.ID)
		if err != nil || check.HasMX == nil || !*check.HasMX {
			continue
		}

		links, err := linkStore.ListByDomain(ctx, d.ID)
		if err != nil {
			e.log.WithField("domain", d.Domain).WithField("error", err).Error("list links for role-email enrichment")
			continue
		}
		if len(links) == 0 {
			continue
		}

		emails := BuildRoleEmails(d.Domain)
		for _, link := range links {
			existing, err := contactStore.ListByBusiness(ctx, link.BusinessID)
			if err != nil {
				continue
			}
			if hasRoleContact(existing) {
				continue
			}
			for _, email := range emails {
				src := roleContactSource
				_, _ = contactStore.Insert(ctx, store.BusinessContact{
					BusinessID:  link.BusinessID,
					ContactType: store.ContactTypeEmail,
					Value:       email,
					Source:      &src,
				})
			}
		}
		processed++
	}
	return processed, nil
}

func hasRoleContact(contacts []store.BusinessContact) bool {
	for _, c := range contacts {
		if c.Source != nil && (*c.Source == roleContactSource || *c.Source == roleExportedSource) {
			return true
		}
	}
	return false
}
