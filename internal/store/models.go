// Package store persists the domain-lead-pipeline schema: domains, whois
// checks, businesses, contacts, domain links, cities, outreach exports, job
// runs and job checkpoints.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DomainStatus is the closed enum a Domain's classification converges to.
// The last four values exist only for migrating data written by earlier
// (pre-canonical) classifier/scorer revisions; new classifier runs never emit them.
type DomainStatus string

const (
	DomainStatusNew                   DomainStatus = "new"
	DomainStatusHosted                DomainStatus = "hosted"
	DomainStatusParked                DomainStatus = "parked"
	DomainStatusRegisteredNoWeb       DomainStatus = "registered_no_web"
	DomainStatusRegisteredDNSOnly     DomainStatus = "registered_dns_only"
	DomainStatusUnregisteredCandidate DomainStatus = "unregistered_candidate"
	DomainStatusDNSError              DomainStatus = "dns_error"
	DomainStatusRDAPError             DomainStatus = "rdap_error"

	// Legacy statuses, kept only so older rows remain readable. Mapping to
	// their canonical replacement for any migration or display logic:
	//   verified_unhosted    -> registered_no_web
	//   enriched, checked    -> no single successor; treat as classified,
	//                           re-run the classifier to obtain a canonical status
	//   no_contacts          -> orthogonal to domain status, not a replacement
	//                           target; contact presence now lives in the
	//                           feature bundle, not the domain's status
	DomainStatusVerifiedUnhosted DomainStatus = "verified_unhosted"
	DomainStatusEnriched         DomainStatus = "enriched"
	DomainStatusNoContacts       DomainStatus = "no_contacts"
	DomainStatusChecked          DomainStatus = "checked"
)

// JSONMap is an opaque, freely-keyed map persisted as jsonb.
type JSONMap map[string]any

// Value/Scan let JSONMap round-trip through database/sql via sqlx.
func (m JSONMap) Value() (any, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		*m = JSONMap{}
		return nil
	}
	if len(b) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Domain is a normalized host with its latest classification.
type Domain struct {
	ID        uuid.UUID    `db:"id"`
	Domain    string       `db:"domain"`
	Status    DomainStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// WhoisCheck is one classification pass over a Domain.
type WhoisCheck struct {
	ID           uuid.UUID `db:"id"`
	DomainID     uuid.UUID `db:"domain_id"`
	IsRegistered *bool     `db:"is_registered"`
	IsParked     *bool     `db:"is_parked"`
	HasA         *bool     `db:"has_a"`
	HasAAAA      *bool     `db:"has_aaaa"`
	HasCNAME     *bool     `db:"has_cname"`
	HasMX        *bool     `db:"has_mx"`
	HasHTTP      *bool     `db:"has_http"`
	HTTPStatus   *int      `db:"http_status"`
	Registrar    *string   `db:"registrar"`
	Raw          JSONMap   `db:"raw"`
	CheckedAt    time.Time `db:"checked_at"`
}

// City groups businesses geographically.
type City struct {
	ID      uuid.UUID `db:"id"`
	Name    string    `db:"name"`
	Country *string   `db:"country"`
	Region  *string   `db:"region"`
	BBox    *string   `db:"bbox"`
}

// Business is one imported record (primarily from OSM) and the pipeline's
// working state about it: verifier results (in Raw), score, export status.
type Business struct {
	ID          uuid.UUID  `db:"id"`
	Source      string     `db:"source"`
	SourceID    string     `db:"source_id"`
	Name        *string    `db:"name"`
	Category    *string    `db:"category"`
	WebsiteURL  *string    `db:"website_url"`
	Address     *string    `db:"address"`
	Lat         *float64   `db:"lat"`
	Lon         *float64   `db:"lon"`
	LeadScore   *int       `db:"lead_score"`
	ScoreReasons JSONMap   `db:"score_reasons"`
	ScoredAt    *time.Time `db:"scored_at"`
	Raw         JSONMap    `db:"raw"`
	CityID      *uuid.UUID `db:"city_id"`
	CreatedAt   time.Time  `db:"created_at"`
}

// ContactType enumerates BusinessContact.ContactType.
type ContactType string

const (
	ContactTypeEmail ContactType = "email"
	ContactTypePhone ContactType = "phone"
)

// BusinessContact is one email or phone belonging to a Business.
type BusinessContact struct {
	ID          uuid.UUID   `db:"id"`
	BusinessID  uuid.UUID   `db:"business_id"`
	ContactType ContactType `db:"contact_type"`
	Value       string      `db:"value"`
	Source      *string     `db:"source"`
	CreatedAt   time.Time   `db:"created_at"`
}

// LinkSource enumerates how a BusinessDomainLink was discovered.
type LinkSource string

const (
	LinkSourceWebsite  LinkSource = "website"
	LinkSourceEmail    LinkSource = "email"
	LinkSourceVerifier LinkSource = "verifier"
)

// BusinessDomainLink records that a Business is associated with a Domain, and how.
type BusinessDomainLink struct {
	ID         uuid.UUID  `db:"id"`
	BusinessID uuid.UUID  `db:"business_id"`
	DomainID   uuid.UUID  `db:"domain_id"`
	Source     LinkSource `db:"source"`
	CreatedAt  time.Time  `db:"created_at"`
}

// ExportStatus enumerates BusinessOutreachExport.Status.
type ExportStatus string

const (
	ExportStatusQueued ExportStatus = "queued"
	ExportStatusSent   ExportStatus = "sent"
	ExportStatusFailed ExportStatus = "failed"
)

// BusinessOutreachExport records that a Business was selected for a platform export.
type BusinessOutreachExport struct {
	ID         uuid.UUID    `db:"id"`
	BusinessID uuid.UUID    `db:"business_id"`
	Platform   string       `db:"platform"`
	Status     ExportStatus `db:"status"`
	ExportedAt time.Time    `db:"exported_at"`
	Raw        JSONMap      `db:"raw"`
}

// JobRunStatus enumerates JobRun.Status.
type JobRunStatus string

const (
	JobRunStatusRunning JobRunStatus = "running"
	JobRunStatusSuccess JobRunStatus = "success"
	JobRunStatusFailed  JobRunStatus = "failed"
)

// GlobalScope is the normalized scope for jobs/checkpoints that don't partition.
const GlobalScope = "__global__"

// JobRun is one execution of a named, optionally-scoped batch job.
type JobRun struct {
	ID             uuid.UUID    `db:"id"`
	JobName        string       `db:"job_name"`
	Scope          string       `db:"scope"`
	Status         JobRunStatus `db:"status"`
	StartedAt      time.Time    `db:"started_at"`
	FinishedAt     *time.Time   `db:"finished_at"`
	ProcessedCount int          `db:"processed_count"`
	Details        JSONMap      `db:"details"`
	Error          *string      `db:"error"`
}

// JobCheckpoint is durable per-(job,scope,key) progress state.
type JobCheckpoint struct {
	ID              uuid.UUID  `db:"id"`
	JobRunID        *uuid.UUID `db:"job_run_id"`
	JobName         string     `db:"job_name"`
	Scope           string     `db:"scope"`
	CheckpointKey   string     `db:"checkpoint_key"`
	CheckpointValue string     `db:"checkpoint_value"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// NormalizeScope maps an empty/blank scope to GlobalScope.
func NormalizeScope(scope string) string {
	if scope == "" {
		return GlobalScope
	}
	return scope
}
