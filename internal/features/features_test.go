package features

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

func newMockLoader(t *testing.T) (*Loader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "postgres")
	return &Loader{
		contacts: store.NewContactStore(sqlxDB),
		links:    store.NewLinkStore(sqlxDB),
		domains:  store.NewDomainStore(sqlxDB),
	}, mock
}

func TestLoadOneBucketsDomainsByStatus(t *testing.T) {
	loader, mock := newMockLoader(t)
	businessID := uuid.New()
	hostedDomainID, parkedDomainID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, business_id, contact_type, value, source, created_at\s+FROM business_contacts WHERE business_id = \$1`).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "contact_type", "value", "source", "created_at"}).
			AddRow(uuid.New(), businessID, store.ContactTypeEmail, "owner@acme.com", nil, now).
			AddRow(uuid.New(), businessID, store.ContactTypeEmail, "info@gmail.com", nil, now).
			AddRow(uuid.New(), businessID, store.ContactTypePhone, "+15551234567", nil, now))

	mock.ExpectQuery(`SELECT id, business_id, domain_id, source, created_at\s+FROM business_domain_links WHERE business_id = \$1`).
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "domain_id", "source", "created_at"}).
			AddRow(uuid.New(), businessID, hostedDomainID, store.LinkSourceWebsite, now).
			AddRow(uuid.New(), businessID, parkedDomainID, store.LinkSourceEmail, now))

	mock.ExpectQuery(`SELECT id, domain, status, created_at, updated_at FROM domains WHERE id = \$1`).
		WithArgs(hostedDomainID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "domain", "status", "created_at", "updated_at"}).
			AddRow(hostedDomainID, "acme.com", store.DomainStatusHosted, now, now))

	mock.ExpectQuery(`SELECT id, domain, status, created_at, updated_at FROM domains WHERE id = \$1`).
		WithArgs(parkedDomainID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "domain", "status", "created_at", "updated_at"}).
			AddRow(parkedDomainID, "parked-example.com", store.DomainStatusParked, now, now))

	bundle, err := loader.loadOne(context.Background(), businessID)
	if err != nil {
		t.Fatalf("loadOne: %v", err)
	}
	if len(bundle.BusinessEmails) != 1 || bundle.BusinessEmails[0] != "owner@acme.com" {
		t.Errorf("BusinessEmails = %v", bundle.BusinessEmails)
	}
	if len(bundle.FreeEmails) != 1 || bundle.FreeEmails[0] != "info@gmail.com" {
		t.Errorf("FreeEmails = %v", bundle.FreeEmails)
	}
	if len(bundle.Phones) != 1 {
		t.Errorf("Phones = %v", bundle.Phones)
	}
	if len(bundle.HostedDomains) != 1 || bundle.HostedDomains[0] != "acme.com" {
		t.Errorf("HostedDomains = %v", bundle.HostedDomains)
	}
	if len(bundle.ParkedDomains) != 1 {
		t.Errorf("ParkedDomains = %v", bundle.ParkedDomains)
	}
	if bundle.DomainStatusCounts[store.DomainStatusHosted] != 1 {
		t.Errorf("DomainStatusCounts = %v", bundle.DomainStatusCounts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBucketForMapping(t *testing.T) {
	cases := map[store.DomainStatus]bucket{
		store.DomainStatusHosted:                bucketHosted,
		store.DomainStatusParked:                bucketParked,
		store.DomainStatusRegisteredNoWeb:       bucketRegistered,
		store.DomainStatusRegisteredDNSOnly:     bucketRegistered,
		store.DomainStatusUnregisteredCandidate: bucketUnregistered,
		store.DomainStatusVerifiedUnhosted:      bucketVerifiedUnhosted,
		store.DomainStatusNew:                   bucketUnknown,
		store.DomainStatusDNSError:              bucketUnknown,
		store.DomainStatusRDAPError:             bucketUnknown,
	}
	for status, want := range cases {
		if got := bucketFor(status); got != want {
			t.Errorf("bucketFor(%s) = %v, want %v", status, got, want)
		}
	}
}
