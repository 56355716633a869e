// Package sync derives candidate domains from each business's website URL
// and non-public contact emails, upserting Domain rows and BusinessDomainLink
// join rows so the classifier has a queue to work from.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/5n10/domain-lead-pipeline/internal/clients/normalize"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

const (
	jobName       = "business_domain_sync"
	checkpointKey = "last_business_cursor"
)

// Syncer walks businesses in created_at order, deriving and linking domains.
type Syncer struct {
	db  *store.Store
	log *logging.Logger
}

// New builds a Syncer.
func New(db *store.Store, log *logging.Logger) *Syncer {
	if log == nil {
		log = logging.NewDefault("sync")
	}
	return &Syncer{db: db, log: log}
}

// cursor is the durable pagination position, stored in the checkpoint value
// as "<created_at RFC3339Nano>|<id>".
type cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// RunBatch processes up to limit businesses from the last checkpoint,
// returning how many were advanced over. Resumable: a crash mid-run leaves
// the checkpoint at the last successfully committed business.
func (s *Syncer) RunBatch(ctx context.Context, limit int) (int, error) {
	checkpoints := store.NewCheckpointStore(s.db.DB)
	after, err := s.loadCursor(ctx, checkpoints)
	if err != nil {
		return 0, fmt.Errorf("load sync cursor: %w", err)
	}

	businessStore := store.NewBusinessStore(s.db.DB)
	businesses, err := businessStore.ListCreatedAfter(ctx, after.CreatedAt, after.ID, limit)
	if err != nil {
		return 0, fmt.Errorf("list businesses: %w", err)
	}

	processed := 0
	for _, b := range businesses {
		if err := s.syncOne(ctx, b); err != nil {
			s.log.WithField("business_id", b.ID).Warnf("sync business: %v", err)
			continue
		}
		processed++
		if err := checkpoints.Set(ctx, nil, jobName, store.GlobalScope, checkpointKey, encodeCursor(cursor{b.CreatedAt, b.ID})); err != nil {
			return processed, fmt.Errorf("advance checkpoint: %w", err)
		}
	}
	return processed, nil
}

// syncOne derives every candidate domain for one business and links them in
// a single transaction: the domain upsert and the link upsert either both
// land or neither does.
func (s *Syncer) syncOne(ctx context.Context, b store.Business) error {
	candidates := CandidateDomains(b)
	if len(candidates) == 0 {
		return nil
	}
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		domains := store.NewDomainStore(tx)
		links := store.NewLinkStore(tx)
		for domainName, source := range candidates {
			d, _, err := domains.Upsert(ctx, domainName)
			if err != nil {
				return fmt.Errorf("upsert domain %s: %w", domainName, err)
			}
			if _, err := links.Link(ctx, b.ID, d.ID, source); err != nil {
				return fmt.Errorf("link business to %s: %w", domainName, err)
			}
		}
		return nil
	})
}

// CandidateDomains derives the set of normalized domains a business implies:
// its website host (source=website) and the host of every non-public email
// address recorded on it (source=email). A domain implied by both keeps
// "website" provenance since it is read first.
func CandidateDomains(b store.Business) map[string]store.LinkSource {
	out := map[string]store.LinkSource{}
	if b.WebsiteURL != nil {
		if d, ok := normalize.Domain(*b.WebsiteURL); ok {
			out[d] = store.LinkSourceWebsite
		}
	}
	if emails, ok := b.Raw["emails"].([]any); ok {
		for _, e := range emails {
			email, _ := e.(string)
			d, ok := normalize.EmailDomain(email)
			if !ok || normalize.IsPublicEmailDomain(d) {
				continue
			}
			if _, exists := out[d]; !exists {
				out[d] = store.LinkSourceEmail
			}
		}
	}
	return out
}

func (s *Syncer) loadCursor(ctx context.Context, checkpoints *store.CheckpointStore) (cursor, error) {
	raw, err := checkpoints.Get(ctx, jobName, store.GlobalScope, checkpointKey)
	if err == store.ErrNotFound {
		return cursor{}, nil
	}
	if err != nil {
		return cursor{}, err
	}
	return decodeCursor(raw), nil
}

func encodeCursor(c cursor) string {
	return fmt.Sprintf("%s|%s", c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID.String())
}

func decodeCursor(raw string) cursor {
	var createdAtStr, idStr string
	for i := 0; i < len(raw); i++ {
		if raw[i] == '|' {
			createdAtStr = raw[:i]
			idStr = raw[i+1:]
			break
		}
	}
	t, _ := time.Parse(time.RFC3339Nano, createdAtStr)
	id, _ := uuid.Parse(idStr)
	return cursor{CreatedAt: t, ID: id}
}
