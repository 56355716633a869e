// Package export writes CSV lead files and drives the daily-target
// recycling engine.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/5n10/domain-lead-pipeline/internal/features"
	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// Columns is the fixed CSV header, in order.
var Columns = []string{
	"business_name", "category", "address", "city", "country",
	"emails", "business_emails", "free_emails", "phones",
	"domains", "verified_unhosted_domains", "unregistered_domains", "registered_domains",
	"unknown_domains", "hosted_domains", "parked_domains",
	"lead_score", "source", "source_id",
}

// Eligibility narrows the business-selection query beyond min_score.
type Eligibility struct {
	RequireContact             bool
	RequireUnhostedDomain      bool
	RequireDomainQualification bool
	ExcludeHostedEmailDomain   bool
}

// Request parameterizes one export call.
type Request struct {
	Platform            string
	MinScore            int
	Limit               int
	MaxWritten          int
	ExcludeEverExported bool
	Eligibility         Eligibility
	OutputDir           string
}

// Result summarizes one export call.
type Result struct {
	Path          string
	WrittenCount  int
}

// Exporter selects eligible businesses, writes a CSV, and records a queued
// BusinessOutreachExport row per written business.
type Exporter struct {
	db            *store.Store
	featureLoader *features.Loader
	log           *logging.Logger
}

// New builds an Exporter.
func New(db *store.Store, featureLoader *features.Loader, log *logging.Logger) *Exporter {
	if log == nil {
		log = logging.NewDefault("export")
	}
	return &Exporter{db: db, featureLoader: featureLoader, log: log}
}

// Run selects eligible businesses for req.Platform, inserts one queued
// BusinessOutreachExport row per selected business inside one transaction,
// then writes the CSV. On zero eligible rows, no file is written, any stale
// file for the platform is removed, and Result.Path is empty.
func (e *Exporter) Run(ctx context.Context, req Request) (Result, error) {
	selected, err := e.selectAndRecord(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if len(selected) == 0 {
		removeStaleFile(req.OutputDir, req.Platform)
		return Result{}, nil
	}

	bundles, err := e.featureLoader.Load(ctx, businessIDs(selected))
	if err != nil {
		return Result{}, fmt.Errorf("load feature bundles: %w", err)
	}

	cities, err := e.loadCities(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load cities: %w", err)
	}

	path, err := writeCSV(req.OutputDir, req.Platform, selected, bundles, cities)
	if err != nil {
		return Result{}, fmt.Errorf("write csv: %w", err)
	}
	return Result{Path: path, WrittenCount: len(selected)}, nil
}

// loadCities fetches every configured city once per export run, so row()
// can resolve a business's city/country columns from CityID without a
// per-business lookup.
func (e *Exporter) loadCities(ctx context.Context) (map[uuid.UUID]store.City, error) {
	cityStore := store.NewCityStore(e.db.DB)
	all, err := cityStore.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]store.City, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	return byID, nil
}

// removeStaleFile deletes a previous run's CSV when a later run selects zero
// rows, so a platform's export file always reflects its most recent call.
func removeStaleFile(outputDir, platform string) {
	if outputDir == "" {
		outputDir = "exports"
	}
	os.Remove(filepath.Join(outputDir, fmt.Sprintf("%s.csv", platform)))
}

// selectAndRecord picks eligible businesses and records their
// BusinessOutreachExport rows, without writing a CSV. Used directly by the
// daily-target engine so its two passes can be combined into one file.
func (e *Exporter) selectAndRecord(ctx context.Context, req Request) ([]store.Business, error) {
	limit := req.Limit
	if req.MaxWritten > 0 && req.MaxWritten < limit {
		limit = req.MaxWritten
	}
	if limit <= 0 {
		limit = 500
	}

	businessStore := store.NewBusinessStore(e.db.DB)
	candidates, err := businessStore.ListExportCandidates(ctx, req.Platform, req.MinScore, req.ExcludeEverExported, limit)
	if err != nil {
		return nil, fmt.Errorf("list export candidates: %w", err)
	}

	eligible, err := e.applyEligibility(ctx, candidates, req.Eligibility)
	if err != nil {
		return nil, fmt.Errorf("apply eligibility: %w", err)
	}
	if req.MaxWritten > 0 && len(eligible) > req.MaxWritten {
		eligible = eligible[:req.MaxWritten]
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	err = e.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		exports := store.NewExportStore(tx)
		for _, b := range eligible {
			if _, err := exports.Insert(ctx, store.BusinessOutreachExport{BusinessID: b.ID, Platform: req.Platform}); err != nil {
				if err == store.ErrAlreadyExported {
					continue // a concurrent writer beat us to it; the row is already recorded
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record exports: %w", err)
	}
	return eligible, nil
}

// applyEligibility filters candidates by the optional predicates a request
// can set on top of the base SQL selection.
func (e *Exporter) applyEligibility(ctx context.Context, candidates []store.Business, elig Eligibility) ([]store.Business, error) {
	if !elig.RequireContact && !elig.RequireUnhostedDomain && !elig.RequireDomainQualification && !elig.ExcludeHostedEmailDomain {
		return candidates, nil
	}
	bundles, err := e.featureLoader.Load(ctx, businessIDs(candidates))
	if err != nil {
		return nil, err
	}
	var out []store.Business
	for _, b := range candidates {
		bundle := bundles[b.ID]
		if elig.RequireContact && len(bundle.Emails) == 0 && len(bundle.Phones) == 0 {
			continue
		}
		hasQualified := len(bundle.HostedDomains) > 0 || len(bundle.ParkedDomains) > 0 ||
			len(bundle.RegisteredDomains) > 0 || len(bundle.VerifiedUnhostedDomains) > 0
		if elig.RequireUnhostedDomain && len(bundle.VerifiedUnhostedDomains) == 0 {
			continue
		}
		if elig.RequireDomainQualification && !hasQualified {
			continue
		}
		if elig.ExcludeHostedEmailDomain {
			hostedOrParked := len(bundle.HostedDomains) > 0 || len(bundle.ParkedDomains) > 0 || len(bundle.RegisteredDomains) > 0
			if hostedOrParked && len(bundle.VerifiedUnhostedDomains) == 0 {
				continue
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func businessIDs(bs []store.Business) []uuid.UUID {
	ids := make([]uuid.UUID, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	return ids
}

func writeCSV(outputDir, platform string, businesses []store.Business, bundles map[uuid.UUID]features.Bundle, cities map[uuid.UUID]store.City) (string, error) {
	if outputDir == "" {
		outputDir = "exports"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := filepath.Join(outputDir, fmt.Sprintf(".%s.%d.csv.tmp", platform, time.Now().UnixNano()))
	finalPath := filepath.Join(outputDir, fmt.Sprintf("%s.csv", platform))

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, b := range businesses {
		if err := w.Write(row(b, bundles[b.ID], cities)); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return finalPath, nil
}

func row(b store.Business, bundle features.Bundle, cities map[uuid.UUID]store.City) []string {
	name, category, address := "", "", ""
	if b.Name != nil {
		name = *b.Name
	}
	if b.Category != nil {
		category = *b.Category
	}
	if b.Address != nil {
		address = *b.Address
	}
	score := 0
	if b.LeadScore != nil {
		score = *b.LeadScore
	}
	city, country := "", ""
	if b.CityID != nil {
		if c, ok := cities[*b.CityID]; ok {
			city = c.Name
			if c.Country != nil {
				country = *c.Country
			}
		}
	}
	return []string{
		name, category, address, city, country,
		joinSorted(bundle.Emails), joinSorted(bundle.BusinessEmails), joinSorted(bundle.FreeEmails), joinSorted(bundle.Phones),
		joinSorted(bundle.Domains), joinSorted(bundle.VerifiedUnhostedDomains), joinSorted(bundle.UnregisteredDomains),
		joinSorted(bundle.RegisteredDomains), joinSorted(bundle.UnknownDomains), joinSorted(bundle.HostedDomains), joinSorted(bundle.ParkedDomains),
		strconv.Itoa(score), b.Source, b.SourceID,
	}
}

// joinSorted sorts values lexicographically and joins them with ";", the
// CSV format's fixed convention for multi-value columns.
func joinSorted(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ";")
}

// DailyTargetPlatform builds "<prefix>_<YYYYMMDD>" for the daily recycler.
func DailyTargetPlatform(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s", prefix, day.UTC().Format("20060102"))
}

// RunDailyTarget runs the two-pass daily recycling engine: first pass
// exports never-exported-ever candidates up to the remaining target; if
// still short and recycling is allowed, a second pass relaxes that clause.
// Both passes are combined into a single CSV write.
func (e *Exporter) RunDailyTarget(ctx context.Context, platform string, target int, minScore int, allowRecycling bool, outputDir string) (Result, error) {
	exportStore := store.NewExportStore(e.db.DB)
	already, err := exportStore.CountToday(ctx, platform)
	if err != nil {
		return Result{}, fmt.Errorf("count today's exports: %w", err)
	}
	remaining := target - already
	if remaining <= 0 {
		return Result{}, nil
	}

	selected, err := e.selectAndRecord(ctx, Request{Platform: platform, MinScore: minScore, Limit: remaining, MaxWritten: remaining, ExcludeEverExported: true})
	if err != nil {
		return Result{}, fmt.Errorf("first pass: %w", err)
	}
	remaining -= len(selected)

	if remaining > 0 && allowRecycling {
		second, err := e.selectAndRecord(ctx, Request{Platform: platform, MinScore: minScore, Limit: remaining, MaxWritten: remaining, ExcludeEverExported: false})
		if err != nil {
			return Result{}, fmt.Errorf("second pass: %w", err)
		}
		selected = append(selected, second...)
	}

	if len(selected) == 0 {
		removeStaleFile(outputDir, platform)
		return Result{}, nil
	}

	bundles, err := e.featureLoader.Load(ctx, businessIDs(selected))
	if err != nil {
		return Result{}, fmt.Errorf("load feature bundles: %w", err)
	}
	cities, err := e.loadCities(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load cities: %w", err)
	}
	path, err := writeCSV(outputDir, platform, selected, bundles, cities)
	if err != nil {
		return Result{}, fmt.Errorf("write csv: %w", err)
	}
	return Result{Path: path, WrittenCount: len(selected)}, nil
}
