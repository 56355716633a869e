package contacts

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// ExportColumns is the contacts CSV's fixed header.
var ExportColumns = []string{"business_id", "email", "contact_type"}

// ExportResult reports what an export run wrote.
type ExportResult struct {
	Path         string
	WrittenCount int
}

// exportFileName is the per-platform path a contacts export writes to.
func exportFileName(outputDir, platform string) string {
	return filepath.Join(outputDir, fmt.Sprintf("contacts_%s.csv", platform))
}

// Exporter writes synthesized role-address contacts to CSV and flags them
// exported so a later run doesn't repeat them.
type Exporter struct {
	db  *store.Store
	log *logging.Logger
}

// NewExporter builds an Exporter.
func NewExporter(db *store.Store, log *logging.Logger) *Exporter {
	if log == nil {
		log = logging.NewDefault("contacts")
	}
	return &Exporter{db: db, log: log}
}

// Run selects up to limit not-yet-exported role-address contacts, writes them
// to "<outputDir>/contacts_<platform>.csv", and marks them exported in the
// same pass. On zero eligible rows, any stale file from a previous run is
// removed.
func (e *Exporter) Run(ctx context.Context, platform string, limit int, outputDir string) (ExportResult, error) {
	contactStore := store.NewContactStore(e.db.DB)

	rows, err := contactStore.ListBySource(ctx, roleContactSource, limit)
	if err != nil {
		return ExportResult{}, fmt.Errorf("list contacts to export: %w", err)
	}

	path := exportFileName(outputDir, platform)
	if len(rows) == 0 {
		_ = os.Remove(path)
		return ExportResult{}, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(outputDir, "contacts-*.csv.tmp")
	if err != nil {
		return ExportResult{}, fmt.Errorf("create temp export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(ExportColumns); err != nil {
		tmp.Close()
		return ExportResult{}, fmt.Errorf("write csv header: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		if err := w.Write([]string{c.BusinessID.String(), c.Value, string(c.ContactType)}); err != nil {
			tmp.Close()
			return ExportResult{}, fmt.Errorf("write csv row: %w", err)
		}
		ids = append(ids, c.ID)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return ExportResult{}, fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExportResult{}, fmt.Errorf("close temp export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ExportResult{}, fmt.Errorf("finalize export file: %w", err)
	}

	if err := contactStore.MarkSource(ctx, ids, roleExportedSource); err != nil {
		return ExportResult{}, fmt.Errorf("mark contacts exported: %w", err)
	}

	return ExportResult{Path: path, WrittenCount: len(rows)}, nil
}
