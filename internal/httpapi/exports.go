package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type exportFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	ModTime   string `json:"mod_time"`
}

// handleListExports lists the CSV files currently written to the configured
// output directory, most recently modified first.
func (s *Service) handleListExports(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.exportDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []exportFile{})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	files := make([]exportFile, 0, len(entries))
	modTimes := make(map[string]time.Time, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, exportFile{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			ModTime:   info.ModTime().Format(httpTimeLayout),
		})
		modTimes[entry.Name()] = info.ModTime()
	}
	sort.SliceStable(files, func(i, j int) bool {
		return modTimes[files[i].Name].After(modTimes[files[j].Name])
	})
	writeJSON(w, http.StatusOK, files)
}

// handleExportPlatform triggers a one-off export for an arbitrary platform
// name, writing "<platform>.csv" into exportDir.
func (s *Service) handleExportPlatform(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	minScore, err := parseIntParam(r.URL.Query().Get("min_score"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := parseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, ran, err := s.scheduler.ExportNow(r.Context(), platform, minScore, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ran {
		writeError(w, http.StatusConflict, errBusy)
		return
	}
	if s.metrics != nil {
		s.metrics.BusinessesExported.Add(float64(result.WrittenCount))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDownloadExport serves the CSV file a platform was most recently
// exported to ("<platform>.csv" in exportDir, the convention the exporter
// itself writes under). The platform name is validated against path
// traversal and resolved strictly inside exportDir.
func (s *Service) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	name := platform + ".csv"
	if platform == "" || name != filepath.Base(name) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid export platform name"))
		return
	}
	path := filepath.Join(s.exportDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("export file not found"))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	http.ServeFile(w, r, path)
}
