package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/5n10/domain-lead-pipeline/internal/store"
)

// leadView is the dashboard-facing projection of a scored Business.
type leadView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Category   string         `json:"category,omitempty"`
	WebsiteURL string         `json:"website_url,omitempty"`
	Address    string         `json:"address,omitempty"`
	LeadScore  int            `json:"lead_score"`
	Reasons    store.JSONMap  `json:"score_reasons,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

func newLeadView(b store.Business) leadView {
	v := leadView{
		ID:        b.ID.String(),
		Reasons:   b.ScoreReasons,
		CreatedAt: b.CreatedAt.Format(httpTimeLayout),
	}
	if b.Name != nil {
		v.Name = *b.Name
	}
	if b.Category != nil {
		v.Category = *b.Category
	}
	if b.WebsiteURL != nil {
		v.WebsiteURL = *b.WebsiteURL
	}
	if b.Address != nil {
		v.Address = *b.Address
	}
	if b.LeadScore != nil {
		v.LeadScore = *b.LeadScore
	}
	return v
}

const httpTimeLayout = "2006-01-02T15:04:05Z07:00"

type leadsPage struct {
	Leads  []leadView `json:"leads"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func (s *Service) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minScore, err := parseIntParam(q.Get("min_score"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("min_score must be an integer"))
		return
	}
	limit, err := parseIntParam(q.Get("limit"), 50)
	if err != nil || limit <= 0 || limit > 500 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be between 1 and 500"))
		return
	}
	offset, err := parseIntParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("offset must be a non-negative integer"))
		return
	}

	ctx := r.Context()
	leads, err := s.businesses.ListLeads(ctx, minScore, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	total, err := s.businesses.CountLeads(ctx, minScore)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]leadView, 0, len(leads))
	for _, b := range leads {
		views = append(views, newLeadView(b))
	}
	if s.metrics != nil {
		s.metrics.LeadsScored.Set(float64(total))
	}
	writeJSON(w, http.StatusOK, leadsPage{Leads: views, Total: total, Limit: limit, Offset: offset})
}

func parseIntParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
