package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const (
	reporterTag        = "nihreporter"
	reporterBaseURL    = "https://api.reporter.nih.gov/v2"
	reporterProjectURL = "https://reporter.nih.gov/project-details"
)

// Reporter queries the NIH RePORTER project search API for funded grants.
type Reporter struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*Reporter)(nil)

// NewReporter wires the adapter.
func NewReporter(client *source.Client, baseURL string, logger *slog.Logger) *Reporter {
	if baseURL == "" {
		baseURL = reporterBaseURL
	}
	return &Reporter{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the adapter inside the registry.
func (r *Reporter) Name() string { return reporterTag }

// Fetch pulls one page of grant projects and maps them into candidates.
func (r *Reporter) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	payload := map[string]any{
		"criteria": map[string]any{
			"advanced_text_search": map[string]any{
				"operator":     "and",
				"search_field": "projecttitle,terms,abstracttext",
				"search_text":  searchQuery,
			},
		},
		"limit": defaultPageSize,
	}

	var resp struct {
		Results []struct {
			ApplID       int    `json:"appl_id"`
			ProjectTitle string `json:"project_title"`
			AbstractText string `json:"abstract_text"`
			FiscalYear   int    `json:"fiscal_year"`
		} `json:"results"`
	}
	if err := r.client.PostJSON(ctx, r.baseURL+"/projects/search", payload, &resp); err != nil {
		if r.logger != nil {
			r.logger.Warn("nih reporter fetch failed", "error", err)
		}
		return nil
	}

	var candidates []domain.Candidate
	for _, proj := range resp.Results {
		nativeID := strconv.Itoa(proj.ApplID)
		var year string
		if proj.FiscalYear > 0 {
			year = strconv.Itoa(proj.FiscalYear)
		}
		link := fmt.Sprintf("%s/%s", reporterProjectURL, nativeID)
		if c, ok := buildCandidate(reporterTag, nativeID, proj.ProjectTitle, proj.AbstractText, nil, year, link, existingIDs); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
