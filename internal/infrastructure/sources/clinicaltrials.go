package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const (
	ctgovTag      = "ctgov"
	ctgovBaseURL  = "https://clinicaltrials.gov/api/v2"
	ctgovStudyURL = "https://clinicaltrials.gov/study"
)

// ClinicalTrials queries the ClinicalTrials.gov v2 studies API. Trial
// conditions participate in keyword extraction alongside title and summary.
type ClinicalTrials struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*ClinicalTrials)(nil)

// NewClinicalTrials wires the adapter.
func NewClinicalTrials(client *source.Client, baseURL string, logger *slog.Logger) *ClinicalTrials {
	if baseURL == "" {
		baseURL = ctgovBaseURL
	}
	return &ClinicalTrials{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the adapter inside the registry.
func (c *ClinicalTrials) Name() string { return ctgovTag }

// Fetch pulls one page of studies and maps them into candidates.
func (c *ClinicalTrials) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	q := url.Values{}
	q.Set("query.cond", searchQuery)
	q.Set("pageSize", fmt.Sprintf("%d", defaultPageSize))

	var resp struct {
		Studies []struct {
			ProtocolSection struct {
				IdentificationModule struct {
					NCTID      string `json:"nctId"`
					BriefTitle string `json:"briefTitle"`
				} `json:"identificationModule"`
				DescriptionModule struct {
					BriefSummary string `json:"briefSummary"`
				} `json:"descriptionModule"`
				ConditionsModule struct {
					Conditions []string `json:"conditions"`
				} `json:"conditionsModule"`
				StatusModule struct {
					StartDateStruct struct {
						Date string `json:"date"`
					} `json:"startDateStruct"`
				} `json:"statusModule"`
			} `json:"protocolSection"`
		} `json:"studies"`
	}
	if err := c.client.GetJSON(ctx, c.baseURL+"/studies?"+q.Encode(), &resp); err != nil {
		if c.logger != nil {
			c.logger.Warn("clinicaltrials fetch failed", "error", err)
		}
		return nil
	}

	var candidates []domain.Candidate
	for _, study := range resp.Studies {
		ps := study.ProtocolSection
		year := ps.StatusModule.StartDateStruct.Date
		if len(year) > 4 {
			year = year[:4]
		}
		link := fmt.Sprintf("%s/%s", ctgovStudyURL, ps.IdentificationModule.NCTID)
		cand, ok := buildCandidate(ctgovTag,
			ps.IdentificationModule.NCTID,
			ps.IdentificationModule.BriefTitle,
			ps.DescriptionModule.BriefSummary,
			ps.ConditionsModule.Conditions,
			year, link, existingIDs)
		if ok {
			candidates = append(candidates, cand)
		}
	}
	return candidates
}
