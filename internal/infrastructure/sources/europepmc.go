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
	europePMCTag        = "europepmc"
	europePMCBaseURL    = "https://www.ebi.ac.uk/europepmc/webservices/rest"
	europePMCArticleURL = "https://europepmc.org/article"
)

// EuropePMC queries the Europe PMC full-text aggregator REST API.
type EuropePMC struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*EuropePMC)(nil)

// NewEuropePMC wires the adapter.
func NewEuropePMC(client *source.Client, baseURL string, logger *slog.Logger) *EuropePMC {
	if baseURL == "" {
		baseURL = europePMCBaseURL
	}
	return &EuropePMC{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the adapter inside the registry.
func (e *EuropePMC) Name() string { return europePMCTag }

// Fetch pulls one page of search results and maps them into candidates.
func (e *EuropePMC) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	q := url.Values{}
	q.Set("query", "allergy AND asthma")
	q.Set("format", "json")
	q.Set("resultType", "core")
	q.Set("pageSize", fmt.Sprintf("%d", defaultPageSize))

	var resp struct {
		ResultList struct {
			Result []struct {
				ID           string `json:"id"`
				Source       string `json:"source"`
				Title        string `json:"title"`
				AbstractText string `json:"abstractText"`
				PubYear      string `json:"pubYear"`
			} `json:"result"`
		} `json:"resultList"`
	}
	if err := e.client.GetJSON(ctx, e.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		if e.logger != nil {
			e.logger.Warn("europepmc fetch failed", "error", err)
		}
		return nil
	}

	var candidates []domain.Candidate
	for _, result := range resp.ResultList.Result {
		link := fmt.Sprintf("%s/%s/%s", europePMCArticleURL, result.Source, result.ID)
		if c, ok := buildCandidate(europePMCTag, result.ID, result.Title, result.AbstractText, nil, result.PubYear, link, existingIDs); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
