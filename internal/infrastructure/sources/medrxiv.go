package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const (
	medrxivTag        = "medrxiv"
	medrxivBaseURL    = "https://api.biorxiv.org"
	medrxivContentURL = "https://www.medrxiv.org/content"
	medrxivWindow     = 30 * 24 * time.Hour
)

// MedRxiv pulls recently posted medRxiv preprints. The API has no search
// endpoint, so the adapter fetches a posting window and lets the shared
// lexicon filter drop everything off-topic.
type MedRxiv struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.ReferenceSource = (*MedRxiv)(nil)

// NewMedRxiv wires the adapter.
func NewMedRxiv(client *source.Client, baseURL string, logger *slog.Logger) *MedRxiv {
	if baseURL == "" {
		baseURL = medrxivBaseURL
	}
	return &MedRxiv{client: client, baseURL: baseURL, logger: logger, now: time.Now}
}

// Name identifies the adapter inside the registry.
func (m *MedRxiv) Name() string { return medrxivTag }

// Fetch pulls the recent posting window and maps preprints into candidates.
func (m *MedRxiv) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	to := m.now().UTC()
	from := to.Add(-medrxivWindow)
	endpoint := fmt.Sprintf("%s/details/medrxiv/%s/%s/0/json",
		m.baseURL, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var resp struct {
		Collection []struct {
			DOI      string `json:"doi"`
			Title    string `json:"title"`
			Abstract string `json:"abstract"`
			Date     string `json:"date"`
		} `json:"collection"`
	}
	if err := m.client.GetJSON(ctx, endpoint, &resp); err != nil {
		if m.logger != nil {
			m.logger.Warn("medrxiv fetch failed", "error", err)
		}
		return nil
	}

	var candidates []domain.Candidate
	for _, post := range resp.Collection {
		if len(candidates) >= defaultPageSize {
			break
		}
		var year string
		if len(post.Date) >= 4 {
			year = post.Date[:4]
		}
		link := fmt.Sprintf("%s/%s", medrxivContentURL, post.DOI)
		if c, ok := buildCandidate(medrxivTag, post.DOI, post.Title, post.Abstract, nil, year, link, existingIDs); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
