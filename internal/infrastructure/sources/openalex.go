package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const (
	openalexTag     = "openalex"
	openalexBaseURL = "https://api.openalex.org"
)

// OpenAlex queries the OpenAlex works index. Abstracts arrive as an inverted
// index (word -> positions) and are reconstructed before keyword extraction.
type OpenAlex struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*OpenAlex)(nil)

// NewOpenAlex wires the adapter.
func NewOpenAlex(client *source.Client, baseURL string, logger *slog.Logger) *OpenAlex {
	if baseURL == "" {
		baseURL = openalexBaseURL
	}
	return &OpenAlex{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the adapter inside the registry.
func (o *OpenAlex) Name() string { return openalexTag }

// Fetch pulls one page of works and maps them into candidates.
func (o *OpenAlex) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	q := url.Values{}
	q.Set("search", searchQuery)
	q.Set("per-page", fmt.Sprintf("%d", defaultPageSize))

	var resp struct {
		Results []struct {
			ID                    string           `json:"id"`
			Title                 string           `json:"title"`
			PublicationYear       int              `json:"publication_year"`
			AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
			PrimaryLocation       struct {
				LandingPageURL string `json:"landing_page_url"`
			} `json:"primary_location"`
		} `json:"results"`
	}
	if err := o.client.GetJSON(ctx, o.baseURL+"/works?"+q.Encode(), &resp); err != nil {
		if o.logger != nil {
			o.logger.Warn("openalex fetch failed", "error", err)
		}
		return nil
	}

	var candidates []domain.Candidate
	for _, work := range resp.Results {
		nativeID := workID(work.ID)
		link := work.PrimaryLocation.LandingPageURL
		if link == "" {
			link = work.ID
		}
		var year string
		if work.PublicationYear > 0 {
			year = strconv.Itoa(work.PublicationYear)
		}
		abstract := reconstructAbstract(work.AbstractInvertedIndex)
		if c, ok := buildCandidate(openalexTag, nativeID, work.Title, abstract, nil, year, link, existingIDs); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// workID strips the URL prefix from an OpenAlex identifier
// ("https://openalex.org/W123" -> "W123").
func workID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// reconstructAbstract rebuilds the abstract text from the inverted index by
// placing each word at its recorded positions.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type placed struct {
		pos  int
		word string
	}
	var words []placed
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, placed{pos: pos, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.word)
	}
	return strings.Join(parts, " ")
}
