package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

const (
	pubmedTag        = "pubmed"
	pubmedBaseURL    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	pubmedArticleURL = "https://pubmed.ncbi.nlm.nih.gov"
)

// PubMed queries the NCBI E-utilities: esearch returns matching PMIDs as
// JSON, efetch returns titles and abstracts as XML.
type PubMed struct {
	client  *source.Client
	baseURL string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*PubMed)(nil)

// NewPubMed wires the adapter. An empty baseURL selects the production
// E-utilities endpoint.
func NewPubMed(client *source.Client, baseURL string, logger *slog.Logger) *PubMed {
	if baseURL == "" {
		baseURL = pubmedBaseURL
	}
	return &PubMed{client: client, baseURL: baseURL, logger: logger}
}

// Name identifies the adapter inside the registry.
func (p *PubMed) Name() string { return pubmedTag }

// Fetch pulls one page of search results and maps them into candidates.
func (p *PubMed) Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate {
	ids, err := p.search(ctx)
	if err != nil {
		p.warn("pubmed search failed", err)
		return nil
	}

	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !existingIDs[pubmedTag+"_"+id] {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	articles, err := p.fetchArticles(ctx, fresh)
	if err != nil {
		p.warn("pubmed fetch failed", err)
		return nil
	}

	var candidates []domain.Candidate
	for _, art := range articles {
		link := fmt.Sprintf("%s/%s/", pubmedArticleURL, art.pmid)
		if c, ok := buildCandidate(pubmedTag, art.pmid, art.title, art.abstract, nil, art.year, link, existingIDs); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func (p *PubMed) search(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", searchQuery)
	q.Set("retmode", "json")
	q.Set("retmax", fmt.Sprintf("%d", defaultPageSize))

	var resp struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := p.client.GetJSON(ctx, p.baseURL+"/esearch.fcgi?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.ESearchResult.IDList, nil
}

type pubmedArticle struct {
	pmid     string
	title    string
	abstract string
	year     string
}

func (p *PubMed) fetchArticles(ctx context.Context, ids []string) ([]pubmedArticle, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	body, err := p.client.GetBody(ctx, p.baseURL+"/efetch.fcgi?"+q.Encode())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse efetch response: %w", err)
	}

	var articles []pubmedArticle
	doc.Find("pubmedarticle").Each(func(_ int, sel *goquery.Selection) {
		var abstract []string
		sel.Find("abstracttext").Each(func(_ int, part *goquery.Selection) {
			abstract = append(abstract, strings.TrimSpace(part.Text()))
		})

		articles = append(articles, pubmedArticle{
			pmid:     strings.TrimSpace(sel.Find("pmid").First().Text()),
			title:    strings.TrimSpace(sel.Find("articletitle").First().Text()),
			abstract: strings.Join(abstract, " "),
			year:     strings.TrimSpace(sel.Find("pubdate year").First().Text()),
		})
	})
	return articles, nil
}

func (p *PubMed) warn(msg string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, "error", err)
	}
}
