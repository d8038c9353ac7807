package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/lexicon"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// matchThreshold is the minimum specificity score a stored reference needs to
// be returned as a match. Scores at the threshold are accepted.
const matchThreshold = 3

// ErrMissingFields signals an invalid matching request; the caller surfaces
// it without attempting a match.
var ErrMissingFields = errors.New("patient_id, visit_id, and transcript are required")

// MatchRequest is one incoming transcript to match.
type MatchRequest struct {
	PatientID  string `json:"patient_id"`
	VisitID    string `json:"visit_id"`
	Transcript string `json:"transcript"`
}

// Validate checks the required fields.
func (r MatchRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" ||
		strings.TrimSpace(r.VisitID) == "" ||
		strings.TrimSpace(r.Transcript) == "" {
		return ErrMissingFields
	}
	return nil
}

// MatchResponse is the answer for one transcript: either the best stored
// reference (Source "store") or a generated fallback (Source "generated").
type MatchResponse struct {
	Source    string               `json:"source"`
	Insight   domain.Insight       `json:"insight"`
	Reference domain.ReferenceLink `json:"reference"`
	Score     int                  `json:"score,omitempty"`
}

// Matcher is the relevance engine. It reads the store, never mutates it.
type Matcher struct {
	store    ports.ReferenceStore
	fallback ports.FallbackGenerator
	insights ports.InsightStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewMatcher wires the store, the fallback generator, and the insight sink.
func NewMatcher(store ports.ReferenceStore, fallback ports.FallbackGenerator, insights ports.InsightStore, logger *slog.Logger) *Matcher {
	return &Matcher{store: store, fallback: fallback, insights: insights, logger: logger, now: time.Now}
}

// Match scores every stored reference against the transcript and returns the
// single best one at or above the threshold, falling back to the generator
// otherwise. The matched or generated insight is appended as a patient
// insight record.
func (m *Matcher) Match(ctx context.Context, req MatchRequest) (MatchResponse, error) {
	if err := req.Validate(); err != nil {
		return MatchResponse{}, err
	}

	result, err := m.BestMatch(ctx, req.Transcript)
	if err != nil {
		return MatchResponse{}, err
	}

	var resp MatchResponse
	if result != nil {
		resp = MatchResponse{Source: "store", Insight: result.Insight, Reference: result.Reference, Score: result.Score}
	} else {
		insight, ref, genErr := m.fallback.Generate(ctx, req.Transcript)
		if genErr != nil {
			return MatchResponse{}, fmt.Errorf("fallback generation: %w", genErr)
		}
		resp = MatchResponse{Source: "generated", Insight: insight, Reference: ref}
	}

	m.appendInsight(ctx, req, resp)
	return resp, nil
}

// BestMatch scans the store and returns the highest-scoring reference at or
// above the threshold, or nil when nothing qualifies. Ties keep the smallest
// reference id, so results do not depend on incidental scan order.
func (m *Matcher) BestMatch(ctx context.Context, transcript string) (*domain.MatchResult, error) {
	refs, err := m.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}

	transcriptLower := strings.ToLower(transcript)
	transcriptTokens := lexicon.Tokenize(transcript)

	var (
		best      *domain.Reference
		bestScore int
	)
	// refs arrive ordered by id, so keeping the first strict maximum yields
	// a deterministic score-then-id winner.
	for i := range refs {
		score, ok := scoreReference(refs[i], transcriptLower, transcriptTokens)
		if !ok || score < matchThreshold {
			continue
		}
		if best == nil || score > bestScore {
			best = &refs[i]
			bestScore = score
		}
	}

	if best == nil {
		return nil, nil
	}
	return &domain.MatchResult{
		Insight: domain.Insight{
			Title:        best.Title,
			Summary:      best.Summary,
			Keywords:     best.Keywords.Value,
			RelevanceTag: best.RelevanceTag,
			Confidence:   best.Confidence,
		},
		Reference: referenceLink(*best),
		Score:     bestScore,
	}, nil
}

// scoreReference applies the gates and the specificity scoring to one stored
// reference. The boolean is false when a gate rejects the candidate.
func scoreReference(ref domain.Reference, transcriptLower string, transcriptTokens map[string]bool) (int, bool) {
	keywords := strings.ToLower(ref.Keywords.Value)
	tag := strings.ToLower(ref.RelevanceTag)
	summary := strings.ToLower(ref.Summary)

	// Precision guard: generic matches against oncology/infection papers are
	// worse than no match at all.
	if lexicon.ContainsExcluded(keywords, tag) {
		return 0, false
	}
	if !lexicon.ContainsTerm(keywords, tag, summary) {
		return 0, false
	}

	// Generic overlap gate: at least one shared word between transcript and
	// the candidate's text fields.
	candidateTokens := lexicon.Tokenize(summary + " " + tag + " " + keywords)
	overlap := false
	for tok := range candidateTokens {
		if transcriptTokens[tok] {
			overlap = true
			break
		}
	}
	if !overlap {
		return 0, false
	}

	score := 0
	keywordTerms := ref.Keywords.Terms()
	for _, term := range lexicon.SpecificTerms {
		if !strings.Contains(transcriptLower, term) {
			continue
		}
		for _, kw := range keywordTerms {
			if strings.Contains(strings.ToLower(kw), term) {
				score += 3
			}
		}
		score += 2 * strings.Count(summary, term)
		score += 2 * strings.Count(tag, term)
		if transcriptTokens[term] {
			score++
		}
	}
	return score, true
}

// referenceLink builds the caller-facing link; PMIDs only exist for
// bibliographic records.
func referenceLink(ref domain.Reference) domain.ReferenceLink {
	link := domain.ReferenceLink{Title: ref.Title, URL: ref.URL}
	if strings.HasPrefix(ref.ID, "pubmed_") {
		link.PMID = ref.NativeID
	}
	return link
}

func (m *Matcher) appendInsight(ctx context.Context, req MatchRequest, resp MatchResponse) {
	if m.insights == nil {
		return
	}
	insight := resp.Insight
	ref := resp.Reference
	rec := domain.PatientInsightRecord{
		PatientID:  req.PatientID,
		VisitID:    req.VisitID,
		Transcript: req.Transcript,
		Insight:    &insight,
		Reference:  &ref,
		Generated:  resp.Source == "generated",
		ExpiresAt:  m.now().Add(domain.InsightTTL).Unix(),
	}
	if err := m.insights.AppendInsight(ctx, rec); err != nil {
		m.logger.Warn("append insight failed", "patient_id", req.PatientID, "visit_id", req.VisitID, "error", err)
	}
}
