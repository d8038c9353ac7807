// Package sources contains the adapters that pull candidate records from the
// external bibliographic, trial, grant, and preprint APIs. Every adapter
// follows the same contract: one fixed allergy/asthma query with a small page
// size, skip anything already in the store, skip items without a usable title,
// summary, or lexicon keyword, and swallow whole-call failures into an empty
// result so one broken source never stalls ingestion.
package sources

import (
	"strings"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/lexicon"
)

// searchQuery is the fixed topical query issued to every source.
const searchQuery = "allergy asthma"

// defaultPageSize keeps each pull small; sources are polled repeatedly, not
// bulk-harvested.
const defaultPageSize = 15

// buildCandidate applies the shared admission rules to one raw result. The
// second return is false when the item must be skipped (already stored, no
// title, placeholder summary, or no lexicon keyword).
func buildCandidate(tag, nativeID, title, summary string, conditions []string, year, url string, existing map[string]bool) (domain.Candidate, bool) {
	nativeID = strings.TrimSpace(nativeID)
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)

	if nativeID == "" || existing[tag+"_"+nativeID] {
		return domain.Candidate{}, false
	}
	if title == "" || domain.IsPlaceholderSummary(summary) {
		return domain.Candidate{}, false
	}

	texts := []string{title, summary}
	texts = append(texts, conditions...)
	keywords := lexicon.Extract(texts...)
	if len(keywords) == 0 {
		return domain.Candidate{}, false
	}

	return domain.Candidate{
		SourceTag:  tag,
		NativeID:   nativeID,
		Title:      title,
		Summary:    summary,
		Conditions: conditions,
		Keywords:   keywords,
		Year:       year,
		URL:        url,
	}, true
}
