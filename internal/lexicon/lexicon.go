// Package lexicon holds the shared allergy/immunology vocabulary used for
// keyword extraction, topical filtering, and relevance scoring. All consumers
// (adapters, cleaner, relevance engine) read the same immutable term lists.
package lexicon

import (
	"regexp"
	"strings"
)

// Terms is the domain vocabulary. Matching is case-insensitive substring
// matching against title, summary, and trial conditions. Order matters: the
// first matching term becomes the reference's relevance tag.
var Terms = []string{
	"anaphylaxis",
	"asthma",
	"allergic rhinitis",
	"allergy",
	"allergen",
	"atopic dermatitis",
	"eczema",
	"food allergy",
	"peanut",
	"shellfish",
	"wasp sting",
	"bee sting",
	"venom",
	"pollen",
	"dust mite",
	"hay fever",
	"urticaria",
	"hives",
	"angioedema",
	"eosinophilic esophagitis",
	"sinusitis",
	"wheezing",
	"epinephrine",
	"antihistamine",
	"immunotherapy",
}

// SpecificTerms denote concrete clinical scenarios and earn extra weight in
// relevance scoring when they appear in a transcript.
var SpecificTerms = []string{
	"wasp sting",
	"bee sting",
	"anaphylaxis",
	"asthma",
	"shellfish",
	"peanut",
	"venom",
	"epinephrine",
	"eczema",
	"hives",
	"dust mite",
	"pollen",
	"wheezing",
}

// ExcludedTerms disqualify a stored reference outright during matching. They
// catch references that passed ingestion on a generic term but concern an
// unrelated disease area.
var ExcludedTerms = []string{
	"cancer",
	"tumor",
	"infection",
	"aging",
	"helminth",
}

var wordSplit = regexp.MustCompile(`\W+`)

// Extract returns the lexicon terms found in the given texts, lowercased, in
// lexicon order, without duplicates. An empty result means the texts are
// off-topic.
func Extract(texts ...string) []string {
	joined := strings.ToLower(strings.Join(texts, " "))
	var found []string
	for _, term := range Terms {
		if strings.Contains(joined, term) {
			found = append(found, term)
		}
	}
	return found
}

// ContainsTerm reports whether any lexicon term appears in any of the texts.
func ContainsTerm(texts ...string) bool {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, term := range Terms {
		if strings.Contains(joined, term) {
			return true
		}
	}
	return false
}

// ContainsExcluded reports whether any exclusion-list term appears in any of
// the texts.
func ContainsExcluded(texts ...string) bool {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, term := range ExcludedTerms {
		if strings.Contains(joined, term) {
			return true
		}
	}
	return false
}

// Tokenize splits text on non-word characters and case-folds, returning the
// resulting word set.
func Tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range wordSplit.Split(strings.ToLower(text), -1) {
		if tok != "" {
			tokens[tok] = true
		}
	}
	return tokens
}
