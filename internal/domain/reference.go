package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ConfidenceRecommended is the fixed confidence label for ingested references.
const ConfidenceRecommended = "Recommended"

// Retention windows. Eviction of expired items is the store's responsibility.
const (
	ReferenceTTL = 90 * 24 * time.Hour
	InsightTTL   = 30 * 24 * time.Hour
)

// placeholderSummaries are values that count as "no summary" during ingestion
// and cleaning. Comparison is case-insensitive.
var placeholderSummaries = []string{"", "n/a", "summary not available"}

// IsPlaceholderSummary reports whether the summary carries no usable content.
func IsPlaceholderSummary(summary string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(summary))
	for _, p := range placeholderSummaries {
		if trimmed == p {
			return true
		}
	}
	return false
}

// Keywords is the reference keyword field. The canonical stored form is a
// single comma-delimited lowercase string, but older documents hold a JSON
// array of strings; both forms decode, and FromList records which one the
// document carried so the cleaner can rewrite it.
type Keywords struct {
	Value    string
	FromList bool
}

// NewKeywords joins terms into the canonical delimited form.
func NewKeywords(terms []string) Keywords {
	return Keywords{Value: strings.Join(terms, ",")}
}

// Terms splits the canonical form back into individual keywords.
func (k Keywords) Terms() []string {
	if strings.TrimSpace(k.Value) == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(k.Value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// IsEmpty reports whether no keywords are present in either form.
func (k Keywords) IsEmpty() bool {
	return len(k.Terms()) == 0
}

// MarshalJSON always emits the canonical string form.
func (k Keywords) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

// UnmarshalJSON accepts both the canonical string and the legacy list form.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = Keywords{Value: s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = Keywords{Value: strings.Join(list, ","), FromList: true}
		return nil
	}
	return fmt.Errorf("keywords: unsupported JSON form: %s", string(data))
}

// Reference is a normalized bibliographic/trial/grant record held in the
// store. ID is the dedup key: "{source_tag}_{native_id}".
type Reference struct {
	ID              string   `json:"id"`
	NativeID        string   `json:"native_id"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Keywords        Keywords `json:"keywords"`
	PublicationDate string   `json:"publication_date,omitempty"`
	RelevanceTag    string   `json:"relevance_tag"`
	Confidence      string   `json:"confidence"`
	URL             string   `json:"url"`
	ExpiresAt       int64    `json:"expires_at"`
}

// Candidate is one raw result mapped out of a source adapter, before
// normalization into a Reference.
type Candidate struct {
	SourceTag  string
	NativeID   string
	Title      string
	Summary    string
	Conditions []string
	Keywords   []string
	Year       string
	URL        string
}

// ID returns the namespaced identifier used for dedup against the store.
func (c Candidate) ID() string {
	return c.SourceTag + "_" + c.NativeID
}

// Insight is the subset of reference fields returned to the caller when a
// stored reference matches a transcript.
type Insight struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Keywords     string `json:"keywords"`
	RelevanceTag string `json:"relevance_tag"`
	Confidence   string `json:"confidence"`
}

// ReferenceLink points the caller at the matched source record.
type ReferenceLink struct {
	PMID  string `json:"pmid,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MatchResult is the relevance engine's answer for one transcript. A nil
// result means no stored reference scored at or above the threshold.
type MatchResult struct {
	Insight   Insight
	Reference ReferenceLink
	Score     int
}

// PatientInsightRecord is the append-only downstream record written per
// matching request.
type PatientInsightRecord struct {
	PatientID  string         `json:"patient_id"`
	VisitID    string         `json:"visit_id"`
	Transcript string         `json:"transcript"`
	Insight    *Insight       `json:"insight,omitempty"`
	Reference  *ReferenceLink `json:"reference,omitempty"`
	Generated  bool           `json:"generated"`
	ExpiresAt  int64          `json:"expires_at"`
}
