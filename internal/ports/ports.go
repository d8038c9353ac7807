package ports

import (
	"context"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
)

// ReferenceSource pulls candidate records from one external bibliographic or
// trial source. Implementations swallow their own fetch/parse failures and
// return an empty slice rather than an error for whole-call problems.
type ReferenceSource interface {
	Name() string
	Fetch(ctx context.Context, existingIDs map[string]bool) []domain.Candidate
}

// ReferenceStore is the keyed document store holding normalized references.
// Expired documents are the store's problem: implementations never return
// them, whether or not physical eviction has happened yet.
type ReferenceStore interface {
	ExistingIDs(ctx context.Context) (map[string]bool, error)
	ScanAll(ctx context.Context) ([]domain.Reference, error)
	Put(ctx context.Context, ref domain.Reference) error
	UpdateKeywords(ctx context.Context, id, canonical string) error
	Delete(ctx context.Context, id string) error
}

// InsightStore appends per-visit insight records for downstream consumers.
type InsightStore interface {
	AppendInsight(ctx context.Context, rec domain.PatientInsightRecord) error
}

// FallbackGenerator produces an insight for a transcript when no stored
// reference matches. A malformed model response is a hard error.
type FallbackGenerator interface {
	Generate(ctx context.Context, transcript string) (domain.Insight, domain.ReferenceLink, error)
}

// Scheduler controls when the ingestion/cleaning job executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
