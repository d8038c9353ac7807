// Package usecase orchestrates the reference pipeline: periodic ingestion
// from the registered sources, the idempotent cleaning pass, and relevance
// matching of patient transcripts against the store.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID     string         `json:"run_id"`
	Fetched   int            `json:"fetched"`
	Stored    int            `json:"stored"`
	Failed    int            `json:"failed"`
	PerSource map[string]int `json:"per_source"`
}

// Ingestor runs the fetch -> dedup -> normalize -> write pipeline.
type Ingestor struct {
	registry *source.Registry
	store    ports.ReferenceStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewIngestor wires the source registry and the store.
func NewIngestor(registry *source.Registry, store ports.ReferenceStore, logger *slog.Logger) *Ingestor {
	return &Ingestor{registry: registry, store: store, logger: logger, now: time.Now}
}

// Run executes one ingestion pass. Adapters run concurrently; each swallows
// its own failures, so the only job-level error is an unreachable store.
// Writes are isolated per record: one failed upsert never blocks the rest.
func (i *Ingestor) Run(ctx context.Context) (IngestReport, error) {
	report := IngestReport{RunID: uuid.NewString(), PerSource: map[string]int{}}

	existing, err := i.store.ExistingIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("load existing ids: %w", err)
	}

	var (
		mu         sync.Mutex
		candidates []domain.Candidate
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range i.registry.All() {
		src := src
		g.Go(func() error {
			fetched := src.Fetch(gctx, existing)
			mu.Lock()
			candidates = append(candidates, fetched...)
			report.PerSource[src.Name()] += len(fetched)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Fetched = len(candidates)

	now := i.now()
	seen := map[string]bool{}
	for _, cand := range candidates {
		id := cand.ID()
		if seen[id] || existing[id] {
			continue
		}
		seen[id] = true

		ref := Normalize(cand, now)
		if err := i.store.Put(ctx, ref); err != nil {
			report.Failed++
			i.logger.Warn("store reference failed", "id", id, "error", err)
			continue
		}
		report.Stored++
	}

	i.logger.Info("ingestion finished",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"stored", report.Stored,
		"failed", report.Failed)
	return report, nil
}

// Normalize converts an adapter candidate into the canonical stored reference
// with a 90-day expiry.
func Normalize(c domain.Candidate, now time.Time) domain.Reference {
	tag := ""
	if len(c.Keywords) > 0 {
		tag = "Relevant to " + c.Keywords[0]
	}
	return domain.Reference{
		ID:              c.ID(),
		NativeID:        c.NativeID,
		Title:           c.Title,
		Summary:         c.Summary,
		Keywords:        domain.NewKeywords(c.Keywords),
		PublicationDate: c.Year,
		RelevanceTag:    tag,
		Confidence:      domain.ConfidenceRecommended,
		URL:             c.URL,
		ExpiresAt:       now.Add(domain.ReferenceTTL).Unix(),
	}
}
