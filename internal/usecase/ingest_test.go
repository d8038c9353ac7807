package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/storage"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSource struct {
	name       string
	candidates []domain.Candidate
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(_ context.Context, existing map[string]bool) []domain.Candidate {
	var out []domain.Candidate
	for _, c := range s.candidates {
		if !existing[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

type failingPutStore struct {
	ports.ReferenceStore
	failID string
}

func (s failingPutStore) Put(ctx context.Context, ref domain.Reference) error {
	if ref.ID == s.failID {
		return errors.New("write rejected")
	}
	return s.ReferenceStore.Put(ctx, ref)
}

func candidate(tag, native, title string) domain.Candidate {
	return domain.Candidate{
		SourceTag: tag,
		NativeID:  native,
		Title:     title,
		Summary:   "Asthma outcomes summary.",
		Keywords:  []string{"asthma"},
		Year:      "2023",
		URL:       "https://example.org/" + native,
	}
}

func TestIngestStoresNormalized(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(stubSource{name: "pubmed", candidates: []domain.Candidate{candidate("pubmed", "1", "Asthma One")}})

	store := storage.NewMemoryStore()
	store.SetClock(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) })
	ing := NewIngestor(registry, store, discardLogger())
	ing.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Stored != 1 || report.Fetched != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	refs, _ := store.ScanAll(context.Background())
	ref := refs[0]
	if ref.ID != "pubmed_1" {
		t.Fatalf("unexpected id: %s", ref.ID)
	}
	if ref.RelevanceTag != "Relevant to asthma" {
		t.Fatalf("unexpected tag: %s", ref.RelevanceTag)
	}
	if ref.Confidence != domain.ConfidenceRecommended {
		t.Fatalf("unexpected confidence: %s", ref.Confidence)
	}
	if ref.Keywords.Value != "asthma" {
		t.Fatalf("unexpected keywords: %q", ref.Keywords.Value)
	}

	wantExpiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(domain.ReferenceTTL).Unix()
	if ref.ExpiresAt != wantExpiry {
		t.Fatalf("unexpected expiry: %d, want %d", ref.ExpiresAt, wantExpiry)
	}
}

func TestIngestDeduplicatesWithinRun(t *testing.T) {
	t.Parallel()

	// Two sources yield the same namespaced record; only one write happens.
	dup := candidate("pubmed", "7", "Asthma Dup")
	registry := source.NewRegistry()
	registry.Register(stubSource{name: "a", candidates: []domain.Candidate{dup}})
	registry.Register(stubSource{name: "b", candidates: []domain.Candidate{dup}})

	store := storage.NewMemoryStore()
	ing := NewIngestor(registry, store, discardLogger())

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Fetched != 2 || report.Stored != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestIngestSkipsAlreadyStored(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(stubSource{name: "pubmed", candidates: []domain.Candidate{candidate("pubmed", "1", "Asthma One")}})

	store := storage.NewMemoryStore()
	existing := Normalize(candidate("pubmed", "1", "Asthma One"), time.Now())
	if err := store.Put(context.Background(), existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ing := NewIngestor(registry, store, discardLogger())
	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Stored != 0 {
		t.Fatalf("expected no new writes, got %+v", report)
	}
}

func TestIngestIsolatesWriteFailures(t *testing.T) {
	t.Parallel()

	registry := source.NewRegistry()
	registry.Register(stubSource{name: "pubmed", candidates: []domain.Candidate{
		candidate("pubmed", "1", "Asthma One"),
		candidate("pubmed", "2", "Asthma Two"),
	}})

	store := failingPutStore{ReferenceStore: storage.NewMemoryStore(), failID: "pubmed_1"}
	ing := NewIngestor(registry, store, discardLogger())

	report, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("run must not fail on per-record errors: %v", err)
	}
	if report.Stored != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
