package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// MemoryStore is a mutex-guarded in-process document store. It backs tests
// and DSN-less development runs with the same expiry semantics as Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	refs     map[string]domain.Reference
	insights []domain.PatientInsightRecord
	now      func() time.Time
}

var (
	_ ports.ReferenceStore = (*MemoryStore)(nil)
	_ ports.InsightStore   = (*MemoryStore)(nil)
)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{refs: map[string]domain.Reference{}, now: time.Now}
}

// SetClock overrides the expiry clock, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) expired(ref domain.Reference) bool {
	return ref.ExpiresAt > 0 && !time.Unix(ref.ExpiresAt, 0).After(s.now())
}

// ExistingIDs returns the set of unexpired reference ids.
func (s *MemoryStore) ExistingIDs(_ context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := map[string]bool{}
	for id, ref := range s.refs {
		if !s.expired(ref) {
			ids[id] = true
		}
	}
	return ids, nil
}

// ScanAll returns every unexpired reference, ordered by id.
func (s *MemoryStore) ScanAll(_ context.Context) ([]domain.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []domain.Reference
	for _, ref := range s.refs {
		if !s.expired(ref) {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

// Put upserts one reference keyed by its id.
func (s *MemoryStore) Put(_ context.Context, ref domain.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[ref.ID] = ref
	return nil
}

// UpdateKeywords rewrites the keywords field of one stored reference.
func (s *MemoryStore) UpdateKeywords(_ context.Context, id, canonical string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.refs[id]; ok {
		ref.Keywords = domain.Keywords{Value: canonical}
		s.refs[id] = ref
	}
	return nil
}

// Delete removes one reference.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refs, id)
	return nil
}

// AppendInsight records one patient insight.
func (s *MemoryStore) AppendInsight(_ context.Context, rec domain.PatientInsightRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, rec)
	return nil
}

// Insights returns a copy of the appended insight records, for tests.
func (s *MemoryStore) Insights() []domain.PatientInsightRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PatientInsightRecord, len(s.insights))
	copy(out, s.insights)
	return out
}
