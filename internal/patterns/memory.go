package patterns

import (
	"context"
	"sync"
)

// MemoryStore is an in-process LearningStore used when no database is
// configured. Outcomes do not survive restarts.
type MemoryStore struct {
	mu    sync.Mutex
	stats map[string]OutcomeStats
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: make(map[string]OutcomeStats)}
}

// RecordOutcome implements LearningStore.
func (s *MemoryStore) RecordOutcome(_ context.Context, patternID string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.stats[patternID]
	entry.Hits++
	if success {
		entry.Successes++
	}
	s.stats[patternID] = entry
	return nil
}

// OutcomeStats implements LearningStore.
func (s *MemoryStore) OutcomeStats(_ context.Context) (map[string]OutcomeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]OutcomeStats, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out, nil
}
