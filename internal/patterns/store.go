package patterns

import "context"

// OutcomeStats aggregates recorded triage outcomes for one pattern.
type OutcomeStats struct {
	Hits      int
	Successes int
}

// SuccessRate returns the observed fraction of successful diagnoses.
func (s OutcomeStats) SuccessRate() float64 {
	if s.Hits == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Hits)
}

// LearningStore persists per-pattern triage outcomes so future pattern
// weights can reflect what actually worked.
type LearningStore interface {
	RecordOutcome(ctx context.Context, patternID string, success bool) error
	OutcomeStats(ctx context.Context) (map[string]OutcomeStats, error)
}

// Seed reweights the table from outcomes recorded in store. A nil store is
// a no-op; a store error leaves the pack weights untouched.
func Seed(ctx context.Context, table *Table, store LearningStore) error {
	if store == nil {
		return nil
	}
	stats, err := store.OutcomeStats(ctx)
	if err != nil {
		return err
	}
	table.ApplyOutcomes(stats)
	return nil
}

// RecordFunc adapts a function to the outcome-recording half of
// LearningStore, used by tests and fire-and-forget hooks.
type RecordFunc func(ctx context.Context, patternID string, success bool) error

// RecordOutcome implements the recording side of LearningStore.
func (f RecordFunc) RecordOutcome(ctx context.Context, patternID string, success bool) error {
	return f(ctx, patternID, success)
}
