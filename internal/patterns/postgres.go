package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists triage outcomes in PostgreSQL so pattern weights
// can be tuned from history across restarts.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to PostgreSQL and ensures the outcome table
// exists.
func NewPostgresStore(ctx context.Context, url string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.ConnConfig.ConnectTimeout = 10 * time.Second

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{pool: pool, logger: logger}
	if err := store.ensureSchema(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Health verifies database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pattern_outcomes (
			pattern_id TEXT PRIMARY KEY,
			hits       BIGINT NOT NULL DEFAULT 0,
			successes  BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure pattern_outcomes table: %w", err)
	}
	return nil
}

// RecordOutcome implements LearningStore.
func (s *PostgresStore) RecordOutcome(ctx context.Context, patternID string, success bool) error {
	query := `
		INSERT INTO pattern_outcomes (pattern_id, hits, successes, updated_at)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (pattern_id) DO UPDATE SET
			hits = pattern_outcomes.hits + 1,
			successes = pattern_outcomes.successes + EXCLUDED.successes,
			updated_at = now()
	`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	successes := 0
	if success {
		successes = 1
	}
	if _, err := s.pool.Exec(ctx, query, patternID, successes); err != nil {
		return fmt.Errorf("record outcome for %s: %w", patternID, err)
	}
	return nil
}

// OutcomeStats implements LearningStore.
func (s *PostgresStore) OutcomeStats(ctx context.Context) (map[string]OutcomeStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT pattern_id, hits, successes FROM pattern_outcomes`)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]OutcomeStats)
	for rows.Next() {
		var id string
		var hits, successes int64
		if err := rows.Scan(&id, &hits, &successes); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		stats[id] = OutcomeStats{Hits: int(hits), Successes: int(successes)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return stats, nil
}
