// Package archive provides PostgreSQL persistence for solve runs, so
// loadouts found under different windows and backends can be compared later.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/bis-solver/internal/loadout"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the archive tables when they are absent.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS solve_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job TEXT NOT NULL,
			backend TEXT NOT NULL,
			min_item_level INT NOT NULL DEFAULT 0,
			max_item_level INT NOT NULL DEFAULT 0,
			secondary BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL,
			objective DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS solutions (
			run_id UUID PRIMARY KEY REFERENCES solve_runs(id) ON DELETE CASCADE,
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate archive schema: %w", err)
		}
	}
	return nil
}

// SolveRun is one archived solve record.
type SolveRun struct {
	ID           uuid.UUID  `json:"id"`
	Job          string     `json:"job"`
	Backend      string     `json:"backend"`
	MinItemLevel int        `json:"min_item_level"`
	MaxItemLevel int        `json:"max_item_level"`
	Secondary    bool       `json:"secondary"`
	Status       string     `json:"status"`
	Objective    *float64   `json:"objective,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// CreateRun creates a new solve run record and returns its ID.
func (s *Store) CreateRun(ctx context.Context, job, backend string, minItemLevel, maxItemLevel int, secondary bool) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO solve_runs (job, backend, min_item_level, max_item_level, secondary, status)
		 VALUES ($1, $2, $3, $4, $5, 'running')
		 RETURNING id`,
		job, backend, minItemLevel, maxItemLevel, secondary,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create solve run: %w", err)
	}
	return id, nil
}

// CompleteRun records the terminal status of a solve run. The objective is
// nil for anything but an optimal solve.
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status string, objective *float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE solve_runs SET status = $1, objective = $2, completed_at = NOW() WHERE id = $3`,
		status, objective, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete solve run: %w", err)
	}
	return nil
}

// SaveSolution stores the decoded solution for a run as JSON.
func (s *Store) SaveSolution(ctx context.Context, runID uuid.UUID, sol *loadout.Solution) error {
	jsonBytes, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("failed to marshal solution: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO solutions (run_id, content)
		 VALUES ($1, $2)
		 ON CONFLICT (run_id) DO UPDATE SET content = $2, created_at = NOW()`,
		runID, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save solution: %w", err)
	}
	return nil
}

// GetSolution retrieves the stored solution for a run, or nil when none was
// archived.
func (s *Store) GetSolution(ctx context.Context, runID uuid.UUID) (*loadout.Solution, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM solutions WHERE run_id = $1`,
		runID,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	var sol loadout.Solution
	if err := json.Unmarshal(content, &sol); err != nil {
		return nil, fmt.Errorf("failed to unmarshal solution: %w", err)
	}
	return &sol, nil
}

// GetRun retrieves a solve run by ID, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*SolveRun, error) {
	var run SolveRun
	err := s.pool.QueryRow(ctx,
		`SELECT id, job, backend, min_item_level, max_item_level, secondary, status, objective, created_at, completed_at
		 FROM solve_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Job, &run.Backend, &run.MinItemLevel, &run.MaxItemLevel,
		&run.Secondary, &run.Status, &run.Objective, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get solve run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent solve runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]SolveRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, job, backend, min_item_level, max_item_level, secondary, status, objective, created_at, completed_at
		 FROM solve_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list solve runs: %w", err)
	}
	defer rows.Close()

	var runs []SolveRun
	for rows.Next() {
		var run SolveRun
		if err := rows.Scan(&run.ID, &run.Job, &run.Backend, &run.MinItemLevel, &run.MaxItemLevel,
			&run.Secondary, &run.Status, &run.Objective, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan solve run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
