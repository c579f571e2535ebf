package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-pivot/internal/types"
)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// PostgresRegistry hands out user-scoped stores backed by one shared pool
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry creates a registry over pool
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// ForUser implements Registry
func (r *PostgresRegistry) ForUser(_ context.Context, userID string) (Store, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return &PostgresStore{pool: r.pool, userID: userID}, nil
}

// PostgresStore stores one row per run in the runs table.
// Phase merging happens in Go while the row is locked.
type PostgresStore struct {
	pool   *pgxpool.Pool
	userID string
}

const selectRunSQL = `SELECT id, user_id, status, background, resume_text, target_role, selected_role_id,
	job_description, job_description_source, error, phases, created_at, updated_at
	FROM runs WHERE id = $1 AND user_id = $2`

// CreateRun implements Store
func (s *PostgresStore) CreateRun(ctx context.Context, id string, init types.RunPatch) (*types.Run, error) {
	return s.mutate(ctx, id, init, true)
}

// PatchRun implements Store
func (s *PostgresStore) PatchRun(ctx context.Context, id string, patch types.RunPatch) (*types.Run, error) {
	return s.mutate(ctx, id, patch, patch.CanSynthesize())
}

func (s *PostgresStore) mutate(ctx context.Context, id string, patch types.RunPatch, create bool) (*types.Run, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if create {
		_, err = tx.Exec(ctx,
			`INSERT INTO runs (id, user_id, status) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			id, s.userID, string(types.StatusQueued),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create run %s: %w", id, err)
		}
	}

	run, err := scanRun(tx.QueryRow(ctx, selectRunSQL+` FOR UPDATE`, id, s.userID))
	if err != nil {
		return nil, err
	}

	if err := applyPatch(run, patch, time.Now().UTC()); err != nil {
		return nil, err
	}

	phasesJSON, err := json.Marshal(run.Phases)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal phases: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE runs SET status = $3, background = $4, resume_text = $5, target_role = $6,
			selected_role_id = $7, job_description = $8, job_description_source = $9, error = $10,
			phases = $11, updated_at = $12
		 WHERE id = $1 AND user_id = $2`,
		id, s.userID, string(run.Status), run.Background, run.ResumeText, run.TargetRole,
		run.SelectedRoleID, run.JobDescription, string(run.JobDescriptionSource), run.Error,
		phasesJSON, run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update run %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit run %s: %w", id, err)
	}
	return run, nil
}

// GetRun implements Store
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*types.Run, error) {
	return scanRun(s.pool.QueryRow(ctx, selectRunSQL, id, s.userID))
}

// ListRecent implements Store
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]types.RunSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, target_role, updated_at FROM runs
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`,
		s.userID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []types.RunSummary
	for rows.Next() {
		var (
			summary types.RunSummary
			status  string
		)
		if err := rows.Scan(&summary.ID, &status, &summary.TargetRole, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summary.Status = parseStoredStatus(status)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return summaries, nil
}

func scanRun(row pgx.Row) (*types.Run, error) {
	var (
		run      types.Run
		status   string
		jdSource string
		phases   []byte
	)
	err := row.Scan(&run.ID, &run.UserID, &status, &run.Background, &run.ResumeText,
		&run.TargetRole, &run.SelectedRoleID, &run.JobDescription, &jdSource, &run.Error,
		&phases, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	run.Status = parseStoredStatus(status)
	run.JobDescriptionSource = types.JobDescriptionSource(jdSource)
	run.Phases = map[string]any{}
	if len(phases) > 0 {
		if err := json.Unmarshal(phases, &run.Phases); err != nil {
			return nil, fmt.Errorf("failed to decode phases of run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

// parseStoredStatus maps legacy spellings written by older versions onto the canonical set
func parseStoredStatus(s string) types.RunStatus {
	status, err := types.ParseRunStatus(s)
	if err != nil {
		return types.RunStatus(s)
	}
	return status
}
