package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// RunRepository handles database operations for simulation and backtest runs
type RunRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRun inserts a new run in the running state
func (r *RunRepository) CreateRun(ctx context.Context, run *model.Run) (int, error) {
	query := `
		INSERT INTO runs (kind, name, status, config, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int
	err := r.db.QueryRowContext(
		ctx,
		query,
		run.Kind,
		run.Name,
		model.RunStatusRunning,
		run.Config,
		time.Now(),
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create run", zap.Error(err))
		return 0, err
	}

	return id, nil
}

// CompleteRun stores the result summary and marks the run completed
func (r *RunRepository) CompleteRun(ctx context.Context, id int, summary *model.RunSummary) error {
	query := `
		UPDATE runs
		SET status = $1, summary = $2, completed_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, model.RunStatusCompleted, summary, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to complete run", zap.Error(err), zap.Int("id", id))
		return err
	}
	return nil
}

// FailRun records the failure message and marks the run failed
func (r *RunRepository) FailRun(ctx context.Context, id int, message string) error {
	query := `
		UPDATE runs
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, model.RunStatusFailed, message, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark run failed", zap.Error(err), zap.Int("id", id))
		return err
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(ctx context.Context, id int) (*model.Run, error) {
	query := `
		SELECT id, kind, name, status, config, summary, error_message, created_at, completed_at
		FROM runs
		WHERE id = $1
	`

	var run model.Run
	err := r.db.GetContext(ctx, &run, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get run", zap.Error(err), zap.Int("id", id))
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves runs of one kind, newest first, with pagination
func (r *RunRepository) ListRuns(ctx context.Context, kind model.RunKind, page, limit int) ([]model.Run, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	countQuery := `SELECT COUNT(*) FROM runs WHERE kind = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, kind); err != nil {
		r.logger.Error("Failed to count runs", zap.Error(err))
		return nil, 0, err
	}

	query := `
		SELECT id, kind, name, status, config, summary, error_message, created_at, completed_at
		FROM runs
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	runs := []model.Run{}
	if err := r.db.SelectContext(ctx, &runs, query, kind, limit, offset); err != nil {
		r.logger.Error("Failed to list runs", zap.Error(err))
		return nil, 0, err
	}
	return runs, total, nil
}

// DeleteRun removes a run by ID
func (r *RunRepository) DeleteRun(ctx context.Context, id int) error {
	query := `DELETE FROM runs WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete run", zap.Error(err), zap.Int("id", id))
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
