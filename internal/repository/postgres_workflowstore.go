package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-cms/pkg/models"
)

// Schema creates the workflow_states table. Applied by cmd/seed and by the
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS workflow_states (
	id UUID PRIMARY KEY,
	chain_id UUID NOT NULL,
	idempotency_key TEXT,
	content_id TEXT NOT NULL,
	content_type TEXT NOT NULL,
	workflow_type TEXT NOT NULL,
	current_step TEXT NOT NULL,
	step_order INT NOT NULL,
	total_steps INT NOT NULL,
	next_step TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	assigned_to TEXT,
	assigned_by TEXT,
	assigned_at TIMESTAMPTZ,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	due_date TIMESTAMPTZ,
	estimated_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	actual_hours DOUBLE PRECISION,
	progress_percentage INT NOT NULL DEFAULT 0,
	blocking_reason TEXT,
	resolution_notes TEXT,
	quality_score INT,
	checklist JSONB NOT NULL DEFAULT '[]',
	escalation_level INT NOT NULL DEFAULT 0,
	escalated_to TEXT,
	escalated_at TIMESTAMPTZ,
	workflow_data JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (chain_id, step_order)
);
CREATE UNIQUE INDEX IF NOT EXISTS workflow_states_idempotency_idx
	ON workflow_states (idempotency_key, step_order)
	WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS workflow_states_assignee_idx
	ON workflow_states (assigned_to, status);
`

const stateColumns = `id, chain_id, idempotency_key, content_id, content_type, workflow_type,
	current_step, step_order, total_steps, next_step, status, priority,
	assigned_to, assigned_by, assigned_at, started_at, completed_at, due_date,
	estimated_hours, actual_hours, progress_percentage,
	blocking_reason, resolution_notes, quality_score, checklist,
	escalation_level, escalated_to, escalated_at, workflow_data,
	created_at, updated_at`

const insertStateSQL = `INSERT INTO workflow_states (` + stateColumns + `) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`

// PostgresWorkflowStore is a PostgreSQL implementation of the WorkflowStore
// interface.
type PostgresWorkflowStore struct {
	db *pgxpool.Pool
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore.
func NewPostgresWorkflowStore(db *pgxpool.Pool) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

// CreateChain persists all rows of a new chain in one transaction.
func (s *PostgresWorkflowStore) CreateChain(ctx context.Context, states []*models.WorkflowState) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chain transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, st := range states {
		if _, err := tx.Exec(ctx, insertStateSQL, insertArgs(st)...); err != nil {
			return fmt.Errorf("insert step %d: %w", st.StepOrder, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chain transaction: %w", err)
	}
	return nil
}

func insertArgs(st *models.WorkflowState) []any {
	return []any{
		st.ID, st.ChainID, st.IdempotencyKey, st.ContentID, st.ContentType, st.WorkflowType,
		st.CurrentStep, st.StepOrder, st.TotalSteps, st.NextStep, st.Status, st.Priority,
		st.AssignedTo, st.AssignedBy, st.AssignedAt, st.StartedAt, st.CompletedAt, st.DueDate,
		st.EstimatedHours, st.ActualHours, st.ProgressPercentage,
		st.BlockingReason, st.ResolutionNotes, st.QualityScore, st.Checklist,
		st.EscalationLevel, st.EscalatedTo, st.EscalatedAt, st.WorkflowData,
		st.CreatedAt, st.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*models.WorkflowState, error) {
	var st models.WorkflowState
	err := row.Scan(
		&st.ID, &st.ChainID, &st.IdempotencyKey, &st.ContentID, &st.ContentType, &st.WorkflowType,
		&st.CurrentStep, &st.StepOrder, &st.TotalSteps, &st.NextStep, &st.Status, &st.Priority,
		&st.AssignedTo, &st.AssignedBy, &st.AssignedAt, &st.StartedAt, &st.CompletedAt, &st.DueDate,
		&st.EstimatedHours, &st.ActualHours, &st.ProgressPercentage,
		&st.BlockingReason, &st.ResolutionNotes, &st.QualityScore, &st.Checklist,
		&st.EscalationLevel, &st.EscalatedTo, &st.EscalatedAt, &st.WorkflowData,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresWorkflowStore) queryOne(ctx context.Context, sql string, args ...any) (*models.WorkflowState, error) {
	st, err := scanState(s.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *PostgresWorkflowStore) queryMany(ctx context.Context, sql string, args ...any) ([]*models.WorkflowState, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*models.WorkflowState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// GetState retrieves a workflow state row by its ID.
func (s *PostgresWorkflowStore) GetState(ctx context.Context, id string) (*models.WorkflowState, error) {
	return s.queryOne(ctx, `SELECT `+stateColumns+` FROM workflow_states WHERE id = $1`, id)
}

// UpdateState rewrites the mutable fields of a row.
func (s *PostgresWorkflowStore) UpdateState(ctx context.Context, st *models.WorkflowState) error {
	tag, err := s.db.Exec(ctx, `UPDATE workflow_states SET
		status = $1, priority = $2,
		assigned_to = $3, assigned_by = $4, assigned_at = $5,
		started_at = $6, completed_at = $7, due_date = $8,
		actual_hours = $9, progress_percentage = $10,
		blocking_reason = $11, resolution_notes = $12, quality_score = $13,
		checklist = $14, escalation_level = $15, escalated_to = $16, escalated_at = $17,
		workflow_data = $18, updated_at = $19
		WHERE id = $20`,
		st.Status, st.Priority,
		st.AssignedTo, st.AssignedBy, st.AssignedAt,
		st.StartedAt, st.CompletedAt, st.DueDate,
		st.ActualHours, st.ProgressPercentage,
		st.BlockingReason, st.ResolutionNotes, st.QualityScore,
		st.Checklist, st.EscalationLevel, st.EscalatedTo, st.EscalatedAt,
		st.WorkflowData, st.UpdatedAt,
		st.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetChainStep retrieves the row of a chain at the given position.
func (s *PostgresWorkflowStore) GetChainStep(ctx context.Context, chainID string, stepOrder int) (*models.WorkflowState, error) {
	return s.queryOne(ctx,
		`SELECT `+stateColumns+` FROM workflow_states WHERE chain_id = $1 AND step_order = $2`,
		chainID, stepOrder)
}

// ListChain returns a chain's rows in step order.
func (s *PostgresWorkflowStore) ListChain(ctx context.Context, chainID string) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states WHERE chain_id = $1 ORDER BY step_order`,
		chainID)
}

// FindChainByIdempotencyKey returns the chain created under the given key.
func (s *PostgresWorkflowStore) FindChainByIdempotencyKey(ctx context.Context, key string) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states WHERE idempotency_key = $1 ORDER BY step_order`,
		key)
}

// ListActiveByAssignee returns the user's in-flight rows.
func (s *PostgresWorkflowStore) ListActiveByAssignee(ctx context.Context, userID string) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states
		WHERE assigned_to = $1 AND status IN ('in_progress', 'waiting_for_input', 'blocked')
		ORDER BY due_date NULLS LAST, created_at`,
		userID)
}

// ListOverdue returns the user's rows past their due date that are not
// completed or cancelled.
func (s *PostgresWorkflowStore) ListOverdue(ctx context.Context, userID string, now time.Time) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states
		WHERE assigned_to = $1 AND due_date IS NOT NULL AND due_date < $2
		AND status NOT IN ('completed', 'cancelled')
		ORDER BY due_date`,
		userID, now)
}

// ListCompletedSince returns the user's rows completed at or after since.
func (s *PostgresWorkflowStore) ListCompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states
		WHERE assigned_to = $1 AND status = 'completed' AND completed_at >= $2
		ORDER BY completed_at DESC`,
		userID, since)
}

// ListAssignedSince returns the user's rows created at or after since.
func (s *PostgresWorkflowStore) ListAssignedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkflowState, error) {
	return s.queryMany(ctx,
		`SELECT `+stateColumns+` FROM workflow_states
		WHERE assigned_to = $1 AND created_at >= $2
		ORDER BY created_at`,
		userID, since)
}

// CancelChain marks every non-terminal row of a chain cancelled.
func (s *PostgresWorkflowStore) CancelChain(ctx context.Context, chainID string) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_states SET status = 'cancelled', updated_at = $2
		WHERE chain_id = $1 AND status NOT IN ('completed', 'cancelled')`,
		chainID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Ping verifies database connectivity.
func (s *PostgresWorkflowStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
