package repository

import (
	"context"
	"errors"
	"time"

	"portfolio-cms/pkg/models"
)

// ErrNotFound is returned when a workflow state row does not exist.
var ErrNotFound = errors.New("workflow state not found")

// WorkflowStore persists workflow step rows. Updates are whole-row writes:
// concurrent writers to the same row are last-write-wins, including the
// checklist column.
type WorkflowStore interface {
	// CreateChain atomically persists all rows of a new chain. Either
	// every row is written or none is.
	CreateChain(ctx context.Context, states []*models.WorkflowState) error
	// GetState retrieves one row by id, returning ErrNotFound if absent.
	GetState(ctx context.Context, id string) (*models.WorkflowState, error)
	// UpdateState rewrites a row's mutable fields.
	UpdateState(ctx context.Context, state *models.WorkflowState) error
	// GetChainStep retrieves the row of a chain at the given position.
	GetChainStep(ctx context.Context, chainID string, stepOrder int) (*models.WorkflowState, error)
	// ListChain returns a chain's rows ordered by step_order.
	ListChain(ctx context.Context, chainID string) ([]*models.WorkflowState, error)
	// FindChainByIdempotencyKey returns the chain created under the given
	// key, ordered by step_order, or an empty slice if none exists.
	FindChainByIdempotencyKey(ctx context.Context, key string) ([]*models.WorkflowState, error)
	// ListActiveByAssignee returns the user's in-flight rows.
	ListActiveByAssignee(ctx context.Context, userID string) ([]*models.WorkflowState, error)
	// ListOverdue returns the user's rows past their due date and not in a
	// terminal status.
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]*models.WorkflowState, error)
	// ListCompletedSince returns the user's rows completed at or after the
	// given instant.
	ListCompletedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkflowState, error)
	// ListAssignedSince returns the user's rows created at or after the
	// given instant, for rolling-window analytics.
	ListAssignedSince(ctx context.Context, userID string, since time.Time) ([]*models.WorkflowState, error)
	// CancelChain marks every non-terminal row of a chain cancelled and
	// returns the number of rows affected.
	CancelChain(ctx context.Context, chainID string) (int, error)
	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}
