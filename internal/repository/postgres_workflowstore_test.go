package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"portfolio-cms/pkg/models"
)

func newTestState(chainID string, stepOrder, totalSteps int, assignee string) *models.WorkflowState {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.WorkflowState{
		ID:           uuid.New().String(),
		ChainID:      chainID,
		ContentID:    "content-1",
		ContentType:  models.ContentTypeCreativeWork,
		WorkflowType: models.WorkflowTypeCreativeEditing,
		CurrentStep:  "initial_draft",
		StepOrder:    stepOrder,
		TotalSteps:   totalSteps,
		Status:       models.StatusNotStarted,
		Priority:     models.PriorityMedium,
		AssignedTo:   &assignee,
		Checklist: models.Checklist{
			{ID: "draft_complete", Text: "Draft covers the full outline"},
		},
		WorkflowData: models.WorkflowData{SchemaVersion: 1, Description: "test chain"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresWorkflowStore(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatal(err)
	}

	store := NewPostgresWorkflowStore(pool)

	t.Run("CreateChain and GetState", func(t *testing.T) {
		chainID := uuid.New().String()
		first := newTestState(chainID, 1, 2, "dev@localhost")
		second := newTestState(chainID, 2, 2, "dev@localhost")
		second.CurrentStep = "creative_editing"
		next := second.CurrentStep
		first.NextStep = &next
		first.Status = models.StatusInProgress

		err := store.CreateChain(ctx, []*models.WorkflowState{first, second})
		assert.NoError(t, err)

		got, err := store.GetState(ctx, first.ID)
		assert.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, chainID, got.ChainID)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Equal(t, "creative_editing", *got.NextStep)
		assert.Equal(t, first.Checklist, got.Checklist)
		assert.Equal(t, 1, got.WorkflowData.SchemaVersion)
		assert.Equal(t, "test chain", got.WorkflowData.Description)
	})

	t.Run("GetState not found", func(t *testing.T) {
		_, err := store.GetState(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateChain is atomic", func(t *testing.T) {
		chainID := uuid.New().String()
		first := newTestState(chainID, 1, 2, "dev@localhost")
		// duplicate step_order violates the chain uniqueness constraint
		dup := newTestState(chainID, 1, 2, "dev@localhost")

		err := store.CreateChain(ctx, []*models.WorkflowState{first, dup})
		assert.Error(t, err)

		_, err = store.GetState(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateState rewrites mutable fields", func(t *testing.T) {
		chainID := uuid.New().String()
		st := newTestState(chainID, 1, 1, "dev@localhost")
		assert.NoError(t, store.CreateChain(ctx, []*models.WorkflowState{st}))

		now := time.Now().UTC().Truncate(time.Microsecond)
		st.Status = models.StatusCompleted
		st.CompletedAt = &now
		st.ProgressPercentage = 100
		st.Checklist[0].Completed = true
		st.Checklist[0].CompletedAt = &now
		st.UpdatedAt = now

		assert.NoError(t, store.UpdateState(ctx, st))

		got, err := store.GetState(ctx, st.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		assert.Equal(t, 100, got.ProgressPercentage)
		assert.True(t, got.Checklist[0].Completed)

		missing := newTestState(uuid.New().String(), 1, 1, "dev@localhost")
		assert.ErrorIs(t, store.UpdateState(ctx, missing), ErrNotFound)
	})

	t.Run("GetChainStep and ListChain", func(t *testing.T) {
		chainID := uuid.New().String()
		first := newTestState(chainID, 1, 3, "dev@localhost")
		second := newTestState(chainID, 2, 3, "dev@localhost")
		third := newTestState(chainID, 3, 3, "dev@localhost")
		assert.NoError(t, store.CreateChain(ctx, []*models.WorkflowState{third, first, second}))

		got, err := store.GetChainStep(ctx, chainID, 2)
		assert.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)

		_, err = store.GetChainStep(ctx, chainID, 9)
		assert.ErrorIs(t, err, ErrNotFound)

		chain, err := store.ListChain(ctx, chainID)
		assert.NoError(t, err)
		assert.Len(t, chain, 3)
		for i, st := range chain {
			assert.Equal(t, i+1, st.StepOrder)
		}
	})

	t.Run("FindChainByIdempotencyKey", func(t *testing.T) {
		chainID := uuid.New().String()
		key := "req-" + uuid.New().String()
		first := newTestState(chainID, 1, 2, "dev@localhost")
		second := newTestState(chainID, 2, 2, "dev@localhost")
		first.IdempotencyKey = &key
		second.IdempotencyKey = &key
		assert.NoError(t, store.CreateChain(ctx, []*models.WorkflowState{first, second}))

		found, err := store.FindChainByIdempotencyKey(ctx, key)
		assert.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, chainID, found[0].ChainID)

		none, err := store.FindChainByIdempotencyKey(ctx, "req-unknown")
		assert.NoError(t, err)
		assert.Empty(t, none)

		// the partial unique index rejects a second chain under the same key
		other := newTestState(uuid.New().String(), 1, 1, "dev@localhost")
		other.IdempotencyKey = &key
		assert.Error(t, store.CreateChain(ctx, []*models.WorkflowState{other}))
	})

	t.Run("dashboard queries", func(t *testing.T) {
		user := "dash-" + uuid.New().String()
		now := time.Now().UTC().Truncate(time.Microsecond)
		past := now.Add(-3 * time.Hour)

		active := newTestState(uuid.New().String(), 1, 1, user)
		active.Status = models.StatusInProgress

		overdue := newTestState(uuid.New().String(), 1, 1, user)
		overdue.Status = models.StatusBlocked
		overdue.DueDate = &past

		completed := newTestState(uuid.New().String(), 1, 1, user)
		completed.Status = models.StatusCompleted
		completed.CompletedAt = &now
		completed.DueDate = &past

		pending := newTestState(uuid.New().String(), 1, 1, user)

		for _, st := range []*models.WorkflowState{active, overdue, completed, pending} {
			assert.NoError(t, store.CreateChain(ctx, []*models.WorkflowState{st}))
		}

		got, err := store.ListActiveByAssignee(ctx, user)
		assert.NoError(t, err)
		assert.Len(t, got, 2) // active and overdue, not_started and completed excluded

		got, err = store.ListOverdue(ctx, user, now)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, overdue.ID, got[0].ID)

		got, err = store.ListCompletedSince(ctx, user, now.Add(-time.Minute))
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, completed.ID, got[0].ID)

		got, err = store.ListAssignedSince(ctx, user, now.Add(-time.Hour))
		assert.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("CancelChain", func(t *testing.T) {
		chainID := uuid.New().String()
		now := time.Now().UTC()
		first := newTestState(chainID, 1, 3, "dev@localhost")
		first.Status = models.StatusCompleted
		first.CompletedAt = &now
		second := newTestState(chainID, 2, 3, "dev@localhost")
		second.Status = models.StatusInProgress
		third := newTestState(chainID, 3, 3, "dev@localhost")
		assert.NoError(t, store.CreateChain(ctx, []*models.WorkflowState{first, second, third}))

		n, err := store.CancelChain(ctx, chainID)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)

		chain, err := store.ListChain(ctx, chainID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, chain[0].Status)
		assert.Equal(t, models.StatusCancelled, chain[1].Status)
		assert.Equal(t, models.StatusCancelled, chain[2].Status)

		// cancelling again affects nothing
		n, err = store.CancelChain(ctx, chainID)
		assert.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
