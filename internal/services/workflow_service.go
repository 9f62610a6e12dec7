package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"portfolio-cms/internal/observability"
	"portfolio-cms/internal/repository"
	"portfolio-cms/internal/templates"
	"portfolio-cms/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// WorkflowService drives review chains: it materializes chains from the
// template catalogue, executes step transitions, enforces the checklist
// gate on advancement, and serves dashboard and analytics reads.
type WorkflowService struct {
	store    repository.WorkflowStore
	assigner AssignmentStrategy
	logger   Logger
	metrics  *observability.Metrics
}

// NewWorkflowService creates a new WorkflowService. A nil assigner defaults
// to NoOpStrategy.
func NewWorkflowService(store repository.WorkflowStore, assigner AssignmentStrategy, logger Logger, metrics *observability.Metrics) *WorkflowService {
	if assigner == nil {
		assigner = NoOpStrategy{}
	}
	return &WorkflowService{
		store:    store,
		assigner: assigner,
		logger:   logger,
		metrics:  metrics,
	}
}

// InitiateParams describes a chain to create.
type InitiateParams struct {
	Kind        models.WorkflowKind
	ContentID   string
	ContentType models.ContentType
	AssignedTo  string
	AssignedBy  string
	Priority    models.Priority
	Options     models.TemplateOptions
	Description string

	SourceLocale     string
	TargetLocale     string
	EducationalLevel string

	// StartAt, when set, derives per-step due dates from the template's
	// estimated hours.
	StartAt *time.Time
	// IdempotencyKey, when set, makes repeated initiate calls return the
	// chain created by the first one instead of duplicating it.
	IdempotencyKey string
}

// Initiate builds the template for the given kind and persists one row per
// step, atomically. The first step starts in_progress; the rest not_started.
// Returns the chain rows in step order.
func (s *WorkflowService) Initiate(ctx context.Context, p InitiateParams) ([]*models.WorkflowState, error) {
	if p.ContentID == "" {
		return nil, errors.New("content id is required")
	}
	if !p.ContentType.Valid() {
		return nil, fmt.Errorf("unknown content type %q", p.ContentType)
	}
	if p.AssignedTo == "" {
		return nil, errors.New("assignee is required")
	}

	tpl, err := templates.Build(p.Kind, p.Options)
	if err != nil {
		return nil, err
	}

	if p.IdempotencyKey != "" {
		existing, err := s.store.FindChainByIdempotencyKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if len(existing) > 0 {
			s.logger.Info("initiate replay detected, returning existing chain",
				"idempotency_key", p.IdempotencyKey, "chain_id", existing[0].ChainID)
			return existing, nil
		}
	}

	priority := p.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now().UTC()
	chainID := uuid.New().String()
	total := len(tpl.Steps)

	var idemKey *string
	if p.IdempotencyKey != "" {
		idemKey = &p.IdempotencyKey
	}
	var assignedBy *string
	if p.AssignedBy != "" {
		assignedBy = &p.AssignedBy
	}

	data := models.WorkflowData{
		SchemaVersion:    1,
		Description:      p.Description,
		SourceLocale:     p.SourceLocale,
		TargetLocale:     p.TargetLocale,
		EducationalLevel: p.EducationalLevel,
		Options:          p.Options,
	}

	due := p.StartAt
	states := make([]*models.WorkflowState, 0, total)
	for i, step := range tpl.Steps {
		st := &models.WorkflowState{
			ID:             uuid.New().String(),
			ChainID:        chainID,
			IdempotencyKey: idemKey,
			ContentID:      p.ContentID,
			ContentType:    p.ContentType,
			WorkflowType:   tpl.WorkflowType,
			CurrentStep:    step.Name,
			StepOrder:      i + 1,
			TotalSteps:     total,
			Status:         models.StatusNotStarted,
			Priority:       priority,
			AssignedTo:     &p.AssignedTo,
			AssignedBy:     assignedBy,
			AssignedAt:     &now,
			EstimatedHours: step.EstimatedHours,
			Checklist:      cloneChecklist(step.Checklist),
			WorkflowData:   data,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if i == 0 {
			st.Status = models.StatusInProgress
			st.StartedAt = &now
		}
		if i < total-1 {
			next := tpl.Steps[i+1].Name
			st.NextStep = &next
		}
		if due != nil {
			d := due.Add(time.Duration(step.EstimatedHours * float64(time.Hour)))
			st.DueDate = &d
			due = &d
		}
		states = append(states, st)
	}

	if err := s.store.CreateChain(ctx, states); err != nil {
		return nil, fmt.Errorf("create chain: %w", err)
	}

	s.metrics.ChainInitiated(ctx, string(p.Kind))
	s.logger.Info("workflow chain initiated",
		"chain_id", chainID, "kind", p.Kind, "content_id", p.ContentID, "steps", total)
	return states, nil
}

func cloneChecklist(list models.Checklist) models.Checklist {
	out := make(models.Checklist, len(list))
	copy(out, list)
	return out
}

func (s *WorkflowService) save(ctx context.Context, st *models.WorkflowState) error {
	st.UpdatedAt = time.Now().UTC()
	return s.store.UpdateState(ctx, st)
}

// GetWorkflow returns a single step row.
func (s *WorkflowService) GetWorkflow(ctx context.Context, id string) (*models.WorkflowState, error) {
	return s.store.GetState(ctx, id)
}

// GetChain returns the ordered rows of a chain.
func (s *WorkflowService) GetChain(ctx context.Context, chainID string) ([]*models.WorkflowState, error) {
	return s.store.ListChain(ctx, chainID)
}

// StartWork moves a step to in_progress, stamping started_at and resetting
// progress. An optional assignee reassigns the step.
func (s *WorkflowService) StartWork(ctx context.Context, id string, assignee *string) (*models.WorkflowState, error) {
	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st.Status = models.StatusInProgress
	st.StartedAt = &now
	st.ProgressPercentage = 0
	if assignee != nil {
		st.AssignedTo = assignee
		st.AssignedAt = &now
	}
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "start")
	return st, nil
}

// UpdateProgress sets the step's progress percentage, clamped to [0, 100].
// Reaching 100 on an in-progress step completes it.
func (s *WorkflowService) UpdateProgress(ctx context.Context, id string, percentage int) (*models.WorkflowState, error) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	if percentage == 100 && st.Status == models.StatusInProgress {
		return s.CompleteWork(ctx, id, nil, nil)
	}
	st.ProgressPercentage = percentage
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "progress")
	return st, nil
}

// UpdateChecklistItem marks a checklist item complete or incomplete and
// re-derives the step's progress percentage from the checklist.
func (s *WorkflowService) UpdateChecklistItem(ctx context.Context, id, itemID string, completed bool, notes *string) (*models.WorkflowState, error) {
	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range st.Checklist {
		if st.Checklist[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown checklist item %q on workflow %s", itemID, id)
	}

	now := time.Now().UTC()
	st.Checklist[idx].Completed = completed
	if completed {
		st.Checklist[idx].CompletedAt = &now
	} else {
		st.Checklist[idx].CompletedAt = nil
	}
	if notes != nil {
		st.Checklist[idx].Notes = notes
	}
	st.ProgressPercentage = st.Checklist.Progress()

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "checklist")
	return st, nil
}

// CompleteWork marks a step completed and attempts advancement. It does not
// re-validate the checklist itself; ProcessAdvancement owns that gate, so a
// completion whose checklist has not caught up stays completed and the
// chain advances on a later ProcessAdvancement call.
func (s *WorkflowService) CompleteWork(ctx context.Context, id string, notes *string, qualityScore *int) (*models.WorkflowState, error) {
	if qualityScore != nil && (*qualityScore < 0 || *qualityScore > 100) {
		return nil, fmt.Errorf("quality score must be between 0 and 100, got %d", *qualityScore)
	}

	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st.Status = models.StatusCompleted
	st.CompletedAt = &now
	st.ProgressPercentage = 100
	if notes != nil {
		st.ResolutionNotes = notes
	}
	if qualityScore != nil {
		st.QualityScore = qualityScore
	}
	if st.StartedAt != nil {
		hours := now.Sub(*st.StartedAt).Hours()
		st.ActualHours = &hours
	}

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "complete")

	if _, err := s.ProcessAdvancement(ctx, id); err != nil {
		s.logger.Warn("auto-advancement deferred", "workflow_id", id, "error", err)
	}
	return st, nil
}

// BlockWork marks a step blocked, recording the reason. With escalate set
// the escalation level is raised, capped at MaxEscalationLevel.
func (s *WorkflowService) BlockWork(ctx context.Context, id, reason string, escalate bool) (*models.WorkflowState, error) {
	if reason == "" {
		return nil, errors.New("blocking reason is required")
	}

	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st.Status = models.StatusBlocked
	st.BlockingReason = &reason
	if escalate && st.EscalationLevel < models.MaxEscalationLevel {
		st.EscalationLevel++
		st.EscalatedAt = &now
	}

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "block")
	return st, nil
}

// WaitForInput parks an in-progress step until external input arrives.
func (s *WorkflowService) WaitForInput(ctx context.Context, id string) (*models.WorkflowState, error) {
	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Status = models.StatusWaitingForInput
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "wait")
	return st, nil
}

// Resume returns a waiting, blocked or on-hold step to in_progress.
func (s *WorkflowService) Resume(ctx context.Context, id string) (*models.WorkflowState, error) {
	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	switch st.Status {
	case models.StatusWaitingForInput, models.StatusBlocked, models.StatusOnHold:
		st.Status = models.StatusInProgress
		st.BlockingReason = nil
	default:
		return nil, fmt.Errorf("cannot resume workflow %s from status %s", id, st.Status)
	}
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "resume")
	return st, nil
}

// AssignTo assigns the step to a user. A not_started step is promoted to
// in_progress.
func (s *WorkflowService) AssignTo(ctx context.Context, id, userID string, assignedBy *string) (*models.WorkflowState, error) {
	if userID == "" {
		return nil, errors.New("assignee is required")
	}

	st, err := s.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st.AssignedTo = &userID
	st.AssignedBy = assignedBy
	st.AssignedAt = &now
	if st.Status == models.StatusNotStarted {
		st.Status = models.StatusInProgress
		st.StartedAt = &now
	}

	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "assign")
	return st, nil
}

// ProcessAdvancement is the authoritative checklist gate. Given a completed
// step it activates the pre-materialized successor row; a missing or
// not-completed step is a benign no-op returning nil. An incomplete
// checklist fails the advancement even though the step is already marked
// completed.
func (s *WorkflowService) ProcessAdvancement(ctx context.Context, workflowID string) (*models.WorkflowState, error) {
	st, err := s.store.GetState(ctx, workflowID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if st.Status != models.StatusCompleted {
		return nil, nil
	}

	if !st.Checklist.Complete() {
		s.metrics.GateRejected(ctx)
		return nil, fmt.Errorf("cannot advance workflow %s: checklist items incomplete (%d of %d done)",
			workflowID, st.Checklist.CompletedCount(), len(st.Checklist))
	}

	if st.NextStep == nil {
		s.logger.Info("chain finished", "chain_id", st.ChainID, "final_step", st.CurrentStep)
		return nil, nil
	}

	next, err := s.store.GetChainStep(ctx, st.ChainID, st.StepOrder+1)
	if err != nil {
		return nil, fmt.Errorf("load successor step %d of chain %s: %w", st.StepOrder+1, st.ChainID, err)
	}
	if next.Status != models.StatusNotStarted {
		// Already activated by an earlier advancement; nothing to do.
		return next, nil
	}

	now := time.Now().UTC()
	next.Status = models.StatusInProgress
	next.StartedAt = &now
	if assignee := s.assigner.Assign(ctx, next.CurrentStep, st.AssignedTo); assignee != nil {
		next.AssignedTo = assignee
		next.AssignedAt = &now
	}

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.metrics.Transition(ctx, "advance")
	s.logger.Info("workflow advanced",
		"chain_id", st.ChainID, "from", st.CurrentStep, "to", next.CurrentStep)
	return next, nil
}

// CancelChain cancels every non-terminal step of a chain. Cancellation is a
// status change; rows are never deleted.
func (s *WorkflowService) CancelChain(ctx context.Context, chainID string) (int, error) {
	n, err := s.store.CancelChain(ctx, chainID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.Transition(ctx, "cancel")
		s.logger.Info("chain cancelled", "chain_id", chainID, "steps", n)
	}
	return n, nil
}

// GetDashboard aggregates the user's active, overdue and recently completed
// workflows with counts by workflow and content type.
func (s *WorkflowService) GetDashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	now := time.Now().UTC()

	active, err := s.store.ListActiveByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active workflows: %w", err)
	}
	overdue, err := s.store.ListOverdue(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue workflows: %w", err)
	}
	completedToday, err := s.store.ListCompletedSince(ctx, userID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list completed workflows: %w", err)
	}

	workflowTypes := make(map[models.WorkflowType]int)
	contentTypes := make(map[models.ContentType]int)
	for _, st := range active {
		workflowTypes[st.WorkflowType]++
		contentTypes[st.ContentType]++
	}

	return &models.Dashboard{
		ActiveWorkflows:  active,
		OverdueWorkflows: overdue,
		CompletedToday:   completedToday,
		Stats: models.DashboardStats{
			ActiveCount:         len(active),
			OverdueCount:        len(overdue),
			CompletedTodayCount: len(completedToday),
		},
		WorkflowTypes: workflowTypes,
		ContentTypes:  contentTypes,
	}, nil
}

// GetAnalytics computes rolling-window statistics for the user: totals,
// mean completion time, a per-type breakdown, and the slowest steps as
// bottlenecks.
func (s *WorkflowService) GetAnalytics(ctx context.Context, userID string, windowDays int) (*models.Analytics, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	rows, err := s.store.ListAssignedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list workflows in window: %w", err)
	}

	type stepAgg struct {
		hours float64
		count int
	}

	var completed int
	var totalHours float64
	var timedCount int
	byType := make(map[models.WorkflowType]*models.TypeBreakdown)
	byStep := make(map[string]*stepAgg)
	typeHours := make(map[models.WorkflowType]float64)
	typeTimed := make(map[models.WorkflowType]int)

	for _, st := range rows {
		bd := byType[st.WorkflowType]
		if bd == nil {
			bd = &models.TypeBreakdown{}
			byType[st.WorkflowType] = bd
		}
		bd.Total++

		if st.Status != models.StatusCompleted {
			continue
		}
		completed++
		bd.Completed++
		if st.StartedAt == nil || st.CompletedAt == nil {
			continue
		}
		hours := st.CompletedAt.Sub(*st.StartedAt).Hours()
		totalHours += hours
		timedCount++
		typeHours[st.WorkflowType] += hours
		typeTimed[st.WorkflowType]++

		agg := byStep[st.CurrentStep]
		if agg == nil {
			agg = &stepAgg{}
			byStep[st.CurrentStep] = agg
		}
		agg.hours += hours
		agg.count++
	}

	var meanHours float64
	if timedCount > 0 {
		meanHours = totalHours / float64(timedCount)
	}

	breakdown := make(map[models.WorkflowType]models.TypeBreakdown, len(byType))
	for wt, bd := range byType {
		if n := typeTimed[wt]; n > 0 {
			bd.AverageCompletionTimeHours = typeHours[wt] / float64(n)
		}
		breakdown[wt] = *bd
	}

	var bottlenecks []models.Bottleneck
	for step, agg := range byStep {
		avg := agg.hours / float64(agg.count)
		if avg > meanHours {
			bottlenecks = append(bottlenecks, models.Bottleneck{
				Step:         step,
				AverageHours: avg,
				Count:        agg.count,
			})
		}
	}
	sort.Slice(bottlenecks, func(i, j int) bool {
		return bottlenecks[i].AverageHours > bottlenecks[j].AverageHours
	})

	return &models.Analytics{
		WindowDays:                 windowDays,
		TotalWorkflows:             len(rows),
		Completed:                  completed,
		AverageCompletionTimeHours: meanHours,
		WorkflowTypeBreakdown:      breakdown,
		Bottlenecks:                bottlenecks,
	}, nil
}
