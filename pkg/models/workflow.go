// Package models defines the domain models for the content workflow service
package models

import (
	"math"
	"time"
)

// ContentType identifies the kind of artifact a workflow refers to.
// The reference is soft: the engine never dereferences it, it only
// validates the type against this closed set.
type ContentType string

const (
	ContentTypeEducationalProject ContentType = "educational_project"
	ContentTypeCreativeWork       ContentType = "creative_work"
	ContentTypeTestimonial        ContentType = "testimonial"
	ContentTypeTranslation        ContentType = "translation"
	ContentTypePage               ContentType = "page"
)

// KnownContentTypes is the closed set accepted at the boundary.
var KnownContentTypes = []ContentType{
	ContentTypeEducationalProject,
	ContentTypeCreativeWork,
	ContentTypeTestimonial,
	ContentTypeTranslation,
	ContentTypePage,
}

// Valid reports whether the content type is one of the known types.
func (c ContentType) Valid() bool {
	for _, known := range KnownContentTypes {
		if c == known {
			return true
		}
	}
	return false
}

// WorkflowType categorizes a chain of workflow steps.
type WorkflowType string

const (
	WorkflowTypeEducationalReview     WorkflowType = "educational_review"
	WorkflowTypeCreativeEditing      WorkflowType = "creative_editing"
	WorkflowTypeMultilingualSync     WorkflowType = "multilingual_sync"
	WorkflowTypeContentApproval      WorkflowType = "content_approval"
	WorkflowTypeTestimonialCollection WorkflowType = "testimonial_collection"
)

// WorkflowKind selects a step template from the catalogue.
type WorkflowKind string

const (
	KindProjectShowcase   WorkflowKind = "project_showcase"
	KindTeachingMaterials WorkflowKind = "teaching_materials"
	KindCreativeWriting   WorkflowKind = "creative_writing"
	KindMultilingualSync  WorkflowKind = "multilingual_sync"
	KindTestimonial       WorkflowKind = "testimonial"
)

// WorkflowStatus represents the lifecycle state of a single step.
type WorkflowStatus string

const (
	StatusNotStarted      WorkflowStatus = "not_started"
	StatusInProgress      WorkflowStatus = "in_progress"
	StatusWaitingForInput WorkflowStatus = "waiting_for_input"
	StatusBlocked         WorkflowStatus = "blocked"
	StatusCompleted       WorkflowStatus = "completed"
	StatusCancelled       WorkflowStatus = "cancelled"
	StatusFailed          WorkflowStatus = "failed"
	StatusSkipped         WorkflowStatus = "skipped"
	StatusOnHold          WorkflowStatus = "on_hold"
)

// Terminal reports whether the status ends a step's lifecycle.
func (s WorkflowStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the step counts as in-flight work for dashboards.
func (s WorkflowStatus) Active() bool {
	return s == StatusInProgress || s == StatusWaitingForInput || s == StatusBlocked
}

// Priority of a workflow step.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// MaxEscalationLevel caps escalation of blocked steps.
const MaxEscalationLevel = 5

// ChecklistItem is a single completable task gating a step.
type ChecklistItem struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// Checklist is the ordered list of tasks gating a step's completion.
// Stored as a JSONB column; mutations rewrite the whole list.
type Checklist []ChecklistItem

// CompletedCount returns the number of completed items.
func (c Checklist) CompletedCount() int {
	n := 0
	for _, item := range c {
		if item.Completed {
			n++
		}
	}
	return n
}

// Complete reports whether every item is done. An empty checklist is complete.
func (c Checklist) Complete() bool {
	return c.CompletedCount() == len(c)
}

// Progress derives the percentage of completed items, rounded to the
// nearest integer. Returns 0 for an empty checklist.
func (c Checklist) Progress() int {
	if len(c) == 0 {
		return 0
	}
	return int(math.Round(float64(c.CompletedCount()) / float64(len(c)) * 100))
}

// WorkflowData carries shared context for a chain. The schema is stamped
// so future shape changes can be migrated deliberately.
type WorkflowData struct {
	SchemaVersion    int             `json:"schema_version"`
	Description      string          `json:"description,omitempty"`
	SourceLocale     string          `json:"source_locale,omitempty"`
	TargetLocale     string          `json:"target_locale,omitempty"`
	EducationalLevel string          `json:"educational_level,omitempty"`
	Options          TemplateOptions `json:"options"`
}

// TemplateOptions toggles optional steps when building a chain template.
type TemplateOptions struct {
	RequiresPeerReview         bool `json:"requires_peer_review,omitempty"`
	RequiresPeerWorkshop       bool `json:"requires_peer_workshop,omitempty"`
	TargetPublication          bool `json:"target_publication,omitempty"`
	RequiresCulturalAdaptation bool `json:"requires_cultural_adaptation,omitempty"`
}

// WorkflowState is one step instance within a chain. A chain created by
// one initiate call owns rows with step_order 1..total_steps.
type WorkflowState struct {
	ID             string       `json:"id" db:"id"`
	ChainID        string       `json:"chain_id" db:"chain_id"`
	IdempotencyKey *string      `json:"-" db:"idempotency_key"`
	ContentID      string       `json:"content_id" db:"content_id"`
	ContentType    ContentType  `json:"content_type" db:"content_type"`
	WorkflowType   WorkflowType `json:"workflow_type" db:"workflow_type"`

	CurrentStep string `json:"current_step" db:"current_step"`
	StepOrder   int    `json:"step_order" db:"step_order"`
	TotalSteps  int    `json:"total_steps" db:"total_steps"`
	// NextStep is nil on the terminal step.
	NextStep *string `json:"next_step,omitempty" db:"next_step"`

	Status   WorkflowStatus `json:"status" db:"status"`
	Priority Priority       `json:"priority" db:"priority"`

	AssignedTo *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	AssignedBy *string    `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`

	EstimatedHours     float64  `json:"estimated_hours" db:"estimated_hours"`
	ActualHours        *float64 `json:"actual_hours,omitempty" db:"actual_hours"`
	ProgressPercentage int      `json:"progress_percentage" db:"progress_percentage"`

	BlockingReason  *string `json:"blocking_reason,omitempty" db:"blocking_reason"`
	ResolutionNotes *string `json:"resolution_notes,omitempty" db:"resolution_notes"`
	QualityScore    *int    `json:"quality_score,omitempty" db:"quality_score"`

	Checklist Checklist `json:"checklist" db:"checklist"`

	EscalationLevel int        `json:"escalation_level" db:"escalation_level"`
	EscalatedTo     *string    `json:"escalated_to,omitempty" db:"escalated_to"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty" db:"escalated_at"`

	WorkflowData WorkflowData `json:"workflow_data" db:"workflow_data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Overdue reports whether the step has a due date in the past and is not
// yet in a terminal state.
func (w *WorkflowState) Overdue(now time.Time) bool {
	return w.DueDate != nil && w.DueDate.Before(now) && !w.Status.Terminal()
}
