package models

// DashboardStats summarizes counts for the operator dashboard.
type DashboardStats struct {
	ActiveCount         int `json:"active_count"`
	OverdueCount        int `json:"overdue_count"`
	CompletedTodayCount int `json:"completed_today_count"`
}

// Dashboard is the read model consumed by the admin panel.
type Dashboard struct {
	ActiveWorkflows  []*WorkflowState     `json:"active_workflows"`
	OverdueWorkflows []*WorkflowState     `json:"overdue_workflows"`
	CompletedToday   []*WorkflowState     `json:"completed_today"`
	Stats            DashboardStats       `json:"stats"`
	WorkflowTypes    map[WorkflowType]int `json:"workflow_types"`
	ContentTypes     map[ContentType]int  `json:"content_types"`
}

// TypeBreakdown aggregates per-workflow-type analytics.
type TypeBreakdown struct {
	Total                      int     `json:"total"`
	Completed                  int     `json:"completed"`
	AverageCompletionTimeHours float64 `json:"average_completion_time_hours"`
}

// Bottleneck names a step whose mean completion time stands out.
type Bottleneck struct {
	Step         string  `json:"step"`
	AverageHours float64 `json:"average_hours"`
	Count        int     `json:"count"`
}

// Analytics is the rolling-window read model.
type Analytics struct {
	WindowDays                 int                            `json:"window_days"`
	TotalWorkflows             int                            `json:"total_workflows"`
	Completed                  int                            `json:"completed"`
	AverageCompletionTimeHours float64                        `json:"average_completion_time_hours"`
	WorkflowTypeBreakdown      map[WorkflowType]TypeBreakdown `json:"workflow_type_breakdown"`
	Bottlenecks                []Bottleneck                   `json:"bottlenecks"`
}
