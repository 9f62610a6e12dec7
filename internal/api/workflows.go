package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"portfolio-cms/internal/repository"
	"portfolio-cms/internal/services"
	"portfolio-cms/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Workflows *services.WorkflowService
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService) *Server {
	return &Server{Workflows: workflows}
}

// RegisterRoutes mounts the workflow API onto the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.POST("/workflows", s.InitiateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.POST("/workflows/:id/start", s.StartWorkflow)
	g.POST("/workflows/:id/progress", s.UpdateProgress)
	g.PUT("/workflows/:id/checklist/:itemID", s.UpdateChecklistItem)
	g.POST("/workflows/:id/complete", s.CompleteWorkflow)
	g.POST("/workflows/:id/block", s.BlockWorkflow)
	g.POST("/workflows/:id/wait", s.WaitWorkflow)
	g.POST("/workflows/:id/resume", s.ResumeWorkflow)
	g.POST("/workflows/:id/assign", s.AssignWorkflow)
	g.POST("/workflows/:id/advance", s.AdvanceWorkflow)
	g.GET("/chains/:chainID", s.GetChain)
	g.POST("/chains/:chainID/cancel", s.CancelChain)
	g.GET("/dashboard", s.GetDashboard)
	g.GET("/analytics", s.GetAnalytics)
}

// operatorID resolves the acting user: an explicit user_id query parameter
// wins, otherwise the authenticated operator from the request context.
func operatorID(c echo.Context) string {
	if id := c.QueryParam("user_id"); id != "" {
		return id
	}
	if id, ok := c.Request().Context().Value("user_id").(string); ok {
		return id
	}
	return ""
}

// mutationError maps engine errors onto HTTP status codes. Validation
// messages are surfaced verbatim; they are already human-readable.
func mutationError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

type initiateRequest struct {
	Kind             models.WorkflowKind    `json:"kind"`
	ContentID        string                 `json:"content_id"`
	ContentType      models.ContentType     `json:"content_type"`
	AssignedTo       string                 `json:"assigned_to"`
	Priority         models.Priority        `json:"priority"`
	Options          models.TemplateOptions `json:"options"`
	Description      string                 `json:"description"`
	SourceLocale     string                 `json:"source_locale"`
	TargetLocale     string                 `json:"target_locale"`
	EducationalLevel string                 `json:"educational_level"`
	StartAt          *time.Time             `json:"start_at"`
	IdempotencyKey   string                 `json:"idempotency_key"`
}

// InitiateWorkflow creates a new chain for a piece of content
// (POST /api/v1/workflows)
func (s *Server) InitiateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var req initiateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	states, err := s.Workflows.Initiate(ctx, services.InitiateParams{
		Kind:             req.Kind,
		ContentID:        req.ContentID,
		ContentType:      req.ContentType,
		AssignedTo:       req.AssignedTo,
		AssignedBy:       operatorID(c),
		Priority:         req.Priority,
		Options:          req.Options,
		Description:      req.Description,
		SourceLocale:     req.SourceLocale,
		TargetLocale:     req.TargetLocale,
		EducationalLevel: req.EducationalLevel,
		StartAt:          req.StartAt,
		IdempotencyKey:   req.IdempotencyKey,
	})
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusCreated, states)
}

// GetWorkflow returns a single workflow step
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	st, err := s.Workflows.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type startRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// StartWorkflow moves a step to in_progress
// (POST /api/v1/workflows/:id/start)
func (s *Server) StartWorkflow(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	st, err := s.Workflows.StartWork(c.Request().Context(), c.Param("id"), req.AssignedTo)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type progressRequest struct {
	Percentage int `json:"percentage"`
}

// UpdateProgress sets a step's progress percentage
// (POST /api/v1/workflows/:id/progress)
func (s *Server) UpdateProgress(c echo.Context) error {
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	st, err := s.Workflows.UpdateProgress(c.Request().Context(), c.Param("id"), req.Percentage)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type checklistRequest struct {
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes"`
}

// UpdateChecklistItem ticks or unticks one checklist item
// (PUT /api/v1/workflows/:id/checklist/:itemID)
func (s *Server) UpdateChecklistItem(c echo.Context) error {
	var req checklistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	st, err := s.Workflows.UpdateChecklistItem(c.Request().Context(), c.Param("id"), c.Param("itemID"), req.Completed, req.Notes)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type completeRequest struct {
	Notes        *string `json:"notes"`
	QualityScore *int    `json:"quality_score"`
}

// CompleteWorkflow marks a step completed and attempts advancement
// (POST /api/v1/workflows/:id/complete)
func (s *Server) CompleteWorkflow(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	st, err := s.Workflows.CompleteWork(c.Request().Context(), c.Param("id"), req.Notes, req.QualityScore)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type blockRequest struct {
	Reason   string `json:"reason"`
	Escalate bool   `json:"escalate"`
}

// BlockWorkflow marks a step blocked, optionally escalating
// (POST /api/v1/workflows/:id/block)
func (s *Server) BlockWorkflow(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	st, err := s.Workflows.BlockWork(c.Request().Context(), c.Param("id"), req.Reason, req.Escalate)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// WaitWorkflow parks a step until external input arrives
// (POST /api/v1/workflows/:id/wait)
func (s *Server) WaitWorkflow(c echo.Context) error {
	st, err := s.Workflows.WaitForInput(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// ResumeWorkflow returns a parked step to in_progress
// (POST /api/v1/workflows/:id/resume)
func (s *Server) ResumeWorkflow(c echo.Context) error {
	st, err := s.Workflows.Resume(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// AssignWorkflow assigns a step to a user
// (POST /api/v1/workflows/:id/assign)
func (s *Server) AssignWorkflow(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	var assignedBy *string
	if op := operatorID(c); op != "" {
		assignedBy = &op
	}
	st, err := s.Workflows.AssignTo(c.Request().Context(), c.Param("id"), req.AssignedTo, assignedBy)
	if err != nil {
		return mutationError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// AdvanceWorkflow runs the gated advancement for a completed step. The
// response body is the activated successor, or null when there is nothing
// to do (missing row, not completed, or terminal step).
// (POST /api/v1/workflows/:id/advance)
func (s *Server) AdvanceWorkflow(c echo.Context) error {
	next, err := s.Workflows.ProcessAdvancement(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, next)
}

// GetChain returns all steps of a chain in order
// (GET /api/v1/chains/:chainID)
func (s *Server) GetChain(c echo.Context) error {
	states, err := s.Workflows.GetChain(c.Request().Context(), c.Param("chainID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(states) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "chain not found")
	}
	return c.JSON(http.StatusOK, states)
}

// CancelChain cancels every non-terminal step of a chain
// (POST /api/v1/chains/:chainID/cancel)
func (s *Server) CancelChain(c echo.Context) error {
	n, err := s.Workflows.CancelChain(c.Request().Context(), c.Param("chainID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"cancelled": n})
}

// GetDashboard returns the operator dashboard
// (GET /api/v1/dashboard)
func (s *Server) GetDashboard(c echo.Context) error {
	user := operatorID(c)
	if user == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	dash, err := s.Workflows.GetDashboard(c.Request().Context(), user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dash)
}

// GetAnalytics returns rolling-window workflow analytics
// (GET /api/v1/analytics)
func (s *Server) GetAnalytics(c echo.Context) error {
	user := operatorID(c)
	if user == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	windowDays := 30
	if v := c.QueryParam("window_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid window_days: "+v)
		}
		windowDays = n
	}
	analytics, err := s.Workflows.GetAnalytics(c.Request().Context(), user, windowDays)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, analytics)
}
