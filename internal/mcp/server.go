package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"portfolio-cms/internal/services"
	"portfolio-cms/pkg/models"
)

// Server exposes the workflow engine as MCP tools so agent clients can
// drive review chains alongside the admin panel.
type Server struct {
	mcpServer *server.MCPServer
	workflows *services.WorkflowService
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Portfolio CMS Workflows",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		workflows: workflows,
	}

	s.registerTools()
	return s
}

// GetMCPServer returns the underlying MCP server for mounting.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"initiate_workflow",
			mcp.WithDescription("Create a review chain for a piece of content"),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Workflow kind: project_showcase, teaching_materials, creative_writing, multilingual_sync or testimonial")),
			mcp.WithString("content_id", mcp.Required(), mcp.Description("Identifier of the content under review")),
			mcp.WithString("content_type", mcp.Required(), mcp.Description("Content type: educational_project, creative_work, testimonial, translation or page")),
			mcp.WithString("assigned_to", mcp.Required(), mcp.Description("User the chain is assigned to")),
		),
		s.handleInitiate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"update_checklist_item",
			mcp.WithDescription("Tick or untick a checklist item on a workflow step"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow step ID")),
			mcp.WithString("item_id", mcp.Required(), mcp.Description("The checklist item ID")),
			mcp.WithBoolean("completed", mcp.Required(), mcp.Description("Whether the item is done")),
		),
		s.handleUpdateChecklistItem,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"advance_workflow",
			mcp.WithDescription("Run the gated advancement for a completed workflow step"),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow step ID")),
		),
		s.handleAdvance,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"workflow_dashboard",
			mcp.WithDescription("Fetch the workflow dashboard for a user"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The user whose dashboard to fetch")),
		),
		s.handleDashboard,
	)
}

func (s *Server) handleInitiate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	kind, _ := args["kind"].(string)
	contentID, _ := args["content_id"].(string)
	contentType, _ := args["content_type"].(string)
	assignedTo, _ := args["assigned_to"].(string)
	if kind == "" || contentID == "" || contentType == "" || assignedTo == "" {
		return mcp.NewToolResultError("Missing required parameters: kind, content_id, content_type, assigned_to"), nil
	}

	states, err := s.workflows.Initiate(ctx, services.InitiateParams{
		Kind:        models.WorkflowKind(kind),
		ContentID:   contentID,
		ContentType: models.ContentType(contentType),
		AssignedTo:  assignedTo,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to initiate workflow: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(states)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleUpdateChecklistItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	workflowID, _ := args["workflow_id"].(string)
	itemID, _ := args["item_id"].(string)
	completed, ok := args["completed"].(bool)
	if workflowID == "" || itemID == "" || !ok {
		return mcp.NewToolResultError("Missing required parameters: workflow_id, item_id, completed"), nil
	}

	st, err := s.workflows.UpdateChecklistItem(ctx, workflowID, itemID, completed, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update checklist item: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(st)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	workflowID, _ := args["workflow_id"].(string)
	if workflowID == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	next, err := s.workflows.ProcessAdvancement(ctx, workflowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to advance workflow: %v", err)), nil
	}
	if next == nil {
		return mcp.NewToolResultText("Nothing to advance"), nil
	}

	jsonBytes, _ := json.Marshal(next)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	userID, _ := args["user_id"].(string)
	if userID == "" {
		return mcp.NewToolResultError("Missing required parameter: user_id"), nil
	}

	dash, err := s.workflows.GetDashboard(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch dashboard: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(dash)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers mounts the MCP SSE endpoints on the given mux.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
