package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/lancet-project/lancet/internal/citation"
	"github.com/lancet-project/lancet/internal/evidence"
	"github.com/lancet-project/lancet/internal/services"
)

// SimpleMCPServer is a minimal MCP implementation for Lancet
type SimpleMCPServer struct {
	server         *server.MCPServer
	searchService  *services.SearchService
	paperService   *services.PaperService
	authorService  *services.AuthorService
	traverser      *citation.Traverser
	evidenceGraphs func(taskID string) (*evidence.Graph, bool)
	logger         *slog.Logger
}

// NewSimpleMCPServer creates a simple MCP server
func NewSimpleMCPServer(
	searchService *services.SearchService,
	paperService *services.PaperService,
	authorService *services.AuthorService,
	traverser *citation.Traverser,
	evidenceGraphs func(taskID string) (*evidence.Graph, bool),
	logger *slog.Logger,
) *SimpleMCPServer {
	// Create basic MCP server
	mcpServer := server.NewMCPServer(
		"Lancet Backend",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &SimpleMCPServer{
		server:         mcpServer,
		searchService:  searchService,
		paperService:   paperService,
		authorService:  authorService,
		traverser:      traverser,
		evidenceGraphs: evidenceGraphs,
		logger:         logger,
	}

	// Register simple tools
	s.registerSimpleTools()
	return s
}

// registerSimpleTools adds basic MCP tools
func (s *SimpleMCPServer) registerSimpleTools() {
	// Simple search tool
	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Search scientific papers"),
		mcp.WithString("query", mcp.Required()),
	)
	s.server.AddTool(searchTool, s.handleSearch)

	// Simple get paper tool
	getPaperTool := mcp.NewTool("get_paper",
		mcp.WithDescription("Get paper by ID"),
		mcp.WithString("id", mcp.Required()),
	)
	s.server.AddTool(getPaperTool, s.handleGetPaper)

	// Citation graph traversal tool
	citationGraphTool := mcp.NewTool("get_citation_graph",
		mcp.WithDescription("Expand a paper's citation or reference graph to a given depth"),
		mcp.WithString("paper_id", mcp.Required()),
		mcp.WithNumber("depth"),
		mcp.WithString("direction"),
	)
	s.server.AddTool(citationGraphTool, s.handleGetCitationGraph)

	// Evidence-graph integrity tool
	integrityTool := mcp.NewTool("get_citation_integrity",
		mcp.WithDescription("Get the citation-loop/round-trip/self-reference integrity report for a task's evidence graph"),
		mcp.WithString("task_id", mcp.Required()),
	)
	s.server.AddTool(integrityTool, s.handleGetCitationIntegrity)

	s.logger.Info("Registered 4 MCP tools: search, get_paper, get_citation_graph, get_citation_integrity")
}

// handleSearch processes search requests
func (s *SimpleMCPServer) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments safely
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	// Get query parameter
	query, ok := argsMap["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter required"), nil
	}

	// Create search request
	searchReq := &services.SearchRequest{
		Query:  query,
		Limit:  10, // Keep it simple
		Offset: 0,
	}

	// Execute search
	result, err := s.searchService.Search(ctx, searchReq)
	if err != nil {
		s.logger.Error("MCP search failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	s.logger.Info("MCP search completed", 
		slog.String("query", query),
		slog.Int("results", len(result.Papers)))

	// Return JSON result
	resultJSON, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// handleGetPaper processes get paper requests
func (s *SimpleMCPServer) handleGetPaper(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract arguments safely
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	// Get ID parameter
	paperID, ok := argsMap["id"].(string)
	if !ok || paperID == "" {
		return mcp.NewToolResultError("id parameter required"), nil
	}

	// Get paper
	paper, err := s.paperService.GetByID(ctx, paperID)
	if err != nil {
		s.logger.Error("MCP get paper failed", 
			slog.String("paper_id", paperID),
			slog.String("error", err.Error()))
		return mcp.NewToolResultError(fmt.Sprintf("get paper failed: %v", err)), nil
	}

	s.logger.Info("MCP get paper completed", slog.String("paper_id", paperID))

	// Return JSON result
	resultJSON, _ := json.Marshal(paper)
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// handleGetCitationGraph processes citation graph traversal requests
func (s *SimpleMCPServer) handleGetCitationGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	paperID, ok := argsMap["paper_id"].(string)
	if !ok || paperID == "" {
		return mcp.NewToolResultError("paper_id parameter required"), nil
	}

	depth := 1
	if d, ok := argsMap["depth"].(float64); ok && d >= 0 {
		depth = int(d)
	}

	direction := citation.DirectionCitations
	if dir, ok := argsMap["direction"].(string); ok && dir == "references" {
		direction = citation.DirectionReferences
	}

	papers, cites, err := s.traverser.GetCitationGraph(ctx, paperID, depth, direction)
	if err != nil {
		s.logger.Error("MCP citation graph traversal failed", slog.String("paper_id", paperID), slog.String("error", err.Error()))
		return mcp.NewToolResultError(fmt.Sprintf("citation graph traversal failed: %v", err)), nil
	}

	s.logger.Info("MCP citation graph traversal completed",
		slog.String("paper_id", paperID),
		slog.Int("depth", depth),
		slog.Int("papers", len(papers)))

	resultJSON, _ := json.Marshal(map[string]interface{}{
		"paper_id":  paperID,
		"depth":     depth,
		"papers":    papers,
		"citations": cites,
	})
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// handleGetCitationIntegrity processes evidence-graph integrity requests
func (s *SimpleMCPServer) handleGetCitationIntegrity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	taskID, ok := argsMap["task_id"].(string)
	if !ok || taskID == "" {
		return mcp.NewToolResultError("task_id parameter required"), nil
	}

	g, ok := s.evidenceGraphs(taskID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no evidence graph for task %s", taskID)), nil
	}

	report := g.GetCitationIntegrityReport()
	s.logger.Info("MCP citation integrity report completed", slog.String("task_id", taskID))

	resultJSON, _ := json.Marshal(report)
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// ServeStdio starts the MCP server via stdio
func (s *SimpleMCPServer) ServeStdio() error {
	s.logger.Info("Starting simple MCP server via stdio")
	return server.ServeStdio(s.server)
}

// GetServer returns the underlying server
func (s *SimpleMCPServer) GetServer() *server.MCPServer {
	return s.server
}