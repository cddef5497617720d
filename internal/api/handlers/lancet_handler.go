package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lancet-project/lancet/internal/budget"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/citation"
	"github.com/lancet-project/lancet/internal/evidence"
	"github.com/lancet-project/lancet/internal/serp"
	"github.com/lancet-project/lancet/internal/works"
)

// LancetHandler serves the research-pipeline endpoints added on top of the
// inherited paper/search/author surface: citation graph traversal, domain
// budget inspection, evidence-graph integrity, SERP-complement ingestion,
// and work persistence.
type LancetHandler struct {
	traverser    *citation.Traverser
	budget       *budget.Manager
	persister    *works.Persister
	serpPipeline *serp.Pipeline
	logger       *slog.Logger
}

func NewLancetHandler(traverser *citation.Traverser, budgetMgr *budget.Manager, persister *works.Persister, serpPipeline *serp.Pipeline, logger *slog.Logger) *LancetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LancetHandler{traverser: traverser, budget: budgetMgr, persister: persister, serpPipeline: serpPipeline, logger: logger}
}

// RegisterRoutes mounts this handler's endpoints under the given v1 group.
func (h *LancetHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/papers/:id/citations", h.GetCitationGraph)
	v1.GET("/budget/:domain", h.GetDomainBudget)
	v1.POST("/papers/:id/persist", h.PersistPaper)
	v1.GET("/serp/search", h.SerpSearch)
}

// GetCitationGraph expands a paper's citation graph to the requested depth.
// @Summary Get a paper's citation graph
// @Tags citations
// @Produce json
// @Param id path string true "Paper ID (provider-prefixed)"
// @Param depth query int false "Traversal depth (default: 1)"
// @Param direction query string false "citations|references (default: citations)"
// @Success 200 {object} gin.H
// @Router /papers/{id}/citations [get]
func (h *LancetHandler) GetCitationGraph(c *gin.Context) {
	paperID := c.Param("id")
	if paperID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: "paper id is required"})
		return
	}

	depth := 1
	if depthStr := c.Query("depth"); depthStr != "" {
		parsed, err := strconv.Atoi(depthStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: "depth must be a non-negative integer"})
			return
		}
		depth = parsed
	}

	direction := citation.DirectionCitations
	if d := c.Query("direction"); d == "references" {
		direction = citation.DirectionReferences
	}

	papers, cites, err := h.traverser.GetCitationGraph(c.Request.Context(), paperID, depth, direction)
	if err != nil {
		h.logger.Error("citation graph traversal failed", slog.String("paper_id", paperID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "traversal failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paper_id":  paperID,
		"depth":     depth,
		"papers":    papers,
		"citations": cites,
		"timestamp": time.Now(),
	})
}

// GetDomainBudget reports the current daily request/page budget for a domain.
// @Summary Get a domain's remaining daily budget
// @Tags budget
// @Produce json
// @Param domain path string true "Domain name"
// @Success 200 {object} budget.DailyBudget
// @Router /budget/{domain} [get]
func (h *LancetHandler) GetDomainBudget(c *gin.Context) {
	domain := c.Param("domain")
	if domain == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: "domain is required"})
		return
	}
	c.JSON(http.StatusOK, h.budget.GetDomainBudget(domain))
}

// PersistPaper upserts a fetched paper into the works/work_authors/
// work_identifiers tables under the canonical_id carried in the request body,
// which also carries the already-resolved canonical.Paper; the id path
// parameter becomes the paper's ID.
// @Summary Persist a resolved paper into the works store
// @Tags works
// @Accept json
// @Produce json
// @Param id path string true "Paper ID (provider-prefixed)"
// @Success 204
// @Router /papers/{id}/persist [post]
func (h *LancetHandler) PersistPaper(c *gin.Context) {
	paperID := c.Param("id")
	var req persistPaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}
	paper := req.Paper.toCanonical(paperID)

	if err := h.persister.PersistWork(c.Request.Context(), paper, req.CanonicalID); err != nil {
		h.logger.Error("persist work failed", slog.String("paper_id", paperID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "persist failed", Message: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// SerpSearch runs a SERP provider query through the identifier-extraction,
// canonical-index and SerpComplementRouter pipeline, persisting any result
// the router manages to complement with a full academic record.
// @Summary Run a SERP-complement search against a registered SERP provider
// @Tags serp
// @Produce json
// @Param engine query string true "Registered SERP provider name (exa, tavily)"
// @Param query query string true "Search query"
// @Param limit query int false "Max results (default: 10)"
// @Success 200 {object} gin.H
// @Router /serp/search [get]
func (h *LancetHandler) SerpSearch(c *gin.Context) {
	engine := c.Query("engine")
	query := c.Query("query")
	if engine == "" || query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: "engine and query are required"})
		return
	}

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	results, err := h.serpPipeline.Run(c.Request.Context(), engine, query, limit)
	if err != nil {
		h.logger.Error("serp pipeline run failed", slog.String("engine", engine), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "serp search failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"engine":    engine,
		"query":     query,
		"results":   results,
		"timestamp": time.Now(),
	})
}

type persistPaperRequest struct {
	CanonicalID string       `json:"canonical_id" binding:"required"`
	Paper       paperPayload `json:"paper"`
}

// paperPayload mirrors canonical.Paper's wire shape for request binding;
// kept distinct from canonical.Paper itself since that type carries no json
// tags (it is an internal domain type, not a wire-format one).
type paperPayload struct {
	Title          string             `json:"title"`
	Abstract       *string            `json:"abstract,omitempty"`
	Authors        []canonical.Author `json:"authors,omitempty"`
	Year           *int               `json:"year,omitempty"`
	DOI            *string            `json:"doi,omitempty"`
	ArxivID        *string            `json:"arxiv_id,omitempty"`
	Venue          *string            `json:"venue,omitempty"`
	CitationCount  *int               `json:"citation_count,omitempty"`
	ReferenceCount *int               `json:"reference_count,omitempty"`
	IsOpenAccess   *bool              `json:"is_open_access,omitempty"`
	OAUrl          *string            `json:"oa_url,omitempty"`
	PDFUrl         *string            `json:"pdf_url,omitempty"`
	SourceAPI      string             `json:"source_api"`
}

func (p paperPayload) toCanonical(id string) canonical.Paper {
	return canonical.Paper{
		ID:             id,
		Title:          p.Title,
		Abstract:       p.Abstract,
		Authors:        p.Authors,
		Year:           p.Year,
		DOI:            p.DOI,
		ArxivID:        p.ArxivID,
		Venue:          p.Venue,
		CitationCount:  p.CitationCount,
		ReferenceCount: p.ReferenceCount,
		IsOpenAccess:   p.IsOpenAccess,
		OAUrl:          p.OAUrl,
		PDFUrl:         p.PDFUrl,
		SourceAPI:      p.SourceAPI,
	}
}

// EvidenceIntegrityHandler exposes citation-integrity analysis over an
// in-memory evidence graph looked up by task ID.
type EvidenceIntegrityHandler struct {
	graphs func(taskID string) (*evidence.Graph, bool)
	logger *slog.Logger
}

func NewEvidenceIntegrityHandler(graphs func(taskID string) (*evidence.Graph, bool), logger *slog.Logger) *EvidenceIntegrityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceIntegrityHandler{graphs: graphs, logger: logger}
}

func (h *EvidenceIntegrityHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/evidence/:task_id/integrity", h.GetIntegrityReport)
}

// GetIntegrityReport returns the citation-loop/round-trip/self-reference
// penalty report for a task's evidence graph.
// @Summary Get a task's citation-integrity report
// @Tags evidence
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} evidence.IntegrityReport
// @Failure 404 {object} ErrorResponse
// @Router /evidence/{task_id}/integrity [get]
func (h *EvidenceIntegrityHandler) GetIntegrityReport(c *gin.Context) {
	taskID := c.Param("task_id")
	g, ok := h.graphs(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Message: "no evidence graph for task " + taskID})
		return
	}
	c.JSON(http.StatusOK, g.GetCitationIntegrityReport())
}
