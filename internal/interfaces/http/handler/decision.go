package handler

import (
	"github.com/gin-gonic/gin"

	returnsapp "github.com/returnsdesk/backend/internal/application/returns"
)

// DecisionHandler serves the read side of the engine: stored decisions,
// audit trails and the active policy
type DecisionHandler struct {
	BaseHandler
	queryService *returnsapp.QueryService
}

// NewDecisionHandler creates a new DecisionHandler
func NewDecisionHandler(queryService *returnsapp.QueryService) *DecisionHandler {
	return &DecisionHandler{
		queryService: queryService,
	}
}

// GetDecision handles GET /api/v1/decisions/:event_id
func (h *DecisionHandler) GetDecision(c *gin.Context) {
	eventID := c.Param("event_id")
	if eventID == "" {
		h.BadRequest(c, "Event ID is required")
		return
	}

	detail, err := h.queryService.GetDecision(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// ListDecisions handles GET /api/v1/decisions
func (h *DecisionHandler) ListDecisions(c *gin.Context) {
	var filter returnsapp.DecisionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	page, err := h.queryService.ListDecisions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetAuditTrail handles GET /api/v1/decisions/:event_id/audit
func (h *DecisionHandler) GetAuditTrail(c *gin.Context) {
	eventID := c.Param("event_id")
	if eventID == "" {
		h.BadRequest(c, "Event ID is required")
		return
	}

	records, err := h.queryService.GetAuditTrail(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// GetAuditSummary handles GET /api/v1/audit/summary
func (h *DecisionHandler) GetAuditSummary(c *gin.Context) {
	summary, err := h.queryService.GetAuditSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetPolicy handles GET /api/v1/policy
func (h *DecisionHandler) GetPolicy(c *gin.Context) {
	h.Success(c, h.queryService.GetPolicy())
}

// RegisterRoutes registers decision query routes
func (h *DecisionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	decisions := rg.Group("/decisions")
	{
		decisions.GET("", h.ListDecisions)
		decisions.GET("/:event_id", h.GetDecision)
		decisions.GET("/:event_id/audit", h.GetAuditTrail)
	}
	rg.GET("/audit/summary", h.GetAuditSummary)
	rg.GET("/policy", h.GetPolicy)
}
