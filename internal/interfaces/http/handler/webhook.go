package handler

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	returnsapp "github.com/returnsdesk/backend/internal/application/returns"
	"github.com/returnsdesk/backend/internal/infrastructure/webhook"
	"github.com/returnsdesk/backend/internal/interfaces/http/dto"
	"github.com/returnsdesk/backend/internal/interfaces/http/middleware"
)

// EventProcessor runs one return event through the decision engine
type EventProcessor interface {
	Process(ctx context.Context, event returnsapp.ReturnEventRequest) (*returnsapp.ProcessEventResponse, error)
}

var _ EventProcessor = (*returnsapp.DecisionService)(nil)

// WebhookHandler receives signed return events from the e-commerce platform
type WebhookHandler struct {
	BaseHandler
	validator *webhook.SignatureValidator
	processor EventProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(validator *webhook.SignatureValidator, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		validator: validator,
		processor: processor,
	}
}

// HandleReturnEvent handles POST /api/v1/webhooks/returns.
//
// The signature covers the raw request body, so the body is read before any
// JSON decoding. Replayed events return the stored decision with 200. Flag
// decisions and failed executions return 202 because a human still has to
// act on them.
func (h *WebhookHandler) HandleReturnEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	if err := h.validator.Validate(body, c.GetHeader(webhook.SignatureHeader)); err != nil {
		h.HandleError(c, err)
		return
	}

	var event returnsapp.ReturnEventRequest
	if err := json.Unmarshal(body, &event); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return
	}
	if err := binding.Validator.ValidateStruct(&event); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			middleware.HandleValidationError(c, err)
			return
		}
		h.BadRequest(c, "Request validation failed")
		return
	}

	result, err := h.processor.Process(c.Request.Context(), event)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.RequiresFollowUp && !result.Replay {
		h.Accepted(c, result)
		return
	}
	h.Success(c, result)
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/returns", h.HandleReturnEvent)
	}
}
