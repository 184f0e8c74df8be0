package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	subscriptionapp "github.com/ams/backend/internal/application/subscription"
)

// SubscriptionHandler handles subscription lifecycle API endpoints
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *subscriptionapp.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *subscriptionapp.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// UpdateNotesRequest replaces the free-form notes on a subscription
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// Create creates a new subscription in draft state (or further along,
// depending on the start flags)
func (h *SubscriptionHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req subscriptionapp.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns a subscription by its ID
func (h *SubscriptionHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.subscriptionService.GetByID(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber returns a subscription by its human-readable number
func (h *SubscriptionHandler) GetByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Missing number parameter")
		return
	}

	resp, err := h.subscriptionService.GetByNumber(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns subscriptions matching the filter, paginated
func (h *SubscriptionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter subscriptionapp.SubscriptionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	subs, total, err := h.subscriptionService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, subs, total, filter.Page, filter.PageSize)
}

// ListAtRisk returns subscriptions with payment issues or pending renewal
func (h *SubscriptionHandler) ListAtRisk(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter subscriptionapp.SubscriptionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	subs, err := h.subscriptionService.ListAtRisk(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, subs)
}

// Activate moves a subscription to the active state
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	h.transition(c, h.subscriptionService.Activate)
}

// StartTrial moves a subscription into its trial period
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	h.transition(c, h.subscriptionService.StartTrial)
}

// Resume reactivates a suspended subscription
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	h.transition(c, h.subscriptionService.Resume)
}

// Expire marks a subscription expired
func (h *SubscriptionHandler) Expire(c *gin.Context) {
	h.transition(c, h.subscriptionService.Expire)
}

// Suspend suspends a subscription with a reason
func (h *SubscriptionHandler) Suspend(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.Suspend(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels a subscription with a reason
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.Cancel(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetAutoRenew toggles the auto-renewal flag
func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.SetAutoRenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.SetAutoRenew(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateNotes replaces the notes on a subscription
func (h *SubscriptionHandler) UpdateNotes(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.UpdateNotes(c.Request.Context(), tenantID, subID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// transition runs a parameterless lifecycle transition identified by the
// :id path parameter
func (h *SubscriptionHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, subID uuid.UUID) (*subscriptionapp.SubscriptionResponse, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
