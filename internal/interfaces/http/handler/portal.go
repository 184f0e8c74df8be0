package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/ams/backend/internal/application/billing"
	communicationapp "github.com/ams/backend/internal/application/communication"
	subscriptionapp "github.com/ams/backend/internal/application/subscription"
	"github.com/ams/backend/internal/domain/shared"
)

// PortalHandler handles member self-service endpoints. Every operation
// verifies that the target subscription belongs to the partner in the
// portal session token before acting.
type PortalHandler struct {
	BaseHandler
	subscriptionService *subscriptionapp.SubscriptionService
	renewalService      *subscriptionapp.RenewalService
	billingService      *billingapp.BillingService
	commsService        *communicationapp.CommsService
}

// NewPortalHandler creates a new PortalHandler
func NewPortalHandler(
	subscriptionService *subscriptionapp.SubscriptionService,
	renewalService *subscriptionapp.RenewalService,
	billingService *billingapp.BillingService,
	commsService *communicationapp.CommsService,
) *PortalHandler {
	return &PortalHandler{
		subscriptionService: subscriptionService,
		renewalService:      renewalService,
		billingService:      billingService,
		commsService:        commsService,
	}
}

// ownedSubscription loads the subscription and enforces that it belongs
// to the session's partner. Failures are already written to the response.
func (h *PortalHandler) ownedSubscription(c *gin.Context) (*subscriptionapp.SubscriptionResponse, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return nil, uuid.Nil, false
	}
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Forbidden(c, "Portal session required")
		return nil, uuid.Nil, false
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil, uuid.Nil, false
	}

	sub, err := h.subscriptionService.GetByID(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleError(c, err)
		return nil, uuid.Nil, false
	}
	if sub.PartnerID != partnerID {
		// Do not reveal whether the subscription exists
		h.HandleError(c, shared.ErrNotFound)
		return nil, uuid.Nil, false
	}
	return sub, tenantID, true
}

// ListSubscriptions returns the session partner's subscriptions
func (h *PortalHandler) ListSubscriptions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Forbidden(c, "Portal session required")
		return
	}

	var filter subscriptionapp.SubscriptionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	filter.PartnerID = &partnerID
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

// GetSubscription returns one of the session partner's subscriptions
func (h *PortalHandler) GetSubscription(c *gin.Context) {
	sub, _, ok := h.ownedSubscription(c)
	if !ok {
		return
	}
	h.Success(c, sub)
}

// Renew opens a renewal on the member's own subscription
func (h *PortalHandler) Renew(c *gin.Context) {
	sub, tenantID, ok := h.ownedSubscription(c)
	if !ok {
		return
	}

	var req subscriptionapp.CreateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.renewalService.CreateRenewal(c.Request.Context(), tenantID, sub.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Pause suspends the member's own subscription
func (h *PortalHandler) Pause(c *gin.Context) {
	sub, tenantID, ok := h.ownedSubscription(c)
	if !ok {
		return
	}

	var req subscriptionapp.SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.Suspend(c.Request.Context(), tenantID, sub.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Resume reactivates the member's own suspended subscription
func (h *PortalHandler) Resume(c *gin.Context) {
	sub, tenantID, ok := h.ownedSubscription(c)
	if !ok {
		return
	}

	resp, err := h.subscriptionService.Resume(c.Request.Context(), tenantID, sub.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels the member's own subscription
func (h *PortalHandler) Cancel(c *gin.Context) {
	sub, tenantID, ok := h.ownedSubscription(c)
	if !ok {
		return
	}

	var req subscriptionapp.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.subscriptionService.Cancel(c.Request.Context(), tenantID, sub.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListInvoices returns the invoices of the member's own subscription
func (h *PortalHandler) ListInvoices(c *gin.Context) {
	sub, tenantID, ok := h.ownedSubscription(c)
	if !ok {
		return
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), tenantID, sub.ID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// ListCommunications returns the communications addressed to the session
// partner
func (h *PortalHandler) ListCommunications(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	partnerID, err := getPartnerID(c)
	if err != nil {
		h.Forbidden(c, "Portal session required")
		return
	}

	comms, err := h.commsService.ListByPartner(c.Request.Context(), tenantID, partnerID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comms)
}
