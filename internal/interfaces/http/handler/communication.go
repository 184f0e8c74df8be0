package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	communicationapp "github.com/ams/backend/internal/application/communication"
)

// CommunicationHandler handles member communication endpoints
type CommunicationHandler struct {
	BaseHandler
	commsService *communicationapp.CommsService
}

// NewCommunicationHandler creates a new CommunicationHandler
func NewCommunicationHandler(commsService *communicationapp.CommsService) *CommunicationHandler {
	return &CommunicationHandler{commsService: commsService}
}

// GenerateRenewalReminders schedules renewal reminders for subscriptions
// approaching their end date
func (h *CommunicationHandler) GenerateRenewalReminders(c *gin.Context) {
	h.generate(c, h.commsService.GenerateRenewalReminders)
}

// GenerateLapsedNotices schedules lapsed notices for expired or suspended
// subscriptions
func (h *CommunicationHandler) GenerateLapsedNotices(c *gin.Context) {
	h.generate(c, h.commsService.GenerateLapsedNotices)
}

// GenerateWelcomeMessages schedules welcome messages for newly activated
// subscriptions
func (h *CommunicationHandler) GenerateWelcomeMessages(c *gin.Context) {
	h.generate(c, h.commsService.GenerateWelcomeMessages)
}

// SendScheduled delivers all communications due as of the given time
func (h *CommunicationHandler) SendScheduled(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		h.BadRequest(c, "Invalid as_of parameter")
		return
	}

	result, err := h.commsService.SendScheduledCommunications(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListBySubscription returns the communications tied to a subscription
func (h *CommunicationHandler) ListBySubscription(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	comms, err := h.commsService.ListBySubscription(c.Request.Context(), tenantID, subID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comms)
}

// ListByPartner returns the communications addressed to a partner
func (h *CommunicationHandler) ListByPartner(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	partnerID, ok := parseUUIDParam(c, "partner_id")
	if !ok {
		return
	}

	comms, err := h.commsService.ListByPartner(c.Request.Context(), tenantID, partnerID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comms)
}

// Cancel cancels a scheduled communication before it is sent
func (h *CommunicationHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	commID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commsService.CancelCommunication(c.Request.Context(), tenantID, commID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CommunicationHandler) generate(
	c *gin.Context,
	fn func(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*communicationapp.GenerationResult, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		h.BadRequest(c, "Invalid as_of parameter")
		return
	}

	result, err := fn(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
