package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/ams/backend/internal/application/billing"
)

// PaymentHandler handles payment record and dunning endpoints
type PaymentHandler struct {
	BaseHandler
	dunningService *billingapp.DunningService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(dunningService *billingapp.DunningService) *PaymentHandler {
	return &PaymentHandler{dunningService: dunningService}
}

// OpenPayment opens a payment record against an invoice
func (h *PaymentHandler) OpenPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.dunningService.OpenPayment(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RecordSuccess marks a payment record paid and settles its invoice
func (h *PaymentHandler) RecordSuccess(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	recordID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.dunningService.RecordPaymentSuccess(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordFailure records a failed payment attempt and schedules the retry.
// NSF failures escalate the subscription's dunning level.
func (h *PaymentHandler) RecordFailure(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	recordID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req billingapp.ReportFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.dunningService.RecordPaymentFailure(c.Request.Context(), tenantID, recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ProcessRetries runs the payment retry sweep over due failed payments
func (h *PaymentHandler) ProcessRetries(c *gin.Context) {
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

	result, err := h.dunningService.ProcessPaymentRetries(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListBySubscription returns the payment records of a subscription
func (h *PaymentHandler) ListBySubscription(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	records, err := h.dunningService.ListPaymentRecords(c.Request.Context(), tenantID, subID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
