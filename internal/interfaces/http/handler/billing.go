package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/ams/backend/internal/application/billing"
)

// BillingHandler handles invoice generation and query endpoints
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// ProcessBilling bills one subscription on demand. The force query flag
// bypasses the advance-window check.
func (h *BillingHandler) ProcessBilling(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		h.BadRequest(c, "Invalid as_of parameter")
		return
	}
	force := c.Query("force") == "true"

	result, err := h.billingService.ProcessBilling(c.Request.Context(), tenantID, subID, asOf, force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RunBilling runs the billing sweep over all due subscriptions
func (h *BillingHandler) RunBilling(c *gin.Context) {
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

	result, err := h.billingService.RunBilling(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ManualBilling bills an explicit set of subscriptions
func (h *BillingHandler) ManualBilling(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.ManualBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.billingService.ManualBilling(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetInvoice returns an invoice by ID
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.billingService.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListInvoices returns the invoices of a subscription
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), tenantID, subID, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// ListOverdueInvoices returns unpaid invoices past their due date
func (h *BillingHandler) ListOverdueInvoices(c *gin.Context) {
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

	invoices, err := h.billingService.ListOverdueInvoices(c.Request.Context(), tenantID, asOf, bindListFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
