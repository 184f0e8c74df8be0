package handler

import (
	"github.com/gin-gonic/gin"

	subscriptionapp "github.com/ams/backend/internal/application/subscription"
)

// RenewalHandler handles renewal, proration and backup endpoints
type RenewalHandler struct {
	BaseHandler
	renewalService *subscriptionapp.RenewalService
}

// NewRenewalHandler creates a new RenewalHandler
func NewRenewalHandler(renewalService *subscriptionapp.RenewalService) *RenewalHandler {
	return &RenewalHandler{renewalService: renewalService}
}

// CreateBackupRequest captures why a manual backup is being taken
type CreateBackupRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateRenewal opens a renewal for the subscription
func (h *RenewalHandler) CreateRenewal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.CreateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.renewalService.CreateRenewal(c.Request.Context(), tenantID, subID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ConfirmRenewal confirms an open renewal, extending the subscription term
func (h *RenewalHandler) ConfirmRenewal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	renewalID, ok := parseUUIDParam(c, "renewal_id")
	if !ok {
		return
	}

	resp, err := h.renewalService.ConfirmRenewal(c.Request.Context(), tenantID, renewalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelRenewal cancels an open renewal
func (h *RenewalHandler) CancelRenewal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	renewalID, ok := parseUUIDParam(c, "renewal_id")
	if !ok {
		return
	}

	resp, err := h.renewalService.CancelRenewal(c.Request.Context(), tenantID, renewalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListRenewals returns the renewal history of a subscription
func (h *RenewalHandler) ListRenewals(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	renewals, err := h.renewalService.ListRenewals(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, renewals)
}

// PreviewProration computes the unused-time credit if the subscription
// were changed as of the given date
func (h *RenewalHandler) PreviewProration(c *gin.Context) {
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

	resp, err := h.renewalService.PreviewProration(c.Request.Context(), tenantID, subID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateBackup snapshots the subscription's current state
func (h *RenewalHandler) CreateBackup(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.renewalService.CreateBackup(c.Request.Context(), tenantID, subID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RestoreBackup restores a subscription from a snapshot. Each backup can
// be restored once.
func (h *RenewalHandler) RestoreBackup(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	backupID, ok := parseUUIDParam(c, "backup_id")
	if !ok {
		return
	}

	resp, err := h.renewalService.RestoreBackup(c.Request.Context(), tenantID, backupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListBackups returns the backups taken for a subscription
func (h *RenewalHandler) ListBackups(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	subID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	backups, err := h.renewalService.ListBackups(c.Request.Context(), tenantID, subID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, backups)
}
