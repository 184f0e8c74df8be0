package handler

import (
	"github.com/gin-gonic/gin"

	subscriptionapp "github.com/ams/backend/internal/application/subscription"
)

// SeatHandler handles seat allocation endpoints on multi-seat subscriptions
type SeatHandler struct {
	BaseHandler
	seatService *subscriptionapp.SeatService
}

// NewSeatHandler creates a new SeatHandler
func NewSeatHandler(seatService *subscriptionapp.SeatService) *SeatHandler {
	return &SeatHandler{seatService: seatService}
}

// Allocate allocates one seat under the parent subscription
func (h *SeatHandler) Allocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	parentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.AllocateSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.seatService.Allocate(c.Request.Context(), tenantID, parentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// BatchAllocate allocates several seats in one call. The response reports
// per-seat outcomes; capacity is checked up front for the whole batch.
func (h *SeatHandler) BatchAllocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	parentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req subscriptionapp.BatchAllocateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.seatService.BatchAllocate(c.Request.Context(), tenantID, parentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Deallocate releases a seat, closing its subscription per the policy
func (h *SeatHandler) Deallocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	seatID, ok := parseUUIDParam(c, "seat_id")
	if !ok {
		return
	}

	var req subscriptionapp.DeallocateSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.seatService.Deallocate(c.Request.Context(), tenantID, seatID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListSeats returns the seats allocated under a parent subscription
func (h *SeatHandler) ListSeats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	parentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	seats, err := h.seatService.ListSeats(c.Request.Context(), tenantID, parentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, seats)
}
