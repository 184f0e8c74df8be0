package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/ams/backend/internal/application/catalog"
)

// PlanHandler handles membership plan API endpoints
type PlanHandler struct {
	BaseHandler
	planService *catalogapp.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *catalogapp.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// Create creates a new plan
func (h *PlanHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req catalogapp.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.planService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns a plan by its ID
func (h *PlanHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.planService.GetByID(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByCode returns a plan by its unique code
func (h *PlanHandler) GetByCode(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Missing code parameter")
		return
	}

	resp, err := h.planService.GetByCode(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns plans matching the filter, paginated
func (h *PlanHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter catalogapp.PlanListFilter
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

	plans, total, err := h.planService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, plans, total, filter.Page, filter.PageSize)
}

// Update updates mutable plan fields
func (h *PlanHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req catalogapp.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.planService.Update(c.Request.Context(), tenantID, planID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ConfigureSeats enables multi-seat support on a plan
func (h *PlanHandler) ConfigureSeats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req catalogapp.ConfigureSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.planService.ConfigureSeats(c.Request.Context(), tenantID, planID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DisableSeats turns off multi-seat support on a plan
func (h *PlanHandler) DisableSeats(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.planService.DisableSeats(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate makes a plan available for new subscriptions
func (h *PlanHandler) Activate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Activate(c.Request.Context(), tenantID, planID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Deactivate withdraws a plan from sale. Existing subscriptions keep
// running on it.
func (h *PlanHandler) Deactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.planService.Deactivate(c.Request.Context(), tenantID, planID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
