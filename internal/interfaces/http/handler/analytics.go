package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	analyticsapp "github.com/ams/backend/internal/application/analytics"
)

// AnalyticsHandler handles membership analytics endpoints
type AnalyticsHandler struct {
	BaseHandler
	analyticsService *analyticsapp.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *analyticsapp.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetDashboard returns the membership KPI dashboard. The force query flag
// bypasses the cache and recomputes.
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	force := c.Query("force") == "true"

	dashboard, err := h.analyticsService.GetDashboard(c.Request.Context(), tenantID, force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// GetCohortRetention returns the cohort retention matrix for the last
// N months (default 12)
func (h *AnalyticsHandler) GetCohortRetention(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	months := 12
	if raw := c.Query("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months < 1 || months > 60 {
			h.BadRequest(c, "Invalid months parameter: must be between 1 and 60")
			return
		}
	}

	rows, err := h.analyticsService.GetCohortRetention(c.Request.Context(), tenantID, months)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// GetChurnRate returns the churn rate over an explicit window
func (h *AnalyticsHandler) GetChurnRate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		h.BadRequest(c, "Invalid or missing from parameter")
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		h.BadRequest(c, "Invalid or missing to parameter")
		return
	}

	result, err := h.analyticsService.GetChurnRate(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func parseDateQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
