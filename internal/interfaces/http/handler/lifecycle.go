package handler

import (
	"github.com/gin-gonic/gin"

	subscriptionapp "github.com/ams/backend/internal/application/subscription"
	"github.com/ams/backend/internal/infrastructure/scheduler"
)

// LifecycleHandler exposes the lifecycle sweeps for on-demand runs
type LifecycleHandler struct {
	BaseHandler
	lifecycleService *subscriptionapp.LifecycleService
	cronTrigger      *scheduler.CronTrigger
}

// NewLifecycleHandler creates a new LifecycleHandler. The cron trigger is
// optional; queue-based triggering returns 503 when the scheduler is
// disabled.
func NewLifecycleHandler(lifecycleService *subscriptionapp.LifecycleService, cronTrigger *scheduler.CronTrigger) *LifecycleHandler {
	return &LifecycleHandler{
		lifecycleService: lifecycleService,
		cronTrigger:      cronTrigger,
	}
}

// TriggerSweepRequest selects which sweep to queue. An empty job_type
// queues the full daily sequence.
type TriggerSweepRequest struct {
	JobType string `json:"job_type" binding:"omitempty,oneof=CHECK_EXPIRIES BILLING_RUN PAYMENT_RETRIES RENEWAL_REMINDERS LAPSED_NOTICES WELCOME_MESSAGES SEND_COMMUNICATIONS"`
}

// CheckExpiries runs the expiry sweep synchronously and returns its result
func (h *LifecycleHandler) CheckExpiries(c *gin.Context) {
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

	result, err := h.lifecycleService.CheckExpiries(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TriggerSweep queues lifecycle sweeps on the background scheduler
func (h *LifecycleHandler) TriggerSweep(c *gin.Context) {
	if h.cronTrigger == nil {
		h.Error(c, 503, "ERR_SCHEDULER_DISABLED", "Background scheduler is not enabled")
		return
	}

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

	var req TriggerSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	var jobType *scheduler.JobType
	if req.JobType != "" {
		jt := scheduler.JobType(req.JobType)
		jobType = &jt
	}

	if err := h.cronTrigger.TriggerManualRun(c.Request.Context(), tenantID, jobType, asOf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"queued": true})
}
