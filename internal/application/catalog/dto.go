package catalog

import (
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePlanRequest represents a request to create a plan
type CreatePlanRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Code            string          `json:"code" binding:"required,min=1,max=50"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	BillingPeriod   string          `json:"billing_period" binding:"required,oneof=daily weekly monthly quarterly yearly lifetime"`
	BillingType     string          `json:"billing_type" binding:"required,oneof=anniversary calendar"`
	BillingInterval int             `json:"billing_interval" binding:"omitempty,min=1"`
	TrialPeriodDays int             `json:"trial_period_days" binding:"omitempty,min=0"`
	AutoRenew       *bool           `json:"auto_renew"`
	SortOrder       int             `json:"sort_order"`
}

// UpdatePlanRequest represents a request to update a plan
type UpdatePlanRequest struct {
	Price              *decimal.Decimal `json:"price"`
	Description        *string          `json:"description"`
	TrialPeriodDays    *int             `json:"trial_period_days"`
	AutoRenew          *bool            `json:"auto_renew"`
	GracePeriodDays    *int             `json:"grace_period_days"`
	InvoiceAdvanceDays *int             `json:"invoice_advance_days"`
	SortOrder          *int             `json:"sort_order"`
}

// ConfigureSeatsRequest represents a request to enable seat support
type ConfigureSeatsRequest struct {
	IncludedSeats       int             `json:"included_seats" binding:"required,min=1"`
	MaxSeats            int             `json:"max_seats" binding:"min=0"`
	AdditionalSeatPrice decimal.Decimal `json:"additional_seat_price"`
}

// PlanListFilter represents filter options for plan list
type PlanListFilter struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PlanResponse represents a plan in API responses
type PlanResponse struct {
	ID                  uuid.UUID       `json:"id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	Name                string          `json:"name"`
	Code                string          `json:"code"`
	Description         string          `json:"description,omitempty"`
	Price               decimal.Decimal `json:"price"`
	Currency            string          `json:"currency"`
	BillingPeriod       string          `json:"billing_period"`
	BillingType         string          `json:"billing_type"`
	BillingInterval     int             `json:"billing_interval"`
	IsLifetime          bool            `json:"is_lifetime"`
	TrialPeriodDays     int             `json:"trial_period_days"`
	AutoRenew           bool            `json:"auto_renew"`
	SupportsSeats       bool            `json:"supports_seats"`
	IncludedSeats       int             `json:"included_seats"`
	MaxSeats            int             `json:"max_seats"`
	AdditionalSeatPrice decimal.Decimal `json:"additional_seat_price"`
	GracePeriodDays     int             `json:"grace_period_days"`
	InvoiceAdvanceDays  int             `json:"invoice_advance_days"`
	Active              bool            `json:"active"`
	SortOrder           int             `json:"sort_order"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ToPlanResponse converts a domain plan to a response DTO
func ToPlanResponse(plan *catalog.Plan) PlanResponse {
	return PlanResponse{
		ID:                  plan.ID,
		TenantID:            plan.TenantID,
		Name:                plan.Name,
		Code:                plan.Code,
		Description:         plan.Description,
		Price:               plan.Price,
		Currency:            string(plan.Currency),
		BillingPeriod:       plan.BillingPeriod.String(),
		BillingType:         plan.BillingType.String(),
		BillingInterval:     plan.BillingInterval,
		IsLifetime:          plan.IsLifetime(),
		TrialPeriodDays:     plan.TrialPeriodDays,
		AutoRenew:           plan.AutoRenew,
		SupportsSeats:       plan.SupportsSeats,
		IncludedSeats:       plan.IncludedSeats,
		MaxSeats:            plan.MaxSeats,
		AdditionalSeatPrice: plan.AdditionalSeatPrice,
		GracePeriodDays:     plan.GracePeriodDays,
		InvoiceAdvanceDays:  plan.InvoiceAdvanceDays,
		Active:              plan.Active,
		SortOrder:           plan.SortOrder,
		CreatedAt:           plan.CreatedAt,
		UpdatedAt:           plan.UpdatedAt,
	}
}

// ToPlanResponses converts a slice of domain plans to response DTOs
func ToPlanResponses(plans []catalog.Plan) []PlanResponse {
	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = ToPlanResponse(&plans[i])
	}
	return responses
}
