package analytics

import (
	"time"

	"github.com/ams/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// CohortResponse is one row of the retention matrix in API responses
type CohortResponse struct {
	CohortMonth   time.Time       `json:"cohort_month"`
	MonthsSince   int             `json:"months_since"`
	Total         int64           `json:"total"`
	StillActive   int64           `json:"still_active"`
	RetentionRate decimal.Decimal `json:"retention_rate"`
}

// ToCohortResponse converts a domain cohort row to a response DTO
func ToCohortResponse(row analytics.CohortRow) CohortResponse {
	return CohortResponse{
		CohortMonth:   row.CohortMonth,
		MonthsSince:   row.MonthsSince,
		Total:         row.Total,
		StillActive:   row.StillActive,
		RetentionRate: row.RetentionRate(),
	}
}

// ChurnResponse reports churn over an explicit window
type ChurnResponse struct {
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	Churned       int64           `json:"churned"`
	ActiveAtStart int64           `json:"active_at_start"`
	ChurnRate     decimal.Decimal `json:"churn_rate"`
}
