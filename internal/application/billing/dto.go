package billing

import (
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	PartnerID      uuid.UUID       `json:"partner_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IsRenewal      bool            `json:"is_renewal"`
	PaymentState   string          `json:"payment_state"`
	IssuedDate     time.Time       `json:"issued_date"`
	DueDate        time.Time       `json:"due_date"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		TenantID:       inv.TenantID,
		InvoiceNumber:  inv.InvoiceNumber,
		SubscriptionID: inv.SubscriptionID,
		PartnerID:      inv.PartnerID,
		Amount:         inv.Amount,
		Currency:       string(inv.Currency),
		IsRenewal:      inv.IsRenewal,
		PaymentState:   inv.PaymentState.String(),
		IssuedDate:     inv.IssuedDate,
		DueDate:        inv.DueDate,
		CreatedAt:      inv.CreatedAt,
	}
}

// PaymentRecordResponse represents a payment record in API responses
type PaymentRecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	PartnerID      uuid.UUID       `json:"partner_id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	FailureDate    *time.Time      `json:"failure_date,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	RetryCount     int             `json:"retry_count"`
	NextRetryDate  *time.Time      `json:"next_retry_date,omitempty"`
	SucceededAt    *time.Time      `json:"succeeded_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToPaymentRecordResponse converts a domain payment record to a response DTO
func ToPaymentRecordResponse(rec *billing.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:             rec.ID,
		SubscriptionID: rec.SubscriptionID,
		PartnerID:      rec.PartnerID,
		InvoiceID:      rec.InvoiceID,
		Amount:         rec.Amount,
		Status:         rec.Status.String(),
		FailureDate:    rec.FailureDate,
		FailureReason:  rec.FailureReason,
		RetryCount:     rec.RetryCount,
		NextRetryDate:  rec.NextRetryDate,
		SucceededAt:    rec.SucceededAt,
		CreatedAt:      rec.CreatedAt,
	}
}

// ReportFailureRequest records the outcome of a failed payment attempt
type ReportFailureRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
	NSF    bool   `json:"nsf"`
}

// ManualBillingRequest selects subscriptions for an on-demand billing run
type ManualBillingRequest struct {
	SubscriptionIDs []uuid.UUID `json:"subscription_ids" binding:"required,min=1"`
	Force           bool        `json:"force"`
}

// BillingResult is the outcome of billing one subscription
type BillingResult struct {
	SubscriptionID uuid.UUID        `json:"subscription_id"`
	Succeeded      bool             `json:"succeeded"`
	Skipped        bool             `json:"skipped"`
	Reason         string           `json:"reason,omitempty"`
	Invoice        *InvoiceResponse `json:"invoice,omitempty"`
}

// BillingRunResult summarizes one billing run over many subscriptions
type BillingRunResult struct {
	Invoiced int             `json:"invoiced"`
	Skipped  int             `json:"skipped"`
	Errors   int             `json:"errors"`
	Results  []BillingResult `json:"results"`
}

// RetryRunResult summarizes one payment retry sweep
type RetryRunResult struct {
	Attempted int `json:"attempted"`
	Recovered int `json:"recovered"`
	Failed    int `json:"failed"`
	Exhausted int `json:"exhausted"`
	Errors    int `json:"errors"`
}
