package communication

import (
	"time"

	"github.com/ams/backend/internal/domain/communication"
	"github.com/google/uuid"
)

// CommunicationResponse represents a communication in API responses
type CommunicationResponse struct {
	ID             uuid.UUID  `json:"id"`
	PartnerID      uuid.UUID  `json:"partner_id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	Type           string     `json:"type"`
	Subject        string     `json:"subject"`
	TemplateRef    string     `json:"template_ref"`
	ScheduledDate  time.Time  `json:"scheduled_date"`
	State          string     `json:"state"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToCommunicationResponse converts a domain communication to a response DTO
func ToCommunicationResponse(c *communication.Communication) CommunicationResponse {
	return CommunicationResponse{
		ID:             c.ID,
		PartnerID:      c.PartnerID,
		SubscriptionID: c.SubscriptionID,
		Type:           c.Type.String(),
		Subject:        c.Subject,
		TemplateRef:    c.TemplateRef,
		ScheduledDate:  c.ScheduledDate,
		State:          c.State.String(),
		SentAt:         c.SentAt,
		FailureReason:  c.FailureReason,
		CreatedAt:      c.CreatedAt,
	}
}

// GenerationResult summarizes one generating cron run
type GenerationResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// DeliveryResult summarizes one delivery sweep
type DeliveryResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}
