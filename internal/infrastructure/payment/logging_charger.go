package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/billing"
)

// LoggingCharger is the default Charger for installs without a payment
// gateway. It records the charge attempt and reports success, so billing
// runs complete and invoices stay collectible through manual reconciliation.
type LoggingCharger struct {
	logger *zap.Logger
}

// NewLoggingCharger creates a new logging charger
func NewLoggingCharger(logger *zap.Logger) *LoggingCharger {
	return &LoggingCharger{logger: logger}
}

// Charge logs the attempt and succeeds
func (c *LoggingCharger) Charge(_ context.Context, invoice *billing.Invoice) error {
	c.logger.Info("charge requested",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("tenant_id", invoice.TenantID.String()),
		zap.String("partner_id", invoice.PartnerID.String()),
		zap.String("amount", invoice.Amount.String()),
		zap.String("currency", string(invoice.Currency)),
	)
	return nil
}

var _ billing.Charger = (*LoggingCharger)(nil)
