package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/communication"
)

// LoggingSender is the default Sender for installs without a mail
// provider. It records the delivery and reports success so scheduled
// communications drain instead of piling up.
type LoggingSender struct {
	logger *zap.Logger
}

// NewLoggingSender creates a new logging sender
func NewLoggingSender(logger *zap.Logger) *LoggingSender {
	return &LoggingSender{logger: logger}
}

// Send logs the delivery and succeeds
func (s *LoggingSender) Send(_ context.Context, comm *communication.Communication) error {
	s.logger.Info("communication dispatched",
		zap.String("communication_id", comm.ID.String()),
		zap.String("tenant_id", comm.TenantID.String()),
		zap.String("partner_id", comm.PartnerID.String()),
		zap.String("subscription_id", comm.SubscriptionID.String()),
		zap.String("type", string(comm.Type)),
		zap.String("subject", comm.Subject),
		zap.String("template_ref", comm.TemplateRef),
	)
	return nil
}

var _ communication.Sender = (*LoggingSender)(nil)
