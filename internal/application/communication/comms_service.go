package communication

import (
	"context"
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/communication"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReminderOffsets is the renewal reminder ladder: days before the end
// date at which a reminder goes out
var DefaultReminderOffsets = []int{30, 15, 7, 1}

// lapsedNoticeWindowDays bounds the lapsed-notice scan: only subscriptions
// that expired within this trailing window are noticed. Older expiries were
// either noticed by an earlier run or are not worth chasing.
const lapsedNoticeWindowDays = 30

// welcomeWindowDays bounds the welcome scan to recent activations
const welcomeWindowDays = 1

// deliveryBatchSize caps one delivery sweep
const deliveryBatchSize = 500

// CommsService generates and delivers member communications. Every
// generating method is idempotent through the dedup key: a re-run over the
// same window never schedules the same notice twice.
type CommsService struct {
	subRepo         subscription.SubscriptionRepository
	commRepo        communication.CommunicationRepository
	sender          communication.Sender
	reminderOffsets []int
	logger          *zap.Logger
}

// NewCommsService creates a new CommsService. Nil offsets use the default
// 30/15/7/1 ladder.
func NewCommsService(
	subRepo subscription.SubscriptionRepository,
	commRepo communication.CommunicationRepository,
	sender communication.Sender,
	reminderOffsets []int,
	logger *zap.Logger,
) *CommsService {
	if len(reminderOffsets) == 0 {
		reminderOffsets = DefaultReminderOffsets
	}
	return &CommsService{
		subRepo:         subRepo,
		commRepo:        commRepo,
		sender:          sender,
		reminderOffsets: reminderOffsets,
		logger:          logger,
	}
}

// GenerateRenewalReminders schedules a reminder for every subscription whose
// end date lands exactly offset days ahead, one record per rung of the
// ladder
func (s *CommsService) GenerateRenewalReminders(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*GenerationResult, error) {
	result := &GenerationResult{}

	for _, offset := range s.reminderOffsets {
		target := asOf.AddDate(0, 0, offset)
		subs, err := s.subRepo.FindEndingOn(ctx, tenantID, target)
		if err != nil {
			return nil, err
		}

		for i := range subs {
			sub := &subs[i]
			if !s.remindable(sub) {
				result.Skipped++
				continue
			}
			subject := fmt.Sprintf("Your %s membership expires in %d days", sub.PlanName, offset)
			s.schedule(ctx, result, sub, communication.TypeRenewalReminder, subject, "renewal_reminder", asOf, offset)
		}
	}

	s.logGeneration("renewal reminder", tenantID, result)
	return result, nil
}

// GenerateLapsedNotices schedules a lapsed notice for subscriptions that
// expired within the trailing window
func (s *CommsService) GenerateLapsedNotices(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*GenerationResult, error) {
	result := &GenerationResult{}

	expired, err := s.subRepo.FindByStateEndedBefore(ctx, tenantID, subscription.StateExpired, asOf)
	if err != nil {
		return nil, err
	}

	windowStart := asOf.AddDate(0, 0, -lapsedNoticeWindowDays)
	for i := range expired {
		sub := &expired[i]
		if sub.IsSeat() || sub.EndDate == nil || sub.EndDate.Before(windowStart) {
			result.Skipped++
			continue
		}
		subject := fmt.Sprintf("Your %s membership has lapsed", sub.PlanName)
		s.schedule(ctx, result, sub, communication.TypeLapsedNotice, subject, "lapsed_notice", asOf, 0)
	}

	s.logGeneration("lapsed notice", tenantID, result)
	return result, nil
}

// GenerateWelcomeMessages schedules a welcome message for subscriptions
// activated since the previous run window
func (s *CommsService) GenerateWelcomeMessages(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*GenerationResult, error) {
	result := &GenerationResult{}

	from := asOf.AddDate(0, 0, -welcomeWindowDays)
	activated, err := s.subRepo.FindActivatedBetween(ctx, tenantID, from, asOf)
	if err != nil {
		return nil, err
	}

	for i := range activated {
		sub := &activated[i]
		subject := fmt.Sprintf("Welcome to %s", sub.PlanName)
		s.schedule(ctx, result, sub, communication.TypeWelcome, subject, "welcome", asOf, 0)
	}

	s.logGeneration("welcome message", tenantID, result)
	return result, nil
}

// SendScheduledCommunications delivers the due batch through the sender.
// Failures stay retryable: a failed record returns to the next sweep.
func (s *CommsService) SendScheduledCommunications(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*DeliveryResult, error) {
	due, err := s.commRepo.FindDue(ctx, tenantID, asOf, deliveryBatchSize)
	if err != nil {
		return nil, err
	}

	result := &DeliveryResult{}
	for i := range due {
		comm := &due[i]
		if !comm.IsDue(asOf) {
			continue
		}

		if sendErr := s.sender.Send(ctx, comm); sendErr != nil {
			if err := comm.MarkFailed(sendErr.Error()); err != nil {
				result.Errors++
				continue
			}
			if err := s.commRepo.Save(ctx, comm); err != nil {
				result.Errors++
				continue
			}
			result.Failed++
			continue
		}

		if err := comm.MarkSent(); err != nil {
			result.Errors++
			continue
		}
		if err := s.commRepo.Save(ctx, comm); err != nil {
			result.Errors++
			continue
		}
		result.Sent++
	}

	s.logger.Info("communication delivery sweep completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("errors", result.Errors))

	return result, nil
}

// ListBySubscription returns the communications for a subscription
func (s *CommsService) ListBySubscription(ctx context.Context, tenantID, subID uuid.UUID, filter shared.Filter) ([]CommunicationResponse, error) {
	comms, err := s.commRepo.FindBySubscription(ctx, tenantID, subID, filter)
	if err != nil {
		return nil, err
	}
	return toResponses(comms), nil
}

// ListByPartner returns the communications addressed to a partner
func (s *CommsService) ListByPartner(ctx context.Context, tenantID, partnerID uuid.UUID, filter shared.Filter) ([]CommunicationResponse, error) {
	comms, err := s.commRepo.FindByPartner(ctx, tenantID, partnerID, filter)
	if err != nil {
		return nil, err
	}
	return toResponses(comms), nil
}

// CancelCommunication withdraws a scheduled communication
func (s *CommsService) CancelCommunication(ctx context.Context, tenantID, commID uuid.UUID) error {
	comm, err := s.commRepo.FindByIDForTenant(ctx, tenantID, commID)
	if err != nil {
		return err
	}
	if err := comm.Cancel(); err != nil {
		return err
	}
	return s.commRepo.Save(ctx, comm)
}

// remindable filters reminder targets: seats never get their own reminders
// and terminal or lifetime subscriptions have nothing to renew
func (s *CommsService) remindable(sub *subscription.Subscription) bool {
	if sub.IsSeat() || sub.IsLifetime {
		return false
	}
	switch sub.State {
	case subscription.StateActive, subscription.StateTrial, subscription.StatePendingRenewal:
		return true
	}
	return false
}

// schedule creates one deduped communication record, counting the outcome
func (s *CommsService) schedule(ctx context.Context, result *GenerationResult, sub *subscription.Subscription, commType communication.Type, subject, templateRef string, asOf time.Time, offsetDays int) {
	dedupKey := communication.DedupKey(sub.ID, commType, offsetDays)
	exists, err := s.commRepo.ExistsByDedupKey(ctx, sub.TenantID, dedupKey)
	if err != nil {
		result.Errors++
		return
	}
	if exists {
		result.Skipped++
		return
	}

	comm, err := communication.NewCommunication(sub.TenantID, sub.PartnerID, sub.ID, commType, subject, templateRef, asOf, offsetDays)
	if err != nil {
		s.logger.Warn("failed to build communication",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("type", commType.String()),
			zap.Error(err))
		result.Errors++
		return
	}
	if err := s.commRepo.Save(ctx, comm); err != nil {
		result.Errors++
		return
	}
	result.Created++
}

func (s *CommsService) logGeneration(kind string, tenantID uuid.UUID, result *GenerationResult) {
	s.logger.Info(kind+" generation completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))
}

func toResponses(comms []communication.Communication) []CommunicationResponse {
	responses := make([]CommunicationResponse, len(comms))
	for i := range comms {
		responses[i] = ToCommunicationResponse(&comms[i])
	}
	return responses
}
