package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/ams/backend/internal/domain/billing"
	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscriptionService handles subscription lifecycle operations
type SubscriptionService struct {
	subRepo        subscription.SubscriptionRepository
	planRepo       catalog.PlanRepository
	scheduleRepo   billing.ScheduleRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	subRepo subscription.SubscriptionRepository,
	planRepo catalog.PlanRepository,
	scheduleRepo billing.ScheduleRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:      subRepo,
		planRepo:     planRepo,
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SubscriptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new subscription against an active plan. Depending on the
// request it stays in draft, starts a trial, or activates immediately.
func (s *SubscriptionService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, req.PlanID)
	if err != nil {
		return nil, err
	}

	number, err := s.subRepo.GenerateSubscriptionNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	sub, err := subscription.NewSubscription(tenantID, number, req.PartnerID, req.PartnerName, plan, startDate)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		sub.SetNotes(req.Notes)
	}

	if req.StartTrial {
		if err := sub.StartTrial(); err != nil {
			return nil, err
		}
	} else if req.ActivateNow {
		if err := sub.Activate(startDate); err != nil {
			return nil, err
		}
	}

	if err := s.subRepo.Save(ctx, sub); err != nil {
		return nil, err
	}

	if sub.State == subscription.StateActive {
		if err := s.ensureSchedule(ctx, sub); err != nil {
			return nil, err
		}
	}

	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// GetByID retrieves a subscription by ID
func (s *SubscriptionService) GetByID(ctx context.Context, tenantID, subID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}
	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// GetByNumber retrieves a subscription by its human-readable number
func (s *SubscriptionService) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// List retrieves subscriptions with filtering and pagination
func (s *SubscriptionService) List(ctx context.Context, tenantID uuid.UUID, filter SubscriptionListFilter) ([]SubscriptionResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)

	var (
		subs []subscription.Subscription
		err  error
	)
	switch {
	case filter.PartnerID != nil:
		subs, err = s.subRepo.FindByPartner(ctx, tenantID, *filter.PartnerID, domainFilter)
	case filter.State != nil:
		state := subscription.State(*filter.State)
		if !state.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATE", "Unknown subscription state")
		}
		subs, err = s.subRepo.FindByState(ctx, tenantID, state, domainFilter)
	default:
		subs, err = s.subRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.subRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToSubscriptionResponses(subs), total, nil
}

// ListAtRisk retrieves subscriptions whose dunning level marks them at risk
func (s *SubscriptionService) ListAtRisk(ctx context.Context, tenantID uuid.UUID, filter SubscriptionListFilter) ([]SubscriptionResponse, error) {
	subs, err := s.subRepo.FindAtRisk(ctx, tenantID, subscription.AtRiskDunningLevel, s.toDomainFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponses(subs), nil
}

// Activate activates a draft, trial or suspended subscription
func (s *SubscriptionService) Activate(ctx context.Context, tenantID, subID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.Activate(time.Now()); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.ensureSchedule(ctx, sub); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// StartTrial moves a draft subscription into trial
func (s *SubscriptionService) StartTrial(ctx context.Context, tenantID, subID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.StartTrial(); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Suspend suspends a subscription and pauses its billing schedule
func (s *SubscriptionService) Suspend(ctx context.Context, tenantID, subID uuid.UUID, req SuspendRequest) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.Suspend(req.Reason); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	s.deactivateSchedule(ctx, sub)
	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Resume reactivates a suspended subscription and its billing schedule
func (s *SubscriptionService) Resume(ctx context.Context, tenantID, subID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if sub.State != subscription.StateSuspended {
		return nil, shared.NewDomainError("INVALID_STATE", "Only suspended subscriptions can be resumed")
	}

	if err := sub.Activate(time.Now()); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.ensureSchedule(ctx, sub); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Cancel cancels a subscription. The state is terminal; seats under it are
// untouched and must be closed separately.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID, subID uuid.UUID, req CancelRequest) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	s.deactivateSchedule(ctx, sub)
	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// Expire marks a subscription expired
func (s *SubscriptionService) Expire(ctx context.Context, tenantID, subID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.Expire(); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	s.deactivateSchedule(ctx, sub)
	s.publishEvents(ctx, sub)

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// SetAutoRenew toggles auto renewal on a subscription
func (s *SubscriptionService) SetAutoRenew(ctx context.Context, tenantID, subID uuid.UUID, req SetAutoRenewRequest) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	if err := sub.SetAutoRenew(req.AutoRenew); err != nil {
		return nil, err
	}

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// UpdateNotes replaces the free-form notes on a subscription
func (s *SubscriptionService) UpdateNotes(ctx context.Context, tenantID, subID uuid.UUID, notes string) (*SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subID)
	if err != nil {
		return nil, err
	}

	sub.SetNotes(notes)

	if err := s.subRepo.SaveWithLock(ctx, sub); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// ensureSchedule creates or reactivates the billing schedule so it mirrors
// the subscription's next billing date. Lifetime subscriptions get none.
func (s *SubscriptionService) ensureSchedule(ctx context.Context, sub *subscription.Subscription) error {
	if sub.IsLifetime {
		return nil
	}

	schedule, err := s.scheduleRepo.FindBySubscription(ctx, sub.TenantID, sub.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		schedule, err = billing.NewSchedule(sub.TenantID, sub.ID, sub.NextBillingDate)
		if err != nil {
			return err
		}
		return s.scheduleRepo.Save(ctx, schedule)
	}

	schedule.Reactivate(sub.NextBillingDate)
	return s.scheduleRepo.Save(ctx, schedule)
}

// deactivateSchedule pauses billing when the subscription leaves a billable
// state. Best effort: a missing schedule is not an error here.
func (s *SubscriptionService) deactivateSchedule(ctx context.Context, sub *subscription.Subscription) {
	schedule, err := s.scheduleRepo.FindBySubscription(ctx, sub.TenantID, sub.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("failed to load billing schedule",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		}
		return
	}

	schedule.Deactivate()
	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.Warn("failed to deactivate billing schedule",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
	}
}

func (s *SubscriptionService) toDomainFilter(filter SubscriptionListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
}

// publishEvents publishes and clears pending domain events; failures are
// logged and never abort the primary operation
func (s *SubscriptionService) publishEvents(ctx context.Context, sub *subscription.Subscription) {
	if s.eventPublisher == nil {
		return
	}
	events := sub.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
	}
	sub.ClearDomainEvents()
}
