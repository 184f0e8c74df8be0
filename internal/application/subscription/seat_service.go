package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatService manages seat subscriptions under a parent subscription.
// Seats are full subscriptions linked to the parent; they mirror its billing
// cycle but bill nothing themselves, the parent carries the seat-adjusted
// price.
type SeatService struct {
	subRepo  subscription.SubscriptionRepository
	planRepo catalog.PlanRepository
	logger   *zap.Logger
}

// NewSeatService creates a new SeatService
func NewSeatService(
	subRepo subscription.SubscriptionRepository,
	planRepo catalog.PlanRepository,
	logger *zap.Logger,
) *SeatService {
	return &SeatService{
		subRepo:  subRepo,
		planRepo: planRepo,
		logger:   logger,
	}
}

// Allocate creates a seat subscription for a member under the parent.
// The parent's plan must support seats and the seat cap must not be reached.
func (s *SeatService) Allocate(ctx context.Context, tenantID, parentID uuid.UUID, req AllocateSeatRequest) (*SubscriptionResponse, error) {
	parent, plan, err := s.loadSeatContext(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCapacity(ctx, parent, plan, 1); err != nil {
		return nil, err
	}

	sub, err := s.createSeat(ctx, parent, plan, req)
	if err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(sub)
	return &response, nil
}

// BatchAllocate allocates several seats, isolating per-item failures. A
// member who already holds an active seat is skipped, not failed.
func (s *SeatService) BatchAllocate(ctx context.Context, tenantID, parentID uuid.UUID, req BatchAllocateSeatsRequest) (*BatchResult, error) {
	parent, plan, err := s.loadSeatContext(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.subRepo.FindSeats(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	held := make(map[uuid.UUID]bool, len(existing))
	for i := range existing {
		if existing[i].SeatMemberID != nil && !existing[i].IsTerminal() && existing[i].State != subscription.StateExpired {
			held[*existing[i].SeatMemberID] = true
		}
	}

	result := &BatchResult{
		Succeeded: []BatchItemResult{},
		Failed:    []BatchItemResult{},
		Skipped:   []BatchItemResult{},
	}

	for _, item := range req.Seats {
		key := item.MemberID.String()

		if held[item.MemberID] {
			result.Skipped = append(result.Skipped, BatchItemResult{Key: key, Reason: "member already holds a seat"})
			continue
		}

		if err := s.checkCapacity(ctx, parent, plan, 1); err != nil {
			result.Failed = append(result.Failed, BatchItemResult{Key: key, Reason: err.Error()})
			continue
		}

		if _, err := s.createSeat(ctx, parent, plan, item); err != nil {
			s.logger.Warn("seat allocation failed",
				zap.String("parent_id", parentID.String()),
				zap.String("member_id", key),
				zap.Error(err))
			result.Failed = append(result.Failed, BatchItemResult{Key: key, Reason: err.Error()})
			continue
		}

		held[item.MemberID] = true
		result.Succeeded = append(result.Succeeded, BatchItemResult{Key: key})
	}

	return result, nil
}

// Deallocate closes a seat subscription by cancelling or expiring it per the
// requested policy. The seat record is never deleted and the parent is never
// touched.
func (s *SeatService) Deallocate(ctx context.Context, tenantID, seatID uuid.UUID, req DeallocateSeatRequest) (*SubscriptionResponse, error) {
	seat, err := s.subRepo.FindByIDForTenant(ctx, tenantID, seatID)
	if err != nil {
		return nil, err
	}
	if !seat.IsSeat() {
		return nil, shared.NewDomainError("NOT_A_SEAT", "Subscription is not a seat")
	}

	switch req.Policy {
	case "cancel":
		reason := req.Reason
		if reason == "" {
			reason = "seat deallocated"
		}
		if err := seat.Cancel(reason); err != nil {
			return nil, err
		}
	case "expire":
		if err := seat.Expire(); err != nil {
			return nil, err
		}
	default:
		return nil, shared.NewDomainError("INVALID_POLICY", fmt.Sprintf("Unknown deallocation policy %q", req.Policy))
	}

	if err := s.subRepo.SaveWithLock(ctx, seat); err != nil {
		return nil, err
	}

	response := ToSubscriptionResponse(seat)
	return &response, nil
}

// ListSeats returns all seat subscriptions under a parent
func (s *SeatService) ListSeats(ctx context.Context, tenantID, parentID uuid.UUID) ([]SubscriptionResponse, error) {
	seats, err := s.subRepo.FindSeats(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponses(seats), nil
}

func (s *SeatService) loadSeatContext(ctx context.Context, tenantID, parentID uuid.UUID) (*subscription.Subscription, *catalog.Plan, error) {
	parent, err := s.subRepo.FindByIDForTenant(ctx, tenantID, parentID)
	if err != nil {
		return nil, nil, err
	}
	if parent.IsSeat() {
		return nil, nil, shared.NewDomainError("INVALID_PARENT", "Seats cannot be allocated under another seat")
	}
	if !parent.IsBillable() && parent.State != subscription.StateTrial {
		return nil, nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate seats on a %s subscription", parent.State))
	}

	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, parent.PlanID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.SupportsSeats {
		return nil, nil, shared.NewDomainError("SEATS_NOT_SUPPORTED", "Plan does not support seats")
	}

	return parent, plan, nil
}

// checkCapacity enforces the plan's seat cap. MaxSeats zero means unlimited.
func (s *SeatService) checkCapacity(ctx context.Context, parent *subscription.Subscription, plan *catalog.Plan, requested int) error {
	if plan.MaxSeats == 0 {
		return nil
	}
	active, err := s.subRepo.CountActiveSeats(ctx, parent.TenantID, parent.ID)
	if err != nil {
		return err
	}
	if active+int64(requested) > int64(plan.MaxSeats) {
		return shared.ErrSeatLimitReached
	}
	return nil
}

// createSeat builds the child subscription mirroring the parent's cycle and
// activates it immediately on the parent's dates
func (s *SeatService) createSeat(ctx context.Context, parent *subscription.Subscription, plan *catalog.Plan, req AllocateSeatRequest) (*subscription.Subscription, error) {
	number, err := s.subRepo.GenerateSubscriptionNumber(ctx, parent.TenantID)
	if err != nil {
		return nil, err
	}

	seat, err := subscription.NewSubscription(parent.TenantID, number, req.MemberID, req.MemberName, plan, time.Now())
	if err != nil {
		return nil, err
	}
	if err := seat.LinkSeat(parent.ID, req.MemberID); err != nil {
		return nil, err
	}
	if err := seat.Activate(time.Now()); err != nil {
		return nil, err
	}

	// Seats follow the parent's term, not their own cycle
	seat.EndDate = parent.EndDate
	seat.NextBillingDate = nil
	if err := seat.SetAutoRenew(false); err != nil {
		return nil, err
	}

	if err := s.subRepo.Save(ctx, seat); err != nil {
		return nil, err
	}

	return seat, nil
}
