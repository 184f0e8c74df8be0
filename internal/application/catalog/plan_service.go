package catalog

import (
	"context"

	"github.com/ams/backend/internal/domain/catalog"
	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PlanService handles plan catalog operations
type PlanService struct {
	planRepo       catalog.PlanRepository
	eventPublisher shared.EventPublisher
}

// NewPlanService creates a new PlanService
func NewPlanService(planRepo catalog.PlanRepository) *PlanService {
	return &PlanService{
		planRepo: planRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PlanService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new plan
func (s *PlanService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePlanRequest) (*PlanResponse, error) {
	exists, err := s.planRepo.ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_CODE", "A plan with this code already exists")
	}

	price, err := valueobject.NewMoney(req.Price, valueobject.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
	}

	interval := req.BillingInterval
	if interval == 0 {
		interval = 1
	}

	plan, err := catalog.NewPlan(tenantID, req.Name, req.Code, price, catalog.BillingPeriod(req.BillingPeriod), catalog.BillingType(req.BillingType), interval)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		plan.SetDescription(req.Description)
	}
	if req.TrialPeriodDays > 0 {
		if err := plan.SetTrialPeriod(req.TrialPeriodDays); err != nil {
			return nil, err
		}
	}
	if req.AutoRenew != nil {
		if err := plan.SetAutoRenew(*req.AutoRenew); err != nil {
			return nil, err
		}
	}
	plan.SetSortOrder(req.SortOrder)

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, plan)

	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByID retrieves a plan by ID
func (s *PlanService) GetByID(ctx context.Context, tenantID, planID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByCode retrieves a plan by code
func (s *PlanService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// List retrieves plans with filtering and pagination
func (s *PlanService) List(ctx context.Context, tenantID uuid.UUID, filter PlanListFilter) ([]PlanResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "sort_order"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	var (
		plans []catalog.Plan
		err   error
	)
	if filter.ActiveOnly {
		plans, err = s.planRepo.FindActiveForTenant(ctx, tenantID, domainFilter)
	} else {
		plans, err = s.planRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.planRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPlanResponses(plans), total, nil
}

// Update updates a plan's mutable settings
func (s *PlanService) Update(ctx context.Context, tenantID, planID uuid.UUID, req UpdatePlanRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	if req.Price != nil {
		price, err := valueobject.NewMoney(*req.Price, plan.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
		}
		if err := plan.UpdatePrice(price); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		plan.SetDescription(*req.Description)
	}
	if req.TrialPeriodDays != nil {
		if err := plan.SetTrialPeriod(*req.TrialPeriodDays); err != nil {
			return nil, err
		}
	}
	if req.AutoRenew != nil {
		if err := plan.SetAutoRenew(*req.AutoRenew); err != nil {
			return nil, err
		}
	}
	if req.GracePeriodDays != nil {
		if err := plan.SetGracePeriod(*req.GracePeriodDays); err != nil {
			return nil, err
		}
	}
	if req.InvoiceAdvanceDays != nil {
		if err := plan.SetInvoiceAdvanceDays(*req.InvoiceAdvanceDays); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		plan.SetSortOrder(*req.SortOrder)
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, plan)

	response := ToPlanResponse(plan)
	return &response, nil
}

// ConfigureSeats enables seat support on a plan
func (s *PlanService) ConfigureSeats(ctx context.Context, tenantID, planID uuid.UUID, req ConfigureSeatsRequest) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	seatPrice, err := valueobject.NewMoney(req.AdditionalSeatPrice, plan.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_SEAT_CONFIG", err.Error())
	}
	if err := plan.EnableSeats(req.IncludedSeats, req.MaxSeats, seatPrice); err != nil {
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// DisableSeats turns off seat support on a plan
func (s *PlanService) DisableSeats(ctx context.Context, tenantID, planID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	plan.DisableSeats()

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	response := ToPlanResponse(plan)
	return &response, nil
}

// Activate makes a plan available for new subscriptions
func (s *PlanService) Activate(ctx context.Context, tenantID, planID uuid.UUID) error {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return err
	}

	plan.Activate()

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return err
	}

	s.publishEvents(ctx, plan)
	return nil
}

// Deactivate withdraws a plan from sale
func (s *PlanService) Deactivate(ctx context.Context, tenantID, planID uuid.UUID) error {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return err
	}

	plan.Deactivate()

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return err
	}

	s.publishEvents(ctx, plan)
	return nil
}

// publishEvents publishes and clears pending domain events; failures are
// best-effort and never abort the primary operation
func (s *PlanService) publishEvents(ctx context.Context, plan *catalog.Plan) {
	if s.eventPublisher == nil {
		return
	}
	events := plan.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	plan.ClearDomainEvents()
}
