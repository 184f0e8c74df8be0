package catalog

import (
	"strings"
	"time"

	"github.com/ams/backend/internal/domain/shared"
	"github.com/ams/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingPeriod represents the cadence unit of a plan
type BillingPeriod string

const (
	BillingPeriodDaily     BillingPeriod = "daily"
	BillingPeriodWeekly    BillingPeriod = "weekly"
	BillingPeriodMonthly   BillingPeriod = "monthly"
	BillingPeriodQuarterly BillingPeriod = "quarterly"
	BillingPeriodYearly    BillingPeriod = "yearly"
	BillingPeriodLifetime  BillingPeriod = "lifetime"
)

// IsValid checks if the period is a valid BillingPeriod
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingPeriodDaily, BillingPeriodWeekly, BillingPeriodMonthly,
		BillingPeriodQuarterly, BillingPeriodYearly, BillingPeriodLifetime:
		return true
	}
	return false
}

// String returns the string representation of BillingPeriod
func (p BillingPeriod) String() string {
	return string(p)
}

// Days returns the nominal number of days in one period.
// Used as the proration denominator; lifetime has no period and returns 0.
func (p BillingPeriod) Days() int {
	switch p {
	case BillingPeriodDaily:
		return 1
	case BillingPeriodWeekly:
		return 7
	case BillingPeriodMonthly:
		return 30
	case BillingPeriodQuarterly:
		return 90
	case BillingPeriodYearly:
		return 365
	}
	return 0
}

// BillingType determines how the next billing date is anchored
type BillingType string

const (
	// BillingTypeAnniversary bills a fixed offset from the start date
	BillingTypeAnniversary BillingType = "anniversary"
	// BillingTypeCalendar bills on period boundaries (month/quarter/year end)
	BillingTypeCalendar BillingType = "calendar"
)

// IsValid checks if the type is a valid BillingType
func (t BillingType) IsValid() bool {
	return t == BillingTypeAnniversary || t == BillingTypeCalendar
}

// String returns the string representation of BillingType
func (t BillingType) String() string {
	return string(t)
}

// Plan represents a membership plan aggregate root.
// It defines the billing terms a subscription captures at creation.
type Plan struct {
	shared.TenantAggregateRoot
	Name                string
	Code                string
	Description         string
	Price               decimal.Decimal
	Currency            valueobject.Currency
	BillingPeriod       BillingPeriod
	BillingInterval     int
	BillingType         BillingType
	TrialPeriodDays     int
	AutoRenew           bool
	SupportsSeats       bool
	IncludedSeats       int
	MaxSeats            int // 0 means unlimited
	AdditionalSeatPrice decimal.Decimal
	GracePeriodDays     int
	InvoiceAdvanceDays  int
	Active              bool
	SortOrder           int
}

// NewPlan creates a new membership plan
func NewPlan(tenantID uuid.UUID, name, code string, price valueobject.Money, period BillingPeriod, billingType BillingType, interval int) (*Plan, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Plan name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Plan code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Plan code cannot exceed 50 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Plan price cannot be negative")
	}
	if !period.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILLING_PERIOD", "Unknown billing period")
	}
	if !billingType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILLING_TYPE", "Unknown billing type")
	}
	if interval < 1 {
		return nil, shared.NewDomainError("INVALID_BILLING_INTERVAL", "Billing interval must be at least 1")
	}

	plan := &Plan{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Code:                strings.ToUpper(code),
		Price:               price.Amount(),
		Currency:            price.Currency(),
		BillingPeriod:       period,
		BillingInterval:     interval,
		BillingType:         billingType,
		AutoRenew:           true,
		AdditionalSeatPrice: decimal.Zero,
		GracePeriodDays:     30,
		InvoiceAdvanceDays:  30,
		Active:              true,
	}

	// Lifetime plans have nothing to renew
	if plan.IsLifetime() {
		plan.AutoRenew = false
	}

	plan.AddDomainEvent(NewPlanCreatedEvent(plan))

	return plan, nil
}

// IsLifetime returns true if the plan never renews
func (p *Plan) IsLifetime() bool {
	return p.BillingPeriod == BillingPeriodLifetime
}

// UpdatePrice changes the plan list price
func (p *Plan) UpdatePrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Plan price cannot be negative")
	}

	old := p.Price
	p.Price = price.Amount()
	p.Currency = price.Currency()
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewPlanPriceChangedEvent(p, old))

	return nil
}

// SetTrialPeriod sets the number of trial days granted on signup
func (p *Plan) SetTrialPeriod(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_TRIAL_PERIOD", "Trial period cannot be negative")
	}
	p.TrialPeriodDays = days
	p.UpdatedAt = time.Now()
	return nil
}

// SetAutoRenew toggles the default auto-renew for new subscriptions.
// Lifetime plans cannot auto-renew.
func (p *Plan) SetAutoRenew(enabled bool) error {
	if enabled && p.IsLifetime() {
		return shared.NewDomainError("INVALID_STATE", "Lifetime plans cannot auto-renew")
	}
	p.AutoRenew = enabled
	p.UpdatedAt = time.Now()
	return nil
}

// SetGracePeriod sets the days a lapsed subscription stays in grace before suspension
func (p *Plan) SetGracePeriod(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_GRACE_PERIOD", "Grace period cannot be negative")
	}
	p.GracePeriodDays = days
	p.UpdatedAt = time.Now()
	return nil
}

// SetInvoiceAdvanceDays sets how many days before the billing date invoices are raised
func (p *Plan) SetInvoiceAdvanceDays(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_ADVANCE_DAYS", "Invoice advance days cannot be negative")
	}
	p.InvoiceAdvanceDays = days
	p.UpdatedAt = time.Now()
	return nil
}

// EnableSeats turns on multi-seat support for the plan
func (p *Plan) EnableSeats(includedSeats, maxSeats int, additionalSeatPrice valueobject.Money) error {
	if includedSeats <= 0 {
		return shared.NewDomainError("INVALID_SEAT_CONFIG", "Included seats must be positive")
	}
	if maxSeats < 0 {
		return shared.NewDomainError("INVALID_SEAT_CONFIG", "Max seats cannot be negative")
	}
	if maxSeats > 0 && maxSeats < includedSeats {
		return shared.NewDomainError("INVALID_SEAT_CONFIG", "Max seats cannot be less than included seats")
	}
	if additionalSeatPrice.IsNegative() {
		return shared.NewDomainError("INVALID_SEAT_CONFIG", "Additional seat price cannot be negative")
	}

	p.SupportsSeats = true
	p.IncludedSeats = includedSeats
	p.MaxSeats = maxSeats
	p.AdditionalSeatPrice = additionalSeatPrice.Amount()
	p.UpdatedAt = time.Now()

	return nil
}

// DisableSeats turns off multi-seat support
func (p *Plan) DisableSeats() {
	p.SupportsSeats = false
	p.IncludedSeats = 0
	p.MaxSeats = 0
	p.AdditionalSeatPrice = decimal.Zero
	p.UpdatedAt = time.Now()
}

// Activate makes the plan available for new subscriptions
func (p *Plan) Activate() {
	if p.Active {
		return
	}
	p.Active = true
	p.UpdatedAt = time.Now()
	p.AddDomainEvent(NewPlanActivatedEvent(p))
}

// Deactivate hides the plan from new subscriptions.
// Existing subscriptions keep their captured terms.
func (p *Plan) Deactivate() {
	if !p.Active {
		return
	}
	p.Active = false
	p.UpdatedAt = time.Now()
	p.AddDomainEvent(NewPlanDeactivatedEvent(p))
}

// SetDescription sets the plan description
func (p *Plan) SetDescription(description string) {
	p.Description = description
	p.UpdatedAt = time.Now()
}

// SetSortOrder sets the display ordering
func (p *Plan) SetSortOrder(order int) {
	p.SortOrder = order
	p.UpdatedAt = time.Now()
}

// NextBillingDate computes the next billing date from the given date.
// Anniversary billing advances by a fixed offset. Calendar billing rounds
// to the end of the billing period: last day of the month, quarter or year.
// Lifetime plans are never billed again and return nil.
func (p *Plan) NextBillingDate(from time.Time) *time.Time {
	return NextBillingDate(p.BillingPeriod, p.BillingType, p.BillingInterval, from)
}

// PeriodDays returns the nominal length of one full billing cycle in days.
// It is the denominator for proration daily rates. Lifetime plans return 0.
func (p *Plan) PeriodDays() int {
	return PeriodDays(p.BillingPeriod, p.BillingInterval)
}

// NextBillingDate computes the next billing date for the given billing
// terms. Subscriptions capture plan terms at creation and keep computing
// dates from the captured values even after the plan changes.
func NextBillingDate(period BillingPeriod, billingType BillingType, interval int, from time.Time) *time.Time {
	if period == BillingPeriodLifetime {
		return nil
	}

	if billingType == BillingTypeAnniversary {
		next := advance(period, interval, from)
		return &next
	}

	// Calendar: the first period is shortened to the upcoming boundary.
	// Daily and weekly plans have no natural calendar boundary and behave
	// like anniversary billing.
	switch period {
	case BillingPeriodMonthly, BillingPeriodQuarterly, BillingPeriodYearly:
		next := periodEnd(period, from)
		if !next.After(from) {
			next = periodEnd(period, advance(period, interval, from))
		}
		return &next
	default:
		next := advance(period, interval, from)
		return &next
	}
}

// PeriodDays returns the nominal cycle length in days for the given terms
func PeriodDays(period BillingPeriod, interval int) int {
	return period.Days() * interval
}

// SeatAdjustedPrice returns the price for the given number of allocated
// seats: base price plus the per-seat charge for seats beyond the included
// count. Plans without seat support always return the base price.
func (p *Plan) SeatAdjustedPrice(allocatedSeats int) decimal.Decimal {
	if !p.SupportsSeats {
		return p.Price
	}
	extra := allocatedSeats - p.IncludedSeats
	if extra <= 0 {
		return p.Price
	}
	return p.Price.Add(p.AdditionalSeatPrice.Mul(decimal.NewFromInt(int64(extra))))
}

// GetPriceMoney returns the list price as Money
func (p *Plan) GetPriceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Price, p.Currency)
	return m
}

// HasTrial returns true if the plan grants a trial period
func (p *Plan) HasTrial() bool {
	return p.TrialPeriodDays > 0
}

// advance moves the date forward by one full billing cycle
func advance(period BillingPeriod, interval int, from time.Time) time.Time {
	switch period {
	case BillingPeriodDaily:
		return from.AddDate(0, 0, interval)
	case BillingPeriodWeekly:
		return from.AddDate(0, 0, 7*interval)
	case BillingPeriodMonthly:
		return from.AddDate(0, interval, 0)
	case BillingPeriodQuarterly:
		return from.AddDate(0, 3*interval, 0)
	case BillingPeriodYearly:
		return from.AddDate(interval, 0, 0)
	}
	return from
}

// periodEnd returns the last day of the calendar period containing the date
func periodEnd(period BillingPeriod, t time.Time) time.Time {
	switch period {
	case BillingPeriodMonthly:
		firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, -1)
	case BillingPeriodQuarterly:
		quarterStartMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
		firstOfNext := time.Date(t.Year(), quarterStartMonth, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 3, 0)
		return firstOfNext.AddDate(0, 0, -1)
	case BillingPeriodYearly:
		return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
	}
	return t
}
