package employment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
)

// =============================================================================
// SETTINGS PERIOD - Time-boxed contract terms
// =============================================================================

// SettingsPeriod is one time-boxed record of an employee's contract terms.
// A nil ValidTo means the period is open-ended (currently active); a nil
// ValidFrom means it reaches back to the beginning of tracked history.
//
// Periods for one user are assumed non-overlapping. The write boundary
// validates that; the resolver stays defensive and picks the first match
// in repository order when the assumption is violated.
type SettingsPeriod struct {
	ID     string
	UserID string
	Type   Type

	WeeklyHours         decimal.Decimal
	VacationDaysPerYear decimal.Decimal

	// MaxTotalHours is the lifetime hour cap, used for freelance contracts.
	MaxTotalHours *decimal.Decimal

	// HourlyRate is optional; aggregation averages it only over periods
	// where it is set.
	HourlyRate *decimal.Decimal

	// EmploymentStart is the hire date, carried on the period because the
	// earliest period predates the settings-history migration.
	EmploymentStart *calendar.Date

	ValidFrom *calendar.Date
	ValidTo   *calendar.Date
}

// DefaultSettings is the hard fallback for users with no settings at all.
func DefaultSettings(userID string) SettingsPeriod {
	return SettingsPeriod{
		UserID:              userID,
		Type:                TypeContract,
		WeeklyHours:         decimal.NewFromInt(40),
		VacationDaysPerYear: decimal.NewFromInt(20),
	}
}

// Covers reports whether the period's validity window contains d. Open
// ends cover everything on their side.
func (p SettingsPeriod) Covers(d calendar.Date) bool {
	if p.ValidFrom != nil && d.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && d.After(*p.ValidTo) {
		return false
	}
	return true
}

// Window clamps the validity window to bounds, substituting the bounds for
// open ends. The second return is false when the period lies entirely
// outside bounds.
func (p SettingsPeriod) Window(bounds calendar.Range) (calendar.Range, bool) {
	w := bounds
	if p.ValidFrom != nil {
		w.Start = *p.ValidFrom
	}
	if p.ValidTo != nil {
		w.End = *p.ValidTo
	}
	return w.Clamp(bounds)
}

// DailyHours is the period's expected hours for one workday (five-day week).
func (p SettingsPeriod) DailyHours() decimal.Decimal {
	return p.WeeklyHours.Div(decimal.NewFromInt(5))
}

// StartYear is the first year this period can contribute entitlement:
// the employment start's year if known, else the validity start's year.
// ok is false when the period has neither anchor.
func (p SettingsPeriod) StartYear() (year int, ok bool) {
	if p.EmploymentStart != nil {
		return p.EmploymentStart.Year(), true
	}
	if p.ValidFrom != nil {
		return p.ValidFrom.Year(), true
	}
	return 0, false
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the read interface for settings history.
type Repository interface {
	// PeriodsInRange returns periods whose validity window overlaps r,
	// in stored order.
	PeriodsInRange(ctx context.Context, userID string, r calendar.Range) ([]SettingsPeriod, error)

	// AllPeriods returns the user's full settings history, in stored order.
	AllPeriods(ctx context.Context, userID string) ([]SettingsPeriod, error)

	// CurrentSettings returns the user's open-ended settings record, or nil when
	// the user has no settings at all.
	CurrentSettings(ctx context.Context, userID string) (*SettingsPeriod, error)
}
