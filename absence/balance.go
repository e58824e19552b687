/*
balance.go - Vacation balance: prorated entitlement and carry-over

PURPOSE:
  Computes the answer to "how many vacation days does this employee have
  left this year?" from settings history and vacation records.

ENTITLEMENT (full-month proration, the BUrlG §5 rule):
  For each settings period overlapping the target year, clamp its validity
  to the year - and forward to the hire date when the employee was hired
  mid-year - then count calendar months FULLY covered by the clamped
  sub-range. Each period contributes vacationDaysPerYear * fullMonths / 12.
  Periods with a non-positive allotment (freelance) contribute nothing.
  The sum is rounded to 2 decimals; per-period contributions are not.

CARRY-OVER:
  Walks every year from the earliest employment year up to (excluding) the
  target year and sums entitlement minus approved days used. Overspent
  years carry forward as debt. There is NO cap and NO expiry cut-off:
  legally a carry-over expires March 31 of the following year (§7 Abs. 3
  BUrlG), but this mirrors the established reporting behavior and changing
  it would silently alter every balance. The loop is bounded by
  targetYear - hireYear.

FALLBACK:
  A user without settings history gets the current record's flat annual
  entitlement, unprorated; a user without any settings gets the default.
*/
package absence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
)

// Balance is a user's vacation account for one calendar year.
type Balance struct {
	Year        int
	Entitlement decimal.Decimal
	CarryOver   decimal.Decimal
	Used        decimal.Decimal
	Pending     decimal.Decimal

	// Remaining subtracts pending requests; Available does not.
	Remaining decimal.Decimal
	Available decimal.Decimal
}

// BalanceCalculator composes the settings resolver's proration across years.
type BalanceCalculator struct {
	Periods   employment.Repository
	Vacations VacationRepository
}

func NewBalanceCalculator(periods employment.Repository, vacations VacationRepository) *BalanceCalculator {
	return &BalanceCalculator{Periods: periods, Vacations: vacations}
}

// Balance computes the vacation account for one user and year.
func (b *BalanceCalculator) Balance(ctx context.Context, userID string, year int) (Balance, error) {
	entitlement, err := b.ProratedEntitlement(ctx, userID, year)
	if err != nil {
		return Balance{}, err
	}

	carryOver, err := b.carryOver(ctx, userID, year)
	if err != nil {
		return Balance{}, err
	}

	used, pending, err := b.usedAndPending(ctx, userID, year)
	if err != nil {
		return Balance{}, err
	}

	return Balance{
		Year:        year,
		Entitlement: entitlement,
		CarryOver:   carryOver,
		Used:        used,
		Pending:     pending,
		Remaining:   entitlement.Add(carryOver).Sub(used).Sub(pending),
		Available:   entitlement.Add(carryOver).Sub(used),
	}, nil
}

// ProratedEntitlement computes the full-month-prorated entitlement for one
// calendar year, summed across settings periods and rounded to 2 decimals.
func (b *BalanceCalculator) ProratedEntitlement(ctx context.Context, userID string, year int) (decimal.Decimal, error) {
	yearRange := calendar.Year(year)
	periods, err := b.Periods.PeriodsInRange(ctx, userID, yearRange)
	if err != nil {
		return decimal.Zero, err
	}

	if len(periods) == 0 {
		// No history: flat annual entitlement from the current record.
		current, err := b.Periods.CurrentSettings(ctx, userID)
		if err != nil {
			return decimal.Zero, err
		}
		settings := employment.DefaultSettings(userID)
		if current != nil {
			settings = *current
		}
		if settings.VacationDaysPerYear.Sign() <= 0 {
			return decimal.Zero, nil
		}
		return settings.VacationDaysPerYear.Round(2), nil
	}

	twelve := decimal.NewFromInt(12)
	total := decimal.Zero
	for _, p := range periods {
		if p.VacationDaysPerYear.Sign() <= 0 {
			continue
		}
		sub, ok := p.Window(yearRange)
		if !ok {
			continue
		}
		// A mid-year hire starts accruing at the hire date even when the
		// period's validity reaches further back.
		if p.EmploymentStart != nil && p.EmploymentStart.Year() == year && p.EmploymentStart.After(sub.Start) {
			sub.Start = *p.EmploymentStart
			if !sub.IsValid() {
				continue
			}
		}
		months := decimal.NewFromInt(int64(sub.FullMonths()))
		total = total.Add(p.VacationDaysPerYear.Mul(months).Div(twelve))
	}
	return total.Round(2), nil
}

// carryOver sums entitlement minus approved usage for every year from the
// earliest employment year up to (excluding) the target year.
func (b *BalanceCalculator) carryOver(ctx context.Context, userID string, targetYear int) (decimal.Decimal, error) {
	periods, err := b.Periods.AllPeriods(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	earliest := 0
	for _, p := range periods {
		if y, ok := p.StartYear(); ok && (earliest == 0 || y < earliest) {
			earliest = y
		}
	}
	if earliest == 0 || earliest >= targetYear {
		return decimal.Zero, nil
	}

	carry := decimal.Zero
	for year := earliest; year < targetYear; year++ {
		entitlement, err := b.ProratedEntitlement(ctx, userID, year)
		if err != nil {
			return decimal.Zero, err
		}
		used, err := b.Vacations.ApprovedVacationDays(ctx, userID, year)
		if err != nil {
			return decimal.Zero, err
		}
		carry = carry.Add(entitlement.Sub(used))
	}
	return carry, nil
}

func (b *BalanceCalculator) usedAndPending(ctx context.Context, userID string, year int) (used, pending decimal.Decimal, err error) {
	vacations, err := b.Vacations.VacationsInRange(ctx, userID, calendar.Year(year))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	for _, v := range vacations {
		switch v.Status {
		case StatusApproved:
			used = used.Add(v.Days)
		case StatusPending:
			pending = pending.Add(v.Days)
		}
	}
	return used, pending, nil
}
