/*
resolver.go - Period-aware settings resolution and aggregation

PURPOSE:
  Answers the three questions every engine above asks about contract terms:

    SettingsAt:     what were the terms on this one date?
    AggregateOver:  what were the average terms across this range?
    ExpectedHours:  how many hours should have been worked in this range?

FALLBACK CHAIN:
  period covering the date -> current open-ended record -> hard default
  (contract, 40h/week, 20 vacation days). Missing settings are never an
  error; they resolve to the default.

WEIGHTING:
  Range aggregation weights each period by the Mon-Fri workdays in its
  effective sub-range (validity clamped to the queried range). A period
  covering 40 of 60 workdays contributes two thirds of the average. The
  hourly rate is averaged only over periods that have one; its divisor is
  the workday count of those periods alone.

EXPECTED HOURS:
  Summed per period as clampedWorkdays * weeklyHours / 5 so a mid-range
  change from 40h to 30h weeks is reflected exactly. A single
  totalWorkdays * finalRate multiplication would misstate the early weeks.

ROUNDING:
  Nothing here rounds. Aggregates stay exact decimals; the report layer
  rounds to 2 decimals at the output boundary.
*/
package employment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
)

// Resolver resolves contract terms from settings history.
type Resolver struct {
	Periods Repository
}

func NewResolver(periods Repository) *Resolver {
	return &Resolver{Periods: periods}
}

// =============================================================================
// POINT LOOKUP
// =============================================================================

// SettingsAt returns the terms applicable on a single date.
//
// Overlapping periods are a write-boundary bug; when they occur anyway the
// FIRST covering period in repository order wins, deterministically.
func (r *Resolver) SettingsAt(ctx context.Context, userID string, date calendar.Date) (SettingsPeriod, error) {
	periods, err := r.Periods.PeriodsInRange(ctx, userID, calendar.NewRange(date, date))
	if err != nil {
		return SettingsPeriod{}, err
	}
	for _, p := range periods {
		if p.Covers(date) {
			return p, nil
		}
	}

	current, err := r.Periods.CurrentSettings(ctx, userID)
	if err != nil {
		return SettingsPeriod{}, err
	}
	if current != nil {
		return *current, nil
	}
	return DefaultSettings(userID), nil
}

// =============================================================================
// RANGE AGGREGATION
// =============================================================================

// PeriodShare is one period's contribution to a range aggregate.
type PeriodShare struct {
	Period   SettingsPeriod
	SubRange calendar.Range
	Workdays int
}

// Aggregate is the workday-weighted view of contract terms over a range.
type Aggregate struct {
	WeeklyHours         decimal.Decimal
	VacationDaysPerYear decimal.Decimal
	HourlyRate          decimal.Decimal
	DominantType        Type
	Workdays            int
	Shares              []PeriodShare
}

// AggregateOverRange computes the workday-weighted average terms across rng.
//
// When no period overlaps the range, the current settings record (or the
// default) is duplicated as a single period spanning the whole range.
func (r *Resolver) AggregateOverRange(ctx context.Context, userID string, rng calendar.Range) (Aggregate, error) {
	periods, err := r.Periods.PeriodsInRange(ctx, userID, rng)
	if err != nil {
		return Aggregate{}, err
	}

	shares := clampToRange(periods, rng)
	if len(shares) == 0 {
		current, err := r.Periods.CurrentSettings(ctx, userID)
		if err != nil {
			return Aggregate{}, err
		}
		fallback := DefaultSettings(userID)
		if current != nil {
			fallback = *current
		}
		shares = []PeriodShare{{Period: fallback, SubRange: rng, Workdays: rng.Workdays()}}
	}

	var (
		weightedWeekly   decimal.Decimal
		weightedVacation decimal.Decimal
		weightedRate     decimal.Decimal
		totalWorkdays    int
		rateWorkdays     int
		typeWorkdays     = map[Type]int{}
		dominant         Type
	)

	for _, s := range shares {
		w := decimal.NewFromInt(int64(s.Workdays))
		weightedWeekly = weightedWeekly.Add(s.Period.WeeklyHours.Mul(w))
		weightedVacation = weightedVacation.Add(s.Period.VacationDaysPerYear.Mul(w))
		if s.Period.HourlyRate != nil {
			weightedRate = weightedRate.Add(s.Period.HourlyRate.Mul(w))
			rateWorkdays += s.Workdays
		}
		totalWorkdays += s.Workdays

		typeWorkdays[s.Period.Type] += s.Workdays
		// Strict > keeps the earlier period on ties (repository order).
		if dominant == "" || typeWorkdays[s.Period.Type] > typeWorkdays[dominant] {
			dominant = s.Period.Type
		}
	}

	// Zero-workday ranges (a weekend) would divide by zero; floor to 1.
	divisor := decimal.NewFromInt(int64(max(totalWorkdays, 1)))
	rateDivisor := decimal.NewFromInt(int64(max(rateWorkdays, 1)))

	return Aggregate{
		WeeklyHours:         weightedWeekly.Div(divisor),
		VacationDaysPerYear: weightedVacation.Div(divisor),
		HourlyRate:          weightedRate.Div(rateDivisor),
		DominantType:        dominant,
		Workdays:            totalWorkdays,
		Shares:              shares,
	}, nil
}

// DailyHours is the aggregate weekly hours expressed per workday.
func (a Aggregate) DailyHours() decimal.Decimal {
	return a.WeeklyHours.Div(decimal.NewFromInt(5))
}

// =============================================================================
// EXPECTED HOURS
// =============================================================================

// ExpectedHours sums, per period, clamped-workdays * weeklyHours / 5.
// Periods outside the range contribute nothing.
func ExpectedHours(periods []SettingsPeriod, rng calendar.Range) decimal.Decimal {
	total := decimal.Zero
	for _, s := range clampToRange(periods, rng) {
		days := decimal.NewFromInt(int64(s.Workdays))
		total = total.Add(days.Mul(s.Period.DailyHours()))
	}
	return total
}

// ExpectedHoursFor resolves the user's periods and computes expected hours,
// falling back to the current record spanning the whole range.
func (r *Resolver) ExpectedHoursFor(ctx context.Context, userID string, rng calendar.Range) (decimal.Decimal, error) {
	agg, err := r.AggregateOverRange(ctx, userID, rng)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range agg.Shares {
		days := decimal.NewFromInt(int64(s.Workdays))
		total = total.Add(days.Mul(s.Period.DailyHours()))
	}
	return total, nil
}

func clampToRange(periods []SettingsPeriod, rng calendar.Range) []PeriodShare {
	var shares []PeriodShare
	for _, p := range periods {
		sub, ok := p.Window(rng)
		if !ok {
			continue
		}
		shares = append(shares, PeriodShare{Period: p, SubRange: sub, Workdays: sub.Workdays()})
	}
	return shares
}
