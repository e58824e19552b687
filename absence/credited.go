/*
credited.go - Credited-hours calculation with cross-category deduplication

PURPOSE:
  Vacations, sick days and public holidays are hours an employee did not
  work but is credited for. This file converts them to day counts, hour
  equivalents and the literal calendar dates credited, so the employee
  report can both add credited hours to the balance and tag individual days.

DEDUPLICATION:
  A date can appear in at most ONE category. Priority:
    vacation > sick > holiday
  An approved vacation day that is also a public holiday is counted once,
  as vacation.

CATEGORY RULES (from the employment capability table):
  - Sick days credit nothing for types without sick pay (intern, freelance)
  - Holidays credit nothing for types without holiday credit, and only on
    Monday-Saturday: six-day-week employees are credited for a Saturday
    holiday, but a Sunday holiday credits no one

ROUNDING:
  Each category's hour figure is rounded to 2 decimals on its own; the
  total is rounded once after multiplying total days by daily hours. These
  points are fixed - moving them changes reported totals.
*/
package absence

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
)

// Credited is the result of a credited-hours calculation over a range.
// Date slices hold unique YYYY-MM-DD strings in ascending order.
type Credited struct {
	VacationDays  decimal.Decimal
	SickDays      decimal.Decimal
	HolidayDays   decimal.Decimal
	VacationHours decimal.Decimal
	SickHours     decimal.Decimal
	HolidayHours  decimal.Decimal
	TotalDays     decimal.Decimal
	TotalHours    decimal.Decimal
	VacationDates []string
	SickDates     []string
	HolidayDates  []string
}

// CreditCalculator computes credited hours from the three absence sources.
type CreditCalculator struct {
	Vacations VacationRepository
	SickDays  SickDayRepository
	Holidays  HolidayRepository
}

func NewCreditCalculator(v VacationRepository, s SickDayRepository, h HolidayRepository) *CreditCalculator {
	return &CreditCalculator{Vacations: v, SickDays: s, Holidays: h}
}

// CreditedHours computes the per-category day counts, hour equivalents and
// credited dates for one user over rng, given the daily hours and
// employment type that apply to the range.
func (c *CreditCalculator) CreditedHours(ctx context.Context, userID string, rng calendar.Range, dailyHours decimal.Decimal, typ employment.Type) (Credited, error) {
	caps := typ.Capabilities()
	out := Credited{}

	// Vacation: approved records only.
	vacationDates := map[string]bool{}
	vacations, err := c.Vacations.VacationsInRange(ctx, userID, rng)
	if err != nil {
		return Credited{}, err
	}
	for _, v := range vacations {
		if v.Status != StatusApproved {
			continue
		}
		out.VacationDays = out.VacationDays.Add(v.Days)
		if sub, ok := v.Span.Clamp(rng); ok {
			for _, d := range sub.Days() {
				vacationDates[d.String()] = true
			}
		}
	}

	// Sick leave: skipped for types without sick pay; vacation wins ties.
	sickDates := map[string]bool{}
	if caps.CountsForSickPay {
		sickDays, err := c.SickDays.SickDaysInRange(ctx, userID, rng)
		if err != nil {
			return Credited{}, err
		}
		for _, s := range sickDays {
			out.SickDays = out.SickDays.Add(s.Days)
			if sub, ok := s.Span.Clamp(rng); ok {
				for _, d := range sub.Days() {
					if !vacationDates[d.String()] {
						sickDates[d.String()] = true
					}
				}
			}
		}
	}

	// Public holidays: Monday-Saturday, not already vacation or sick.
	holidayDates := map[string]bool{}
	if caps.CountsForHolidayCredit {
		holidays, err := c.Holidays.HolidaysInRange(ctx, rng)
		if err != nil {
			return Credited{}, err
		}
		for _, h := range holidays {
			if h.Date.IsSunday() {
				continue
			}
			key := h.Date.String()
			if vacationDates[key] || sickDates[key] || holidayDates[key] {
				continue
			}
			holidayDates[key] = true
			out.HolidayDays = out.HolidayDays.Add(decimal.NewFromInt(1))
		}
	}

	out.VacationDates = sortedKeys(vacationDates)
	out.SickDates = sortedKeys(sickDates)
	out.HolidayDates = sortedKeys(holidayDates)

	out.VacationHours = out.VacationDays.Mul(dailyHours).Round(2)
	out.SickHours = out.SickDays.Mul(dailyHours).Round(2)
	out.HolidayHours = out.HolidayDays.Mul(dailyHours).Round(2)
	out.TotalDays = out.VacationDays.Add(out.SickDays).Add(out.HolidayDays)
	out.TotalHours = out.TotalDays.Mul(dailyHours).Round(2)
	return out, nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	// ISO dates sort lexicographically.
	sort.Strings(keys)
	return keys
}
