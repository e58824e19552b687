/*
Package compliance checks time entries against the German Working Hours
Act (Arbeitszeitgesetz).

PURPOSE:
  A pure function over fetched time entries: group by calendar day, apply
  the daily and weekly limits, flag Sunday work, derive summary statistics.
  Nothing here persists or mutates.

CHECKS:
  Daily (§3 ArbZG):
    > 10h          violation DAILY_HOURS_EXCEEDED (hard ceiling)
    > 8h and <=10h warning   DAILY_HOURS_EXTENDED  (allowed only when
                             averaged back to 8h within six months)

  Weekly (§3 ArbZG):
    Sliding 7-day windows, one starting at EVERY day of the checked range -
    step one day, intentionally overlapping, not aligned to calendar weeks.
    A window summing past 48h is a violation WEEKLY_HOURS_EXCEEDED. Days
    past the range end simply contribute no entries.

  Sunday (§9 ArbZG):
    Any Sunday with hours > 0 is a warning SUNDAY_WORK.

EXEMPTION:
  Directors and freelancers are outside ArbZG scope. That decision belongs
  to the CALLER via employment.Type.ComplianceExemption; the engine checks
  whatever entries it is given.

BOUNDARIES:
  Exactly 10.00 daily hours is legal; 10.01 is a violation. Comparisons
  use decimals, so minute-derived hours never trip a limit through float
  noise.
*/
package compliance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/worklog"
)

// =============================================================================
// FINDINGS
// =============================================================================

type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
)

type Code string

const (
	CodeDailyHoursExceeded  Code = "DAILY_HOURS_EXCEEDED"
	CodeDailyHoursExtended  Code = "DAILY_HOURS_EXTENDED"
	CodeWeeklyHoursExceeded Code = "WEEKLY_HOURS_EXCEEDED"
	CodeSundayWork          Code = "SUNDAY_WORK"
)

// Finding is one detected rule breach, with its legal citation.
type Finding struct {
	Code     Code
	Severity Severity
	Law      string

	// Date is set for daily findings; WindowStart/WindowEnd for weekly ones.
	Date        string
	WindowStart string
	WindowEnd   string

	Hours   decimal.Decimal
	Limit   decimal.Decimal
	Message string
}

// Stats summarizes the checked range, all figures rounded to 2 decimals.
type Stats struct {
	WorkedDays    int
	TotalHours    decimal.Decimal
	AverageDaily  decimal.Decimal
	MaxDailyHours decimal.Decimal
}

// Result is the outcome of one compliance check.
type Result struct {
	UserID     string
	Range      calendar.Range
	Compliant  bool
	Violations []Finding
	Warnings   []Finding
	Stats      Stats
}

// =============================================================================
// LIMITS
// =============================================================================

var (
	dailyRegular  = decimal.NewFromInt(8)
	dailyExtended = decimal.NewFromInt(10)
	weeklyCeiling = decimal.NewFromInt(48)
)

// =============================================================================
// CHECKER
// =============================================================================

// Checker runs ArbZG checks over a user's time entries.
type Checker struct {
	Entries worklog.Repository
}

func NewChecker(entries worklog.Repository) *Checker {
	return &Checker{Entries: entries}
}

// Check fetches the user's entries in rng and evaluates every rule.
// Repeated calls over unchanged data yield identical results.
func (c *Checker) Check(ctx context.Context, userID string, rng calendar.Range) (Result, error) {
	from, to := worklog.RangeBounds(rng)
	entries, err := c.Entries.EntriesByUser(ctx, userID, &from, &to)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(userID, rng, entries), nil
}

// Evaluate is the pure core: entries in, findings out.
func Evaluate(userID string, rng calendar.Range, entries []worklog.TimeEntry) Result {
	byDay := worklog.HoursByDay(entries)

	result := Result{UserID: userID, Range: rng}

	// Daily limits and Sunday work, in calendar order.
	for d := rng.Start; d.BeforeOrEqual(rng.End); d = d.AddDays(1) {
		hours, worked := byDay[d]
		if !worked || hours.Sign() <= 0 {
			continue
		}

		if hours.GreaterThan(dailyExtended) {
			result.Violations = append(result.Violations, Finding{
				Code:     CodeDailyHoursExceeded,
				Severity: SeverityViolation,
				Law:      "§3 ArbZG",
				Date:     d.String(),
				Hours:    hours.Round(2),
				Limit:    dailyExtended,
				Message:  fmt.Sprintf("%s hours worked on %s exceed the 10-hour daily ceiling", hours.Round(2), d),
			})
		} else if hours.GreaterThan(dailyRegular) {
			result.Warnings = append(result.Warnings, Finding{
				Code:     CodeDailyHoursExtended,
				Severity: SeverityWarning,
				Law:      "§3 ArbZG",
				Date:     d.String(),
				Hours:    hours.Round(2),
				Limit:    dailyRegular,
				Message:  fmt.Sprintf("%s hours worked on %s exceed the regular 8-hour day", hours.Round(2), d),
			})
		}

		if d.IsSunday() {
			result.Warnings = append(result.Warnings, Finding{
				Code:     CodeSundayWork,
				Severity: SeverityWarning,
				Law:      "§9 ArbZG",
				Date:     d.String(),
				Hours:    hours.Round(2),
				Message:  fmt.Sprintf("work recorded on Sunday %s", d),
			})
		}
	}

	// Sliding 7-day windows, one per day of the range.
	for ws := rng.Start; ws.BeforeOrEqual(rng.End); ws = ws.AddDays(1) {
		we := ws.AddDays(6)
		sum := decimal.Zero
		for d := ws; d.BeforeOrEqual(we); d = d.AddDays(1) {
			sum = sum.Add(byDay[d])
		}
		if sum.GreaterThan(weeklyCeiling) {
			result.Violations = append(result.Violations, Finding{
				Code:        CodeWeeklyHoursExceeded,
				Severity:    SeverityViolation,
				Law:         "§3 ArbZG",
				WindowStart: ws.String(),
				WindowEnd:   we.String(),
				Hours:       sum.Round(2),
				Limit:       weeklyCeiling,
				Message:     fmt.Sprintf("%s hours in the 7 days from %s exceed the 48-hour week", sum.Round(2), ws),
			})
		}
	}

	result.Stats = buildStats(byDay)
	result.Compliant = len(result.Violations) == 0
	return result
}

func buildStats(byDay map[calendar.Date]decimal.Decimal) Stats {
	stats := Stats{}
	for _, hours := range byDay {
		if hours.Sign() <= 0 {
			continue
		}
		stats.WorkedDays++
		stats.TotalHours = stats.TotalHours.Add(hours)
		if hours.GreaterThan(stats.MaxDailyHours) {
			stats.MaxDailyHours = hours
		}
	}
	if stats.WorkedDays > 0 {
		stats.AverageDaily = stats.TotalHours.Div(decimal.NewFromInt(int64(stats.WorkedDays))).Round(2)
	}
	stats.TotalHours = stats.TotalHours.Round(2)
	stats.MaxDailyHours = stats.MaxDailyHours.Round(2)
	return stats
}
