/*
period.go - Reporting-period query parsing

Every report endpoint takes the same period parameters:

  ?period=month&year=2026&month=3     one calendar month (the default;
                                      year/month default to the current ones)
  ?period=year&year=2026              one calendar year
  ?period=custom&from=...&to=...      arbitrary inclusive date range
  ?period=total                       employee report only: earliest
                                      employment start through today

"total" depends on the user's settings history, so parsePeriod rejects it
here and the employee handler resolves it via Reporter.TotalRange.
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/calendar"
)

const periodTotal = "total"

func parsePeriod(r *http.Request) (billing.PeriodInfo, calendar.Range, error) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "month"
	}

	today := calendar.Today()
	switch period {
	case "month":
		year, err := intParam(q.Get("year"), today.Year())
		if err != nil {
			return billing.PeriodInfo{}, calendar.Range{}, err
		}
		month, err := intParam(q.Get("month"), int(today.Month()))
		if err != nil {
			return billing.PeriodInfo{}, calendar.Range{}, err
		}
		if month < 1 || month > 12 {
			return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("month %d out of range", month)
		}
		rng := calendar.MonthOf(year, time.Month(month))
		return periodInfo("month", rng), rng, nil

	case "year":
		year, err := intParam(q.Get("year"), today.Year())
		if err != nil {
			return billing.PeriodInfo{}, calendar.Range{}, err
		}
		rng := calendar.Year(year)
		return periodInfo("year", rng), rng, nil

	case "custom":
		from, err := calendar.Parse(q.Get("from"))
		if err != nil {
			return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("from: %w", err)
		}
		to, err := calendar.Parse(q.Get("to"))
		if err != nil {
			return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("to: %w", err)
		}
		rng := calendar.NewRange(from, to)
		if !rng.IsValid() {
			return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("from %s is after to %s", from, to)
		}
		return periodInfo("custom", rng), rng, nil

	case periodTotal:
		return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("period=total is only supported on the employee report")

	default:
		return billing.PeriodInfo{}, calendar.Range{}, fmt.Errorf("unknown period %q", period)
	}
}

func periodInfo(typ string, rng calendar.Range) billing.PeriodInfo {
	return billing.PeriodInfo{Type: typ, Start: rng.Start.String(), End: rng.End.String()}
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
