/*
Package worklog defines time entries and their read interface.

PURPOSE:
  A TimeEntry is the raw material of every report and compliance check:
  a user worked on a project from one instant to another. Duration is always
  derived from the two instants, never stored alongside them.

INVARIANTS:
  1. At most one entry per user has a nil End (the "running timer")
  2. Duration is whole minutes: (End - Start) / 60, truncated
  3. A running entry contributes zero hours to every aggregate

The invariant in (1) is enforced by the write path (store + API), not here;
this package only exposes the Running() predicate the write path checks.
*/
package worklog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
)

// =============================================================================
// TIME ENTRY
// =============================================================================

// TimeEntry records work on a project. Start and End are unix seconds;
// a nil End means the timer is still running.
type TimeEntry struct {
	ID          string
	ProjectID   string
	UserID      string
	Start       int64
	End         *int64
	Description string
	Billable    bool
}

// Running reports whether the entry is an open timer.
func (e TimeEntry) Running() bool { return e.End == nil }

// Minutes returns the derived duration in whole minutes. Running entries
// have no duration yet.
func (e TimeEntry) Minutes() int64 {
	if e.End == nil || *e.End <= e.Start {
		return 0
	}
	return (*e.End - e.Start) / 60
}

// Hours returns the derived duration in hours as an exact decimal.
func (e TimeEntry) Hours() decimal.Decimal {
	return decimal.NewFromInt(e.Minutes()).Div(decimal.NewFromInt(60))
}

// Day returns the UTC calendar day the entry started on. Entries are
// attributed entirely to their start day, even across midnight.
func (e TimeEntry) Day() calendar.Date { return calendar.FromUnix(e.Start) }

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is the read interface the engines consume. Implementations
// return entries ordered by Start ascending.
type Repository interface {
	// EntriesByUser returns a user's entries, optionally bounded by unix timestamps.
	// Nil bounds mean unbounded on that side.
	EntriesByUser(ctx context.Context, userID string, from, to *int64) ([]TimeEntry, error)

	// EntriesByProject returns a project's entries with the same bound semantics.
	EntriesByProject(ctx context.Context, projectID string, from, to *int64) ([]TimeEntry, error)

	// RunningTimer returns the user's open timer, or nil if none.
	RunningTimer(ctx context.Context, userID string) (*TimeEntry, error)
}

// =============================================================================
// DAY GROUPING
// =============================================================================

// HoursByDay sums entry hours per calendar day. Running entries are skipped.
func HoursByDay(entries []TimeEntry) map[calendar.Date]decimal.Decimal {
	byDay := make(map[calendar.Date]decimal.Decimal)
	for _, e := range entries {
		if e.Running() {
			continue
		}
		day := e.Day()
		byDay[day] = byDay[day].Add(e.Hours())
	}
	return byDay
}

// RangeBounds converts an inclusive day range to the unix-second bounds
// repositories filter on: start of the first day through end of the last.
func RangeBounds(r calendar.Range) (from, to int64) {
	return r.Start.Unix(), r.End.AddDays(1).Unix() - 1
}
