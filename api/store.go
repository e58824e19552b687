/*
store.go - The persistence surface the HTTP layer depends on

One interface aggregating every read repository the engines consume plus
the thin write paths the handlers trigger. Both store/memory and
store/sqlite satisfy it, so api tests run against the in-memory store
and production runs against SQLite without the handlers noticing.
*/
package api

import (
	"context"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// Store is everything the handlers need from persistence.
type Store interface {
	worklog.Repository
	employment.Repository
	absence.VacationRepository
	absence.SickDayRepository
	absence.HolidayRepository
	billing.ProjectRepository
	billing.CustomerRepository
	billing.MultiplierRepository

	// Timer writes.
	SaveTimeEntry(ctx context.Context, e worklog.TimeEntry) (worklog.TimeEntry, error)
	StopTimer(ctx context.Context, userID string, end int64) (*worklog.TimeEntry, error)

	// Absence writes. The *Spans reads feed overlap validation.
	SaveVacation(ctx context.Context, v absence.Vacation) (absence.Vacation, error)
	SetVacationStatus(ctx context.Context, id string, status absence.VacationStatus) (*absence.Vacation, error)
	VacationSpans(ctx context.Context, userID string) ([]absence.Span, error)
	SaveSickDay(ctx context.Context, d absence.SickDay) (absence.SickDay, error)
	SickDaySpans(ctx context.Context, userID string) ([]absence.Span, error)
	SaveHoliday(ctx context.Context, h absence.PublicHoliday) (absence.PublicHoliday, error)
}
