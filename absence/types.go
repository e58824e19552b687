/*
Package absence models vacations, sick days and public holidays, and
computes their effect on an employee's hour balance.

KEY CONCEPTS:
  - Vacation/SickDay: inclusive calendar-date spans with an explicit Days
    figure. Days is entered, not derived from the span, because six-day-week
    employees consume a different number of days than the span suggests.
  - PublicHoliday: a single explicit date, imported per year; no recurrence.
  - Overlap invariant: no two absence records for one user may overlap,
    checked before insert/update, exclusive of the record being updated.

SEE ALSO:
  - credited.go: day-to-hour conversion with cross-category deduplication
  - balance.go: prorated entitlement and carry-over arithmetic
*/
package absence

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
)

// =============================================================================
// ENTITIES
// =============================================================================

type VacationStatus string

const (
	StatusPending  VacationStatus = "pending"
	StatusApproved VacationStatus = "approved"
	StatusRejected VacationStatus = "rejected"
)

// Vacation is a requested or taken vacation span.
type Vacation struct {
	ID     string
	UserID string
	Span   calendar.Range
	Days   decimal.Decimal
	Status VacationStatus
	Notes  string
}

// SickDay is a reported sick-leave span. Sick leave has no approval
// workflow; it is recorded as fact.
type SickDay struct {
	ID     string
	UserID string
	Span   calendar.Range
	Days   decimal.Decimal
	Notes  string
}

// PublicHoliday is one explicitly imported holiday date.
type PublicHoliday struct {
	ID   string
	Date calendar.Date
	Name string
}

// =============================================================================
// REPOSITORIES
// =============================================================================

type VacationRepository interface {
	// VacationsInRange returns vacations whose span overlaps r, any status.
	VacationsInRange(ctx context.Context, userID string, r calendar.Range) ([]Vacation, error)

	// ApprovedVacationDays sums the Days field of approved vacations
	// overlapping the calendar year.
	ApprovedVacationDays(ctx context.Context, userID string, year int) (decimal.Decimal, error)
}

type SickDayRepository interface {
	SickDaysInRange(ctx context.Context, userID string, r calendar.Range) ([]SickDay, error)
}

type HolidayRepository interface {
	HolidaysInRange(ctx context.Context, r calendar.Range) ([]PublicHoliday, error)
}

// =============================================================================
// OVERLAP VALIDATION
// =============================================================================

// ErrSpanConflict marks a date-range collision with an existing record.
// It is a validation outcome, not control flow; callers map it to a
// conflict response.
var ErrSpanConflict = errors.New("absence span conflicts with an existing record")

// SpanConflictError identifies the record a candidate span collides with.
type SpanConflictError struct {
	ExistingID string
	Existing   calendar.Range
	Candidate  calendar.Range
}

func (e *SpanConflictError) Error() string {
	return fmt.Sprintf("span %s overlaps existing record %s %s", e.Candidate, e.ExistingID, e.Existing)
}

func (e *SpanConflictError) Unwrap() error { return ErrSpanConflict }

// Span is the minimal shape overlap checking needs; Vacation and SickDay
// records are adapted to it by the write path.
type Span struct {
	ID    string
	Range calendar.Range
}

// CheckOverlap validates a candidate span against a user's existing spans,
// excluding the record being updated (by ID). Returns a *SpanConflictError
// on the first collision.
func CheckOverlap(existing []Span, candidate calendar.Range, excludeID string) error {
	for _, s := range existing {
		if s.ID == excludeID {
			continue
		}
		if s.Range.Overlaps(candidate) {
			return &SpanConflictError{ExistingID: s.ID, Existing: s.Range, Candidate: candidate}
		}
	}
	return nil
}
