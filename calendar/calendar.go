/*
Package calendar provides day-granularity date arithmetic for the
reporting engine.

PURPOSE:
  Every calculation in this system — expected hours, vacation proration,
  credited hours, compliance windows — reduces to questions about calendar
  days: how many Mon-Fri workdays fall in a range, which calendar months are
  fully covered, does a date fall inside a validity window. This package
  answers those questions in one place so the engines above it stay free of
  time.Time fiddling.

KEY CONCEPTS:
  - Date:  a calendar day (no clock component, always UTC)
  - Range: an inclusive [Start, End] span of days
  - Workday: Monday through Friday; Saturdays count only for public-holiday
    crediting (six-day-week employees), never for expected-hours math

DESIGN PRINCIPLES:
  1. Inclusive ranges everywhere: [Start, End] contains both endpoints,
     matching how vacations and settings periods are stored
  2. Clamping, not erroring: intersecting a period with a reporting range
     yields an empty result, never a panic
  3. Determinism: no local timezones; a Date is the same day on every host

SEE ALSO:
  - holidays.go: moving-holiday computation (Easter) and German holidays
*/
package calendar

import (
	"fmt"
	"time"
)

// ISO is the date layout used in all reports and stored date columns.
const ISO = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	t time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates an instant to its UTC calendar day.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return New(u.Year(), u.Month(), u.Day())
}

// FromUnix truncates a unix timestamp (seconds) to its UTC calendar day.
func FromUnix(sec int64) Date {
	return FromTime(time.Unix(sec, 0))
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date { return FromTime(time.Now()) }

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.t.After(o.t) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.t.Before(o.t) }
func (d Date) IsZero() bool              { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) Unix() int64           { return d.t.Unix() }

// IsWorkday reports whether d is a Monday-Friday day.
func (d Date) IsWorkday() bool {
	wd := d.t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (d Date) IsSunday() bool { return d.t.Weekday() == time.Sunday }

func (d Date) String() string { return d.t.Format(ISO) }

func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// RANGE - Inclusive [Start, End] span of days
// =============================================================================

type Range struct {
	Start Date
	End   Date
}

func NewRange(start, end Date) Range { return Range{Start: start, End: end} }

// Year returns the calendar-year range [Jan 1, Dec 31].
func Year(year int) Range {
	return Range{Start: New(year, time.January, 1), End: New(year, time.December, 31)}
}

// MonthOf returns the calendar-month range containing [first, last] of month.
func MonthOf(year int, month time.Month) Range {
	first := New(year, month, 1)
	return Range{Start: first, End: first.AddMonths(1).AddDays(-1)}
}

func (r Range) IsValid() bool { return !r.Start.IsZero() && r.Start.BeforeOrEqual(r.End) }

func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

func (r Range) Overlaps(o Range) bool {
	return r.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(r.End)
}

// Clamp intersects r with bounds. The second return is false when the
// ranges do not overlap; the returned range is then invalid.
func (r Range) Clamp(bounds Range) (Range, bool) {
	c := Range{Start: Max(r.Start, bounds.Start), End: Min(r.End, bounds.End)}
	if c.Start.After(c.End) {
		return Range{}, false
	}
	return c, true
}

// Days returns every day in the range, in order.
func (r Range) Days() []Date {
	var days []Date
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the range, endpoints included.
func (r Range) Len() int {
	if !r.IsValid() {
		return 0
	}
	return int(r.End.t.Sub(r.Start.t).Hours()/24) + 1
}

// Workdays counts Monday-Friday days in the range.
func (r Range) Workdays() int {
	n := 0
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		if d.IsWorkday() {
			n++
		}
	}
	return n
}

// FullMonths counts calendar months fully covered by the range: a month
// counts only if the range contains its first AND its last day. This is the
// month rule for vacation entitlement proration.
func (r Range) FullMonths() int {
	if !r.IsValid() {
		return 0
	}
	n := 0
	first := New(r.Start.Year(), r.Start.Month(), 1)
	for ; first.BeforeOrEqual(r.End); first = first.AddMonths(1) {
		last := first.AddMonths(1).AddDays(-1)
		if r.Contains(first) && r.Contains(last) {
			n++
		}
	}
	return n
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
