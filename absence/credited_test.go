package absence

import (
	"context"
	"testing"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubSickDays struct {
	sickDays []SickDay
}

func (s *stubSickDays) SickDaysInRange(_ context.Context, userID string, r calendar.Range) ([]SickDay, error) {
	var out []SickDay
	for _, d := range s.sickDays {
		if d.UserID == userID && d.Span.Overlaps(r) {
			out = append(out, d)
		}
	}
	return out, nil
}

type stubHolidays struct {
	holidays []PublicHoliday
}

func (s *stubHolidays) HolidaysInRange(_ context.Context, r calendar.Range) ([]PublicHoliday, error) {
	var out []PublicHoliday
	for _, h := range s.holidays {
		if r.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out, nil
}

func newCreditCalc(vacations []Vacation, sickDays []SickDay, holidays []PublicHoliday) *CreditCalculator {
	return NewCreditCalculator(
		&stubVacations{vacations: vacations},
		&stubSickDays{sickDays: sickDays},
		&stubHolidays{holidays: holidays},
	)
}

func holiday(date, name string) PublicHoliday {
	return PublicHoliday{Date: calendar.MustParse(date), Name: name}
}

var may2025 = calendar.MonthOf(2025, 5)

// =============================================================================
// CATEGORY RULES
// =============================================================================

func TestCreditedHoursBasicCategories(t *testing.T) {
	// GIVEN: An approved vacation, a sick day and a workday holiday in May
	calc := newCreditCalc(
		[]Vacation{vacation("u1", "2025-05-05", "2025-05-09", "5", StatusApproved)},
		[]SickDay{{UserID: "u1", Span: calendar.NewRange(calendar.MustParse("2025-05-12"), calendar.MustParse("2025-05-13")), Days: dec("2")}},
		[]PublicHoliday{holiday("2025-05-01", "Tag der Arbeit")}, // a Thursday
	)

	// WHEN: Crediting a contract employee at 8h/day
	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Each category counts, hours are days * dailyHours
	if !c.VacationDays.Equal(dec("5")) || !c.SickDays.Equal(dec("2")) || !c.HolidayDays.Equal(dec("1")) {
		t.Errorf("days = %s/%s/%s", c.VacationDays, c.SickDays, c.HolidayDays)
	}
	if !c.TotalDays.Equal(dec("8")) || !c.TotalHours.Equal(dec("64")) {
		t.Errorf("total = %s days / %s hours", c.TotalDays, c.TotalHours)
	}
	if len(c.VacationDates) != 5 || len(c.SickDates) != 2 || len(c.HolidayDates) != 1 {
		t.Errorf("dates = %v / %v / %v", c.VacationDates, c.SickDates, c.HolidayDates)
	}
}

func TestCreditedHoursPendingVacationIgnored(t *testing.T) {
	// GIVEN: A pending vacation request
	calc := newCreditCalc(
		[]Vacation{vacation("u1", "2025-05-05", "2025-05-09", "5", StatusPending)},
		nil, nil,
	)

	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Nothing is credited until approval
	if !c.TotalDays.IsZero() {
		t.Errorf("total days = %s, want 0", c.TotalDays)
	}
}

func TestCreditedHoursDeduplication(t *testing.T) {
	// GIVEN: A holiday falling inside an approved vacation span
	calc := newCreditCalc(
		[]Vacation{vacation("u1", "2025-04-28", "2025-05-02", "5", StatusApproved)},
		nil,
		[]PublicHoliday{holiday("2025-05-01", "Tag der Arbeit")},
	)

	// WHEN: Crediting May
	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: May 1 counts once, as vacation; the holiday category stays empty
	if !c.HolidayDays.IsZero() || len(c.HolidayDates) != 0 {
		t.Errorf("holiday double-counted: %s days, dates %v", c.HolidayDays, c.HolidayDates)
	}
	// The vacation's Days figure is credited in full, its dates clamped to May.
	if !c.VacationDays.Equal(dec("5")) || len(c.VacationDates) != 2 {
		t.Errorf("vacation = %s days, dates %v", c.VacationDays, c.VacationDates)
	}
}

func TestCreditedHoursSickBehindVacation(t *testing.T) {
	// GIVEN: A sick span overlapping an approved vacation
	calc := newCreditCalc(
		[]Vacation{vacation("u1", "2025-05-05", "2025-05-06", "2", StatusApproved)},
		[]SickDay{{UserID: "u1", Span: calendar.NewRange(calendar.MustParse("2025-05-06"), calendar.MustParse("2025-05-07")), Days: dec("2")}},
		nil,
	)

	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: The shared date is tagged vacation; only May 7 remains sick
	if len(c.SickDates) != 1 || c.SickDates[0] != "2025-05-07" {
		t.Errorf("sick dates = %v", c.SickDates)
	}
}

func TestCreditedHoursSundayHolidayNotCredited(t *testing.T) {
	// GIVEN: A holiday on a Sunday (June 8 2025 is Whit Sunday)
	calc := newCreditCalc(nil, nil, []PublicHoliday{holiday("2025-06-08", "Pfingstsonntag")})

	c, err := calc.CreditedHours(context.Background(), "u1", calendar.MonthOf(2025, 6), dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Sundays credit no one
	if !c.HolidayDays.IsZero() {
		t.Errorf("Sunday holiday credited: %s", c.HolidayDays)
	}
}

func TestCreditedHoursSaturdayHolidayCredited(t *testing.T) {
	// GIVEN: A holiday on a Saturday (May 31 2025)
	calc := newCreditCalc(nil, nil, []PublicHoliday{holiday("2025-05-31", "Brückenfest")})

	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Saturday holidays count (six-day-week employees)
	if !c.HolidayDays.Equal(dec("1")) {
		t.Errorf("Saturday holiday not credited: %s", c.HolidayDays)
	}
}

func TestCreditedHoursCapabilityGating(t *testing.T) {
	sick := []SickDay{{UserID: "u1", Span: calendar.NewRange(calendar.MustParse("2025-05-12"), calendar.MustParse("2025-05-13")), Days: dec("2")}}
	holidays := []PublicHoliday{holiday("2025-05-01", "Tag der Arbeit")}

	// GIVEN: An intern (no sick pay, no holiday credit)
	calc := newCreditCalc(nil, sick, holidays)
	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeIntern)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Neither category credits anything
	if !c.SickDays.IsZero() || !c.HolidayDays.IsZero() {
		t.Errorf("intern credited sick=%s holiday=%s", c.SickDays, c.HolidayDays)
	}

	// AND: A freelancer is credited nothing at all
	vac := []Vacation{vacation("u1", "2025-05-05", "2025-05-09", "5", StatusApproved)}
	calc = newCreditCalc(vac, sick, holidays)
	c, err = calc.CreditedHours(context.Background(), "u1", may2025, dec("8"), employment.TypeFreelance)
	if err != nil {
		t.Fatal(err)
	}
	// Vacation crediting is not capability-gated here; freelancers simply
	// have no approved vacations in practice, so only sick and holiday are
	// suppressed by the table.
	if !c.SickDays.IsZero() || !c.HolidayDays.IsZero() {
		t.Errorf("freelance credited sick=%s holiday=%s", c.SickDays, c.HolidayDays)
	}
}

func TestCreditedHoursRounding(t *testing.T) {
	// GIVEN: A 38h week (7.6h/day) and 3 vacation days
	calc := newCreditCalc(
		[]Vacation{vacation("u1", "2025-05-05", "2025-05-07", "3", StatusApproved)},
		nil, nil,
	)

	c, err := calc.CreditedHours(context.Background(), "u1", may2025, dec("7.6"), employment.TypeContract)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: 3 * 7.6 = 22.8, rounded to 2 decimals at the category boundary
	if !c.VacationHours.Equal(dec("22.8")) || !c.TotalHours.Equal(dec("22.8")) {
		t.Errorf("hours = %s / %s", c.VacationHours, c.TotalHours)
	}
}
