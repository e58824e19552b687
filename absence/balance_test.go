package absence

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubPeriods struct {
	periods []employment.SettingsPeriod
}

func (s *stubPeriods) PeriodsInRange(_ context.Context, userID string, r calendar.Range) ([]employment.SettingsPeriod, error) {
	var out []employment.SettingsPeriod
	for _, p := range s.periods {
		if p.UserID != userID {
			continue
		}
		if _, ok := p.Window(r); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPeriods) AllPeriods(_ context.Context, userID string) ([]employment.SettingsPeriod, error) {
	var out []employment.SettingsPeriod
	for _, p := range s.periods {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPeriods) CurrentSettings(_ context.Context, userID string) (*employment.SettingsPeriod, error) {
	for _, p := range s.periods {
		if p.UserID == userID && p.ValidTo == nil {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

type stubVacations struct {
	vacations []Vacation
}

func (s *stubVacations) VacationsInRange(_ context.Context, userID string, r calendar.Range) ([]Vacation, error) {
	var out []Vacation
	for _, v := range s.vacations {
		if v.UserID == userID && v.Span.Overlaps(r) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *stubVacations) ApprovedVacationDays(_ context.Context, userID string, year int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range s.vacations {
		if v.UserID == userID && v.Status == StatusApproved && v.Span.Overlaps(calendar.Year(year)) {
			total = total.Add(v.Days)
		}
	}
	return total, nil
}

func datePtr(s string) *calendar.Date {
	d := calendar.MustParse(s)
	return &d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hirePeriod(userID, hired string, vacationDays string) employment.SettingsPeriod {
	return employment.SettingsPeriod{
		UserID:              userID,
		Type:                employment.TypeContract,
		WeeklyHours:         dec("40"),
		VacationDaysPerYear: dec(vacationDays),
		EmploymentStart:     datePtr(hired),
		ValidFrom:           datePtr(hired),
	}
}

// =============================================================================
// PRORATED ENTITLEMENT
// =============================================================================

func TestEntitlementFullYearEqualsAnnualAllotment(t *testing.T) {
	// GIVEN: A period covering the entire year with 24 days/year
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2024-01-01", "24")}},
		&stubVacations{},
	)

	// WHEN: Prorating 2025
	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: All 12 months count, entitlement equals the annual figure
	if !got.Equal(dec("24")) {
		t.Errorf("entitlement = %s, want 24", got)
	}
}

func TestEntitlementMidYearHire(t *testing.T) {
	// GIVEN: Hired July 1 with 24 days/year
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2025-07-01", "24")}},
		&stubVacations{},
	)

	// WHEN: Prorating the hire year
	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: 6 full months -> 24 * 6/12 = 12
	if !got.Equal(dec("12")) {
		t.Errorf("entitlement = %s, want 12", got)
	}
}

func TestEntitlementMidMonthHireDropsPartialMonth(t *testing.T) {
	// GIVEN: Hired July 15
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2025-07-15", "24")}},
		&stubVacations{},
	)

	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: July is not fully covered; only Aug-Dec count -> 10
	if !got.Equal(dec("10")) {
		t.Errorf("entitlement = %s, want 10", got)
	}
}

func TestEntitlementSplitPeriodsAreAdditive(t *testing.T) {
	// GIVEN: 24 days/year Jan-Jun, 30 days/year Jul-Dec
	first := hirePeriod("u1", "2024-01-01", "24")
	first.ValidTo = datePtr("2025-06-30")
	second := employment.SettingsPeriod{
		UserID:              "u1",
		Type:                employment.TypeContract,
		WeeklyHours:         dec("40"),
		VacationDaysPerYear: dec("30"),
		ValidFrom:           datePtr("2025-07-01"),
	}
	calc := NewBalanceCalculator(&stubPeriods{periods: []employment.SettingsPeriod{first, second}}, &stubVacations{})

	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: 24*6/12 + 30*6/12 = 27
	if !got.Equal(dec("27")) {
		t.Errorf("entitlement = %s, want 27", got)
	}
}

func TestEntitlementFreelanceContributesNothing(t *testing.T) {
	// GIVEN: A freelance period with zero allotment
	p := hirePeriod("u1", "2024-01-01", "0")
	p.Type = employment.TypeFreelance
	calc := NewBalanceCalculator(&stubPeriods{periods: []employment.SettingsPeriod{p}}, &stubVacations{})

	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("entitlement = %s, want 0", got)
	}
}

func TestEntitlementNoHistoryUsesFlatCurrentAllotment(t *testing.T) {
	// GIVEN: A user whose only record starts after the queried year
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2027-01-01", "28")}},
		&stubVacations{},
	)

	// WHEN: Prorating a year with no overlapping period
	got, err := calc.ProratedEntitlement(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: The current record's flat annual figure applies, unprorated
	if !got.Equal(dec("28")) {
		t.Errorf("entitlement = %s, want 28", got)
	}
}

// =============================================================================
// CARRY-OVER AND BALANCE
// =============================================================================

func vacation(userID, start, end string, days string, status VacationStatus) Vacation {
	return Vacation{
		UserID: userID,
		Span:   calendar.NewRange(calendar.MustParse(start), calendar.MustParse(end)),
		Days:   dec(days),
		Status: status,
	}
}

func TestBalanceCarriesOverUnusedDays(t *testing.T) {
	// GIVEN: Hired 2024 with 24 days/year, 20 approved days taken in 2024
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2024-01-01", "24")}},
		&stubVacations{vacations: []Vacation{
			vacation("u1", "2024-08-01", "2024-08-27", "20", StatusApproved),
		}},
	)

	// WHEN: Computing the 2025 balance
	b, err := calc.Balance(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: 4 unused days carry into 2025
	if !b.CarryOver.Equal(dec("4")) {
		t.Errorf("carry-over = %s, want 4", b.CarryOver)
	}
	if !b.Available.Equal(dec("28")) {
		t.Errorf("available = %s, want 28", b.Available)
	}
}

func TestBalanceOverspentYearCarriesDebt(t *testing.T) {
	// GIVEN: 30 approved days against a 24-day entitlement in 2024
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2024-01-01", "24")}},
		&stubVacations{vacations: []Vacation{
			vacation("u1", "2024-06-02", "2024-07-11", "30", StatusApproved),
		}},
	)

	b, err := calc.Balance(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: The overdraft carries forward as negative carry-over
	if !b.CarryOver.Equal(dec("-6")) {
		t.Errorf("carry-over = %s, want -6", b.CarryOver)
	}
}

func TestBalanceCarryOverIsAdditiveAcrossYears(t *testing.T) {
	// GIVEN: Hired 2023, 24 days/year, 20 used in 2023 and 22 in 2024
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2023-01-01", "24")}},
		&stubVacations{vacations: []Vacation{
			vacation("u1", "2023-08-01", "2023-08-27", "20", StatusApproved),
			vacation("u1", "2024-08-01", "2024-08-29", "22", StatusApproved),
		}},
	)

	b, err := calc.Balance(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: (24-20) + (24-22) = 6
	if !b.CarryOver.Equal(dec("6")) {
		t.Errorf("carry-over = %s, want 6", b.CarryOver)
	}
}

func TestBalanceSeparatesUsedAndPending(t *testing.T) {
	// GIVEN: One approved and one pending vacation in the target year
	calc := NewBalanceCalculator(
		&stubPeriods{periods: []employment.SettingsPeriod{hirePeriod("u1", "2025-01-01", "24")}},
		&stubVacations{vacations: []Vacation{
			vacation("u1", "2025-03-03", "2025-03-07", "5", StatusApproved),
			vacation("u1", "2025-09-01", "2025-09-05", "5", StatusPending),
			vacation("u1", "2025-10-06", "2025-10-10", "5", StatusRejected),
		}},
	)

	// WHEN: Computing the balance
	b, err := calc.Balance(context.Background(), "u1", 2025)
	if err != nil {
		t.Fatal(err)
	}

	// THEN: Rejected requests count nowhere; pending reduces Remaining only
	if !b.Used.Equal(dec("5")) || !b.Pending.Equal(dec("5")) {
		t.Errorf("used = %s, pending = %s", b.Used, b.Pending)
	}
	if !b.Available.Equal(dec("19")) {
		t.Errorf("available = %s, want 19", b.Available)
	}
	if !b.Remaining.Equal(dec("14")) {
		t.Errorf("remaining = %s, want 14", b.Remaining)
	}
}

// =============================================================================
// OVERLAP VALIDATION
// =============================================================================

func TestCheckOverlap(t *testing.T) {
	existing := []Span{
		{ID: "v1", Range: calendar.NewRange(calendar.MustParse("2025-07-01"), calendar.MustParse("2025-07-10"))},
	}

	// GIVEN: A candidate touching the existing span
	err := CheckOverlap(existing, calendar.NewRange(calendar.MustParse("2025-07-10"), calendar.MustParse("2025-07-15")), "")

	// THEN: A typed conflict identifying the collision
	var conflict *SpanConflictError
	if err == nil {
		t.Fatal("expected conflict")
	}
	if !errors.As(err, &conflict) || conflict.ExistingID != "v1" {
		t.Errorf("unexpected error: %v", err)
	}

	// AND: Excluding the record being updated clears the conflict
	if err := CheckOverlap(existing, calendar.NewRange(calendar.MustParse("2025-07-05"), calendar.MustParse("2025-07-08")), "v1"); err != nil {
		t.Errorf("self-overlap should be allowed on update: %v", err)
	}

	// AND: Disjoint spans pass
	if err := CheckOverlap(existing, calendar.NewRange(calendar.MustParse("2025-07-11"), calendar.MustParse("2025-07-15")), ""); err != nil {
		t.Errorf("disjoint span rejected: %v", err)
	}
}
