package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newStore opens a store on a per-test file. A file, not ":memory:":
// the sql.DB pool may open more than one connection, and every plain
// in-memory connection is its own empty database.
func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "worklog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func datePtr(s string) *calendar.Date {
	d := calendar.MustParse(s)
	return &d
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func TestTimerFlow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: An open timer
	open, err := store.SaveTimeEntry(ctx, worklog.TimeEntry{
		ProjectID: "p1", UserID: "u1", Start: 1_750_000_000, Description: "standup", Billable: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, open.ID)

	running, err := store.RunningTimer(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, open.ID, running.ID)
	assert.True(t, running.Billable)

	// THEN: The partial unique index rejects a second open timer
	_, err = store.SaveTimeEntry(ctx, worklog.TimeEntry{ProjectID: "p1", UserID: "u1", Start: 1_750_000_100})
	assert.Error(t, err)

	// WHEN: Stopping the timer
	stopped, err := store.StopTimer(ctx, "u1", 1_750_003_600)
	require.NoError(t, err)
	require.NotNil(t, stopped)
	assert.Equal(t, int64(60), stopped.Minutes())

	// THEN: Nothing is running; a second stop returns nil without error
	again, err := store.StopTimer(ctx, "u1", 1_750_003_700)
	require.NoError(t, err)
	assert.Nil(t, again)

	// AND: A new timer may open now
	_, err = store.SaveTimeEntry(ctx, worklog.TimeEntry{ProjectID: "p1", UserID: "u1", Start: 1_750_004_000})
	assert.NoError(t, err)
}

func TestEntriesByUserBounds(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, start := range []int64{1000, 2000, 3000} {
		end := start + 600
		_, err := store.SaveTimeEntry(ctx, worklog.TimeEntry{
			ID: []string{"a", "b", "c"}[i], ProjectID: "p1", UserID: "u1", Start: start, End: &end,
		})
		require.NoError(t, err)
	}

	from, to := int64(1500), int64(2500)
	entries, err := store.EntriesByUser(ctx, "u1", &from, &to)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)

	// Nil bounds mean unbounded; order is by start ascending
	entries, err = store.EntriesByUser(ctx, "u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "c", entries[2].ID)
}

// =============================================================================
// SETTINGS PERIODS
// =============================================================================

func TestPeriodRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: A period with every nullable field set, and one with none
	full := employment.SettingsPeriod{
		UserID:              "u1",
		Type:                employment.TypeFreelance,
		WeeklyHours:         dec("20.5"),
		VacationDaysPerYear: dec("0"),
		MaxTotalHours:       decPtr("500"),
		HourlyRate:          decPtr("85.50"),
		EmploymentStart:     datePtr("2024-03-01"),
		ValidFrom:           datePtr("2024-03-01"),
		ValidTo:             datePtr("2025-12-31"),
	}
	bare := employment.SettingsPeriod{
		UserID:              "u1",
		Type:                employment.TypeContract,
		WeeklyHours:         dec("40"),
		VacationDaysPerYear: dec("24"),
	}
	saved, err := store.SavePeriod(ctx, full)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	_, err = store.SavePeriod(ctx, bare)
	require.NoError(t, err)

	// WHEN: Reading the history back
	periods, err := store.AllPeriods(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, periods, 2)

	// THEN: Decimals and dates survive exactly, nils stay nil
	got := periods[0]
	assert.Equal(t, employment.TypeFreelance, got.Type)
	assert.True(t, got.WeeklyHours.Equal(dec("20.5")))
	require.NotNil(t, got.MaxTotalHours)
	assert.True(t, got.MaxTotalHours.Equal(dec("500")))
	require.NotNil(t, got.HourlyRate)
	assert.True(t, got.HourlyRate.Equal(dec("85.50")))
	require.NotNil(t, got.EmploymentStart)
	assert.Equal(t, "2024-03-01", got.EmploymentStart.String())
	require.NotNil(t, got.ValidTo)
	assert.Equal(t, "2025-12-31", got.ValidTo.String())

	open := periods[1]
	assert.Nil(t, open.MaxTotalHours)
	assert.Nil(t, open.HourlyRate)
	assert.Nil(t, open.ValidFrom)
	assert.Nil(t, open.ValidTo)

	// AND: The open-ended record is the current one
	current, err := store.CurrentSettings(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, employment.TypeContract, current.Type)
}

func TestPeriodsInRangeFiltersByValidity(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	seed := []employment.SettingsPeriod{
		{UserID: "u1", Type: employment.TypeContract, WeeklyHours: dec("40"), VacationDaysPerYear: dec("24"), ValidFrom: datePtr("2025-01-01"), ValidTo: datePtr("2025-12-31")},
		{UserID: "u1", Type: employment.TypeStudent, WeeklyHours: dec("20"), VacationDaysPerYear: dec("20"), ValidFrom: datePtr("2026-01-01"), ValidTo: datePtr("2026-06-30")},
		{UserID: "u1", Type: employment.TypeContract, WeeklyHours: dec("35"), VacationDaysPerYear: dec("24"), ValidFrom: datePtr("2026-07-01")},
	}
	for _, p := range seed {
		_, err := store.SavePeriod(ctx, p)
		require.NoError(t, err)
	}

	// WHEN: Querying June 2026
	periods, err := store.PeriodsInRange(ctx, "u1", calendar.MonthOf(2026, 6))
	require.NoError(t, err)

	// THEN: Only the covering period qualifies
	require.Len(t, periods, 1)
	assert.Equal(t, employment.TypeStudent, periods[0].Type)

	// AND: A range spanning the July switch returns both, in stored order
	periods, err = store.PeriodsInRange(ctx, "u1",
		calendar.NewRange(calendar.MustParse("2026-06-15"), calendar.MustParse("2026-07-15")))
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, employment.TypeStudent, periods[0].Type)
	assert.True(t, periods[1].WeeklyHours.Equal(dec("35")))
}

// =============================================================================
// VACATIONS AND SICK DAYS
// =============================================================================

func TestVacationStatusUpdate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	saved, err := store.SaveVacation(ctx, absence.Vacation{
		UserID: "u1",
		Span:   calendar.NewRange(calendar.MustParse("2026-06-08"), calendar.MustParse("2026-06-12")),
		Days:   dec("5"),
		Status: absence.StatusPending,
		Notes:  "summer",
	})
	require.NoError(t, err)

	// Pending requests don't count toward the approved total
	total, err := store.ApprovedVacationDays(ctx, "u1", 2026)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	// WHEN: Approving
	updated, err := store.SetVacationStatus(ctx, saved.ID, absence.StatusApproved)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, absence.StatusApproved, updated.Status)
	assert.Equal(t, "summer", updated.Notes)

	total, err = store.ApprovedVacationDays(ctx, "u1", 2026)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("5")))

	// Unknown IDs update nothing
	missing, err := store.SetVacationStatus(ctx, "ghost", absence.StatusApproved)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAbsenceSpans(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveVacation(ctx, absence.Vacation{
		UserID: "u1",
		Span:   calendar.NewRange(calendar.MustParse("2026-06-08"), calendar.MustParse("2026-06-12")),
		Days:   dec("5"),
		Status: absence.StatusPending,
	})
	require.NoError(t, err)
	_, err = store.SaveSickDay(ctx, absence.SickDay{
		UserID: "u1",
		Span:   calendar.NewRange(calendar.MustParse("2026-07-01"), calendar.MustParse("2026-07-02")),
		Days:   dec("2"),
	})
	require.NoError(t, err)

	vacSpans, err := store.VacationSpans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, vacSpans, 1)
	assert.Equal(t, "2026-06-08", vacSpans[0].Range.Start.String())

	sickSpans, err := store.SickDaySpans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sickSpans, 1)

	sick, err := store.SickDaysInRange(ctx, "u1", calendar.MonthOf(2026, 7))
	require.NoError(t, err)
	require.Len(t, sick, 1)
	assert.True(t, sick[0].Days.Equal(dec("2")))
}

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

func TestHolidayImportIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	day := absence.PublicHoliday{Date: calendar.MustParse("2026-05-01"), Name: "Tag der Arbeit"}
	_, err := store.SaveHoliday(ctx, day)
	require.NoError(t, err)
	_, err = store.SaveHoliday(ctx, day)
	require.NoError(t, err)

	// Same date, different name is a distinct holiday
	_, err = store.SaveHoliday(ctx, absence.PublicHoliday{Date: calendar.MustParse("2026-05-01"), Name: "Maifeiertag"})
	require.NoError(t, err)

	holidays, err := store.HolidaysInRange(ctx, calendar.Year(2026))
	require.NoError(t, err)
	assert.Len(t, holidays, 2)
}

// =============================================================================
// PROJECTS, CUSTOMERS AND MULTIPLIERS
// =============================================================================

func TestProjectRoundTripAndActiveFlag(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveCustomer(ctx, billing.Customer{ID: "c1", Name: "Acme"})
	require.NoError(t, err)
	_, err = store.SaveProject(ctx, billing.Project{
		ID: "p1", CustomerID: "c1", Name: "Rollout",
		HourlyRate: decPtr("100"), BudgetHours: decPtr("120.5"),
		Start: datePtr("2026-01-01"), End: datePtr("2026-12-31"),
		Active: true, RequireDescription: true,
	})
	require.NoError(t, err)

	p, err := store.ProjectByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.HourlyRate.Equal(dec("100")))
	assert.True(t, p.BudgetHours.Equal(dec("120.5")))
	assert.True(t, p.RequireDescription)

	require.NoError(t, store.SetProjectActive(ctx, "p1", false))
	p, err = store.ProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, p.Active)

	byCustomer, err := store.ProjectsByCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)

	missing, err := store.CustomerByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMultipliersClampOnWrite(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// GIVEN: Factors outside [0.01, 2.0]
	require.NoError(t, store.SetProjectMultiplier(ctx, "p1", employment.TypeStudent, dec("5")))
	require.NoError(t, store.SetDefaultMultiplier(ctx, employment.TypeIntern, dec("0.001")))

	// THEN: The stored values are already clamped
	f, err := store.ProjectMultiplier(ctx, "p1", employment.TypeStudent)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Equal(dec("2")))

	f, err = store.DefaultMultiplier(ctx, employment.TypeIntern)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, f.Equal(dec("0.01")))

	// Unconfigured tiers read as nil
	f, err = store.ProjectMultiplier(ctx, "p1", employment.TypeContract)
	require.NoError(t, err)
	assert.Nil(t, f)

	// Upserting replaces the factor
	require.NoError(t, store.SetProjectMultiplier(ctx, "p1", employment.TypeStudent, dec("1.5")))
	f, err = store.ProjectMultiplier(ctx, "p1", employment.TypeStudent)
	require.NoError(t, err)
	assert.True(t, f.Equal(dec("1.5")))
}
