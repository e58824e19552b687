/*
reports.go - Report aggregators

PURPOSE:
  Combines time entries with settings history, multipliers and credited
  hours into the four report shapes the front-end renders: project,
  customer, employee and overview.

FIELD CONTRACT:
  The JSON names on these structs are load-bearing: "hours" and
  "billableHours" are ALWAYS multiplier-adjusted, "actualHours" and
  "actualBillableHours" are always raw. Dates are YYYY-MM-DD. Renaming any
  of them breaks the front-end.

PER-ENTRY ADJUSTMENT:
  Each entry is adjusted by the multiplier for the employment type the user
  had ON THE ENTRY'S DATE, not the type they have today. A March entry made
  as a student stays a student entry after a July switch to contract.

ROUNDING:
  Accumulation is exact decimal; every figure is rounded to 2 decimals once,
  when it is written into a report struct.

IDEMPOTENCE:
  Aggregators only read. Two runs over the same repository state produce
  identical reports.
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// ErrNotFound is returned when a report references an unknown customer or
// project. The API layer maps it to 404.
var ErrNotFound = errors.New("not found")

// =============================================================================
// REPORT SHAPES
// =============================================================================

// PeriodInfo describes the resolved reporting window.
type PeriodInfo struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Totals carries adjusted and raw hour totals plus the billed amount.
type Totals struct {
	Hours               float64 `json:"hours"`
	BillableHours       float64 `json:"billableHours"`
	ActualHours         float64 `json:"actualHours"`
	ActualBillableHours float64 `json:"actualBillableHours"`
	Amount              float64 `json:"amount"`
}

// EmployeeLine is a per-employee row inside a project report.
type EmployeeLine struct {
	UserID string `json:"userId"`
	Totals Totals `json:"totals"`
}

type ProjectReport struct {
	ProjectID   string         `json:"projectId"`
	ProjectName string         `json:"projectName"`
	CustomerID  string         `json:"customerId"`
	Period      PeriodInfo     `json:"period"`
	Totals      Totals         `json:"totals"`
	HourlyRate  *float64       `json:"hourlyRate,omitempty"`
	BudgetHours *float64       `json:"budgetHours,omitempty"`
	Employees   []EmployeeLine `json:"employees"`
}

type CustomerReport struct {
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName"`
	Period       PeriodInfo      `json:"period"`
	Totals       Totals          `json:"totals"`
	Projects     []ProjectReport `json:"projects"`
}

type OverviewReport struct {
	Period    PeriodInfo       `json:"period"`
	Totals    Totals           `json:"totals"`
	Customers []CustomerReport `json:"customers"`
}

// DaySummary is one tagged day in the employee report. Type is one of
// work/vacation/sick/holiday; absence types win over work when a date
// carries both.
type DaySummary struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Type  string  `json:"type"`
}

type CreditedSummary struct {
	VacationDays  float64 `json:"vacationDays"`
	SickDays      float64 `json:"sickDays"`
	HolidayDays   float64 `json:"holidayDays"`
	VacationHours float64 `json:"vacationHours"`
	SickHours     float64 `json:"sickHours"`
	HolidayHours  float64 `json:"holidayHours"`
	TotalDays     float64 `json:"totalCreditedDays"`
	TotalHours    float64 `json:"totalCreditedHours"`
}

type EmployeeReport struct {
	UserID         string          `json:"userId"`
	Period         PeriodInfo      `json:"period"`
	EmploymentType string          `json:"employmentType"`
	Totals         Totals          `json:"totals"`
	ExpectedHours  float64         `json:"expectedHours"`
	Credited       CreditedSummary `json:"credited"`
	EffectiveHours float64         `json:"effectiveHours"`
	Balance        float64         `json:"balance"`
	Days           []DaySummary    `json:"days"`

	// Lifetime cap, reported only when the active settings carry one.
	MaxTotalHours     *float64 `json:"maxTotalHours,omitempty"`
	LifetimeHoursUsed *float64 `json:"lifetimeHoursUsed,omitempty"`
}

// =============================================================================
// REPORTER
// =============================================================================

// Reporter wires the aggregators to their read interfaces.
type Reporter struct {
	Entries     worklog.Repository
	Projects    ProjectRepository
	Customers   CustomerRepository
	Multipliers *MultiplierResolver
	Resolver    *employment.Resolver
	Periods     employment.Repository
	Credits     *absence.CreditCalculator
}

// ProjectReport aggregates one project over a range.
func (r *Reporter) ProjectReport(ctx context.Context, projectID string, period PeriodInfo, rng calendar.Range) (ProjectReport, error) {
	project, err := r.Projects.ProjectByID(ctx, projectID)
	if err != nil {
		return ProjectReport{}, err
	}
	if project == nil {
		return ProjectReport{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}

	from, to := worklog.RangeBounds(rng)
	entries, err := r.Entries.EntriesByProject(ctx, projectID, &from, &to)
	if err != nil {
		return ProjectReport{}, err
	}
	return r.buildProjectReport(ctx, *project, period, entries)
}

func (r *Reporter) buildProjectReport(ctx context.Context, project Project, period PeriodInfo, entries []worklog.TimeEntry) (ProjectReport, error) {
	adj := newAdjuster(r)

	total := totalsAcc{}
	perUser := map[string]*totalsAcc{}
	for _, e := range entries {
		if e.Running() {
			continue
		}
		raw, adjusted, err := adj.adjust(ctx, e)
		if err != nil {
			return ProjectReport{}, err
		}
		total.addEntry(raw, adjusted, e.Billable)
		acc, ok := perUser[e.UserID]
		if !ok {
			acc = &totalsAcc{}
			perUser[e.UserID] = acc
		}
		acc.addEntry(raw, adjusted, e.Billable)
	}

	total.bill(project.HourlyRate)
	report := ProjectReport{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		CustomerID:  project.CustomerID,
		Period:      period,
		Totals:      total.totals(),
		HourlyRate:  optFloat(project.HourlyRate),
		BudgetHours: optFloat(project.BudgetHours),
	}
	for _, userID := range sortedUserIDs(perUser) {
		acc := perUser[userID]
		acc.bill(project.HourlyRate)
		report.Employees = append(report.Employees, EmployeeLine{UserID: userID, Totals: acc.totals()})
	}
	return report, nil
}

// CustomerReport aggregates every project of one customer.
func (r *Reporter) CustomerReport(ctx context.Context, customerID string, period PeriodInfo, rng calendar.Range) (CustomerReport, error) {
	customer, err := r.Customers.CustomerByID(ctx, customerID)
	if err != nil {
		return CustomerReport{}, err
	}
	if customer == nil {
		return CustomerReport{}, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}

	projects, err := r.Projects.ProjectsByCustomer(ctx, customerID)
	if err != nil {
		return CustomerReport{}, err
	}

	report := CustomerReport{CustomerID: customer.ID, CustomerName: customer.Name, Period: period}
	total := totalsAcc{}
	for _, p := range projects {
		pr, err := r.ProjectReport(ctx, p.ID, period, rng)
		if err != nil {
			return CustomerReport{}, err
		}
		report.Projects = append(report.Projects, pr)
		total.mergeTotals(pr.Totals)
	}
	report.Totals = total.totals()
	return report, nil
}

// OverviewReport aggregates all customers.
func (r *Reporter) OverviewReport(ctx context.Context, period PeriodInfo, rng calendar.Range) (OverviewReport, error) {
	customers, err := r.Customers.AllCustomers(ctx)
	if err != nil {
		return OverviewReport{}, err
	}

	report := OverviewReport{Period: period}
	total := totalsAcc{}
	for _, c := range customers {
		cr, err := r.CustomerReport(ctx, c.ID, period, rng)
		if err != nil {
			return OverviewReport{}, err
		}
		report.Customers = append(report.Customers, cr)
		total.mergeTotals(cr.Totals)
	}
	report.Totals = total.totals()
	return report, nil
}

// EmployeeReport aggregates one employee's work, overlays credited days
// and computes the expected-hours balance.
func (r *Reporter) EmployeeReport(ctx context.Context, userID string, period PeriodInfo, rng calendar.Range) (EmployeeReport, error) {
	from, to := worklog.RangeBounds(rng)
	entries, err := r.Entries.EntriesByUser(ctx, userID, &from, &to)
	if err != nil {
		return EmployeeReport{}, err
	}

	adj := newAdjuster(r)
	total := totalsAcc{}
	amount := decimal.Zero
	for _, e := range entries {
		if e.Running() {
			continue
		}
		raw, adjusted, err := adj.adjust(ctx, e)
		if err != nil {
			return EmployeeReport{}, err
		}
		total.addEntry(raw, adjusted, e.Billable)
		if e.Billable {
			project, err := adj.project(ctx, e.ProjectID)
			if err != nil {
				return EmployeeReport{}, err
			}
			if project != nil && project.HourlyRate != nil {
				amount = amount.Add(adjusted.Mul(*project.HourlyRate))
			}
		}
	}
	total.amount = amount

	agg, err := r.Resolver.AggregateOverRange(ctx, userID, rng)
	if err != nil {
		return EmployeeReport{}, err
	}

	expected := decimal.Zero
	for _, s := range agg.Shares {
		expected = expected.Add(decimal.NewFromInt(int64(s.Workdays)).Mul(s.Period.DailyHours()))
	}

	credited, err := r.Credits.CreditedHours(ctx, userID, rng, agg.DailyHours(), agg.DominantType)
	if err != nil {
		return EmployeeReport{}, err
	}

	worked := total.actual
	effective := worked.Add(credited.TotalHours)

	report := EmployeeReport{
		UserID:         userID,
		Period:         period,
		EmploymentType: string(agg.DominantType),
		Totals:         total.totals(),
		ExpectedHours:  round2(expected),
		Credited:       creditedSummary(credited),
		EffectiveHours: round2(effective),
		Balance:        round2(effective.Sub(expected)),
		Days:           r.daySummaries(entries, credited),
	}

	if err := r.attachLifetimeCap(ctx, userID, &report); err != nil {
		return EmployeeReport{}, err
	}
	return report, nil
}

// daySummaries merges worked days with credited dates, absence winning.
func (r *Reporter) daySummaries(entries []worklog.TimeEntry, credited absence.Credited) []DaySummary {
	byDay := worklog.HoursByDay(entries)

	kind := map[string]string{}
	for day := range byDay {
		kind[day.String()] = "work"
	}
	for _, d := range credited.HolidayDates {
		kind[d] = "holiday"
	}
	for _, d := range credited.SickDates {
		kind[d] = "sick"
	}
	for _, d := range credited.VacationDates {
		kind[d] = "vacation"
	}

	dates := make([]string, 0, len(kind))
	for d := range kind {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	summaries := make([]DaySummary, 0, len(dates))
	for _, d := range dates {
		hours := decimal.Zero
		if day, err := calendar.Parse(d); err == nil {
			hours = byDay[day]
		}
		summaries = append(summaries, DaySummary{Date: d, Hours: round2(hours), Type: kind[d]})
	}
	return summaries
}

// attachLifetimeCap reports hours consumed against a freelance lifetime
// cap when the active settings carry one.
func (r *Reporter) attachLifetimeCap(ctx context.Context, userID string, report *EmployeeReport) error {
	current, err := r.Periods.CurrentSettings(ctx, userID)
	if err != nil {
		return err
	}
	if current == nil || current.MaxTotalHours == nil {
		return nil
	}

	all, err := r.Entries.EntriesByUser(ctx, userID, nil, nil)
	if err != nil {
		return err
	}
	used := decimal.Zero
	for _, e := range all {
		used = used.Add(e.Hours())
	}

	capHours := round2(*current.MaxTotalHours)
	usedHours := round2(used)
	report.MaxTotalHours = &capHours
	report.LifetimeHoursUsed = &usedHours
	return nil
}

// TotalRange resolves the "total" period type: from the earliest
// employment start or validity start across all periods through today.
// Users without history get the current year to date.
func (r *Reporter) TotalRange(ctx context.Context, userID string) (calendar.Range, error) {
	periods, err := r.Periods.AllPeriods(ctx, userID)
	if err != nil {
		return calendar.Range{}, err
	}

	today := calendar.Today()
	start := calendar.Date{}
	for _, p := range periods {
		anchor := p.ValidFrom
		if p.EmploymentStart != nil {
			anchor = p.EmploymentStart
		}
		if anchor == nil {
			continue
		}
		if start.IsZero() || anchor.Before(start) {
			start = *anchor
		}
	}
	if start.IsZero() {
		start = calendar.Year(today.Year()).Start
	}
	return calendar.NewRange(start, today), nil
}

// =============================================================================
// ENTRY ADJUSTMENT
// =============================================================================

// adjuster memoizes the two lookups every entry needs: the employment type
// at the entry's date and the effective multiplier for project+type.
type adjuster struct {
	r        *Reporter
	typeAt   map[string]employment.Type
	factors  map[string]decimal.Decimal
	projects map[string]*Project
}

func newAdjuster(r *Reporter) *adjuster {
	return &adjuster{
		r:        r,
		typeAt:   map[string]employment.Type{},
		factors:  map[string]decimal.Decimal{},
		projects: map[string]*Project{},
	}
}

func (a *adjuster) adjust(ctx context.Context, e worklog.TimeEntry) (raw, adjusted decimal.Decimal, err error) {
	raw = e.Hours()

	day := e.Day()
	typeKey := e.UserID + "|" + day.String()
	typ, ok := a.typeAt[typeKey]
	if !ok {
		settings, err := a.r.Resolver.SettingsAt(ctx, e.UserID, day)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}
		typ = settings.Type
		a.typeAt[typeKey] = typ
	}

	factorKey := e.ProjectID + "|" + string(typ)
	factor, ok := a.factors[factorKey]
	if !ok {
		factor, err = a.r.Multipliers.Effective(ctx, e.ProjectID, typ)
		if err != nil {
			return decimal.Decimal{}, decimal.Decimal{}, err
		}
		a.factors[factorKey] = factor
	}

	return raw, raw.Mul(factor), nil
}

func (a *adjuster) project(ctx context.Context, projectID string) (*Project, error) {
	if p, ok := a.projects[projectID]; ok {
		return p, nil
	}
	p, err := a.r.Projects.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	a.projects[projectID] = p
	return p, nil
}

// =============================================================================
// TOTALS ACCUMULATION
// =============================================================================

// totalsAcc accumulates exact decimals; totals() is the rounding boundary.
type totalsAcc struct {
	adjusted         decimal.Decimal
	adjustedBillable decimal.Decimal
	actual           decimal.Decimal
	actualBillable   decimal.Decimal
	amount           decimal.Decimal
}

func (t *totalsAcc) addEntry(raw, adjusted decimal.Decimal, billable bool) {
	t.adjusted = t.adjusted.Add(adjusted)
	t.actual = t.actual.Add(raw)
	if billable {
		t.adjustedBillable = t.adjustedBillable.Add(adjusted)
		t.actualBillable = t.actualBillable.Add(raw)
	}
}

// bill prices the accumulated billable adjusted hours at the project rate.
func (t *totalsAcc) bill(rate *decimal.Decimal) {
	if rate != nil {
		t.amount = t.adjustedBillable.Mul(*rate)
	}
}

// mergeTotals folds an already-rounded child report into a parent total.
func (t *totalsAcc) mergeTotals(o Totals) {
	t.adjusted = t.adjusted.Add(decimal.NewFromFloat(o.Hours))
	t.adjustedBillable = t.adjustedBillable.Add(decimal.NewFromFloat(o.BillableHours))
	t.actual = t.actual.Add(decimal.NewFromFloat(o.ActualHours))
	t.actualBillable = t.actualBillable.Add(decimal.NewFromFloat(o.ActualBillableHours))
	t.amount = t.amount.Add(decimal.NewFromFloat(o.Amount))
}

func (t totalsAcc) totals() Totals {
	return Totals{
		Hours:               round2(t.adjusted),
		BillableHours:       round2(t.adjustedBillable),
		ActualHours:         round2(t.actual),
		ActualBillableHours: round2(t.actualBillable),
		Amount:              round2(t.amount),
	}
}

func creditedSummary(c absence.Credited) CreditedSummary {
	return CreditedSummary{
		VacationDays:  round2(c.VacationDays),
		SickDays:      round2(c.SickDays),
		HolidayDays:   round2(c.HolidayDays),
		VacationHours: round2(c.VacationHours),
		SickHours:     round2(c.SickHours),
		HolidayHours:  round2(c.HolidayHours),
		TotalDays:     round2(c.TotalDays),
		TotalHours:    round2(c.TotalHours),
	}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func optFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := round2(*d)
	return &f
}

func sortedUserIDs(m map[string]*totalsAcc) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
