/*
Package sqlite provides the SQLite-backed implementation of the
repository interfaces.

PURPOSE:
  Implements every read interface the engines consume (time entries,
  settings periods, vacations, sick days, holidays, projects, customers,
  multipliers) plus the thin write paths the API layer needs. The same SQL
  works on PostgreSQL with minor dialect changes.

SCHEMA NOTES:
  - Decimals (hours, days, rates, factors) are stored as TEXT and parsed
    with shopspring/decimal, so values survive round-trips exactly.
  - Dates are TEXT in YYYY-MM-DD; entry instants are INTEGER unix seconds.
  - idx_running_timer enforces at most one open timer per user at the
    database level, not just in the handler.
  - public_holidays is UNIQUE on (date, name); re-importing a year is a
    no-op.

WAL MODE:
  Opened with WAL so report reads don't block timer writes.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/worklog.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// Store implements all repository interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logrus.WithField("path", dbPath).Debug("sqlite store ready")
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		start_ts INTEGER NOT NULL,
		end_ts INTEGER,
		description TEXT NOT NULL DEFAULT '',
		billable INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_entries_user_start ON time_entries(user_id, start_ts);
	CREATE INDEX IF NOT EXISTS idx_entries_project_start ON time_entries(project_id, start_ts);

	-- At most one running timer per user.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_running_timer
		ON time_entries(user_id) WHERE end_ts IS NULL;

	CREATE TABLE IF NOT EXISTS settings_periods (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		weekly_hours TEXT NOT NULL,
		max_total_hours TEXT,
		vacation_days TEXT NOT NULL,
		hourly_rate TEXT,
		employment_start TEXT,
		valid_from TEXT,
		valid_to TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_periods_user ON settings_periods(user_id);

	CREATE TABLE IF NOT EXISTS vacations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_vacations_user ON vacations(user_id, start_date);

	CREATE TABLE IF NOT EXISTS sick_days (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_sick_days_user ON sick_days(user_id, start_date);

	CREATE TABLE IF NOT EXISTS public_holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE(date, name)
	);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		name TEXT NOT NULL,
		hourly_rate TEXT,
		budget_hours TEXT,
		start_date TEXT,
		end_date TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		require_description INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_projects_customer ON projects(customer_id);

	CREATE TABLE IF NOT EXISTS project_multipliers (
		project_id TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		factor TEXT NOT NULL,
		PRIMARY KEY (project_id, employment_type)
	);

	CREATE TABLE IF NOT EXISTS default_multipliers (
		employment_type TEXT PRIMARY KEY,
		factor TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIME ENTRIES (worklog.Repository)
// =============================================================================

const entryColumns = "id, project_id, user_id, start_ts, end_ts, description, billable"

func (s *Store) EntriesByUser(ctx context.Context, userID string, from, to *int64) ([]worklog.TimeEntry, error) {
	query := "SELECT " + entryColumns + " FROM time_entries WHERE user_id = ?"
	args := []any{userID}
	query, args = appendBounds(query, args, from, to)
	return s.queryEntries(ctx, query+" ORDER BY start_ts", args...)
}

func (s *Store) EntriesByProject(ctx context.Context, projectID string, from, to *int64) ([]worklog.TimeEntry, error) {
	query := "SELECT " + entryColumns + " FROM time_entries WHERE project_id = ?"
	args := []any{projectID}
	query, args = appendBounds(query, args, from, to)
	return s.queryEntries(ctx, query+" ORDER BY start_ts", args...)
}

func (s *Store) RunningTimer(ctx context.Context, userID string) (*worklog.TimeEntry, error) {
	entries, err := s.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM time_entries WHERE user_id = ? AND end_ts IS NULL", userID)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Store) SaveTimeEntry(ctx context.Context, e worklog.TimeEntry) (worklog.TimeEntry, error) {
	if e.ID == "" {
		e.ID = newID("entry")
	}
	var end sql.NullInt64
	if e.End != nil {
		end = sql.NullInt64{Int64: *e.End, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, project_id, user_id, start_ts, end_ts, description, billable)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			start_ts = excluded.start_ts,
			end_ts = excluded.end_ts,
			description = excluded.description,
			billable = excluded.billable`,
		e.ID, e.ProjectID, e.UserID, e.Start, end, e.Description, boolInt(e.Billable))
	if err != nil {
		return worklog.TimeEntry{}, fmt.Errorf("save time entry: %w", err)
	}
	return e, nil
}

// StopTimer closes the user's running timer, if any, and returns it.
func (s *Store) StopTimer(ctx context.Context, userID string, end int64) (*worklog.TimeEntry, error) {
	running, err := s.RunningTimer(ctx, userID)
	if err != nil || running == nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE time_entries SET end_ts = ? WHERE id = ?", end, running.ID); err != nil {
		return nil, fmt.Errorf("stop timer: %w", err)
	}
	running.End = &end
	return running, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]worklog.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []worklog.TimeEntry
	for rows.Next() {
		var e worklog.TimeEntry
		var end sql.NullInt64
		var billable int
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.UserID, &e.Start, &end, &e.Description, &billable); err != nil {
			return nil, err
		}
		if end.Valid {
			v := end.Int64
			e.End = &v
		}
		e.Billable = billable != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SETTINGS PERIODS (employment.Repository)
// =============================================================================

const periodColumns = "id, user_id, employment_type, weekly_hours, max_total_hours, vacation_days, hourly_rate, employment_start, valid_from, valid_to"

func (s *Store) PeriodsInRange(ctx context.Context, userID string, r calendar.Range) ([]employment.SettingsPeriod, error) {
	return s.queryPeriods(ctx, `
		SELECT `+periodColumns+` FROM settings_periods
		WHERE user_id = ?
		  AND (valid_from IS NULL OR valid_from <= ?)
		  AND (valid_to IS NULL OR valid_to >= ?)
		ORDER BY rowid`,
		userID, r.End.String(), r.Start.String())
}

func (s *Store) AllPeriods(ctx context.Context, userID string) ([]employment.SettingsPeriod, error) {
	return s.queryPeriods(ctx,
		"SELECT "+periodColumns+" FROM settings_periods WHERE user_id = ? ORDER BY rowid", userID)
}

func (s *Store) CurrentSettings(ctx context.Context, userID string) (*employment.SettingsPeriod, error) {
	periods, err := s.queryPeriods(ctx,
		"SELECT "+periodColumns+" FROM settings_periods WHERE user_id = ? AND valid_to IS NULL ORDER BY rowid", userID)
	if err != nil || len(periods) == 0 {
		return nil, err
	}
	return &periods[0], nil
}

func (s *Store) SavePeriod(ctx context.Context, p employment.SettingsPeriod) (employment.SettingsPeriod, error) {
	if p.ID == "" {
		p.ID = newID("period")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings_periods (`+periodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employment_type = excluded.employment_type,
			weekly_hours = excluded.weekly_hours,
			max_total_hours = excluded.max_total_hours,
			vacation_days = excluded.vacation_days,
			hourly_rate = excluded.hourly_rate,
			employment_start = excluded.employment_start,
			valid_from = excluded.valid_from,
			valid_to = excluded.valid_to`,
		p.ID, p.UserID, string(p.Type), p.WeeklyHours.String(),
		nullDecimal(p.MaxTotalHours), p.VacationDaysPerYear.String(), nullDecimal(p.HourlyRate),
		nullDate(p.EmploymentStart), nullDate(p.ValidFrom), nullDate(p.ValidTo))
	if err != nil {
		return employment.SettingsPeriod{}, fmt.Errorf("save settings period: %w", err)
	}
	return p, nil
}

func (s *Store) queryPeriods(ctx context.Context, query string, args ...any) ([]employment.SettingsPeriod, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []employment.SettingsPeriod
	for rows.Next() {
		var (
			p                            employment.SettingsPeriod
			typ, weekly, vacation        string
			maxTotal, rate               sql.NullString
			empStart, validFrom, validTo sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &typ, &weekly, &maxTotal, &vacation, &rate, &empStart, &validFrom, &validTo); err != nil {
			return nil, err
		}
		p.Type = employment.Type(typ)
		var err error
		if p.WeeklyHours, err = decimal.NewFromString(weekly); err != nil {
			return nil, fmt.Errorf("period %s weekly_hours: %w", p.ID, err)
		}
		if p.VacationDaysPerYear, err = decimal.NewFromString(vacation); err != nil {
			return nil, fmt.Errorf("period %s vacation_days: %w", p.ID, err)
		}
		if p.MaxTotalHours, err = scanDecimal(maxTotal); err != nil {
			return nil, err
		}
		if p.HourlyRate, err = scanDecimal(rate); err != nil {
			return nil, err
		}
		if p.EmploymentStart, err = scanDate(empStart); err != nil {
			return nil, err
		}
		if p.ValidFrom, err = scanDate(validFrom); err != nil {
			return nil, err
		}
		if p.ValidTo, err = scanDate(validTo); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// =============================================================================
// VACATIONS (absence.VacationRepository)
// =============================================================================

func (s *Store) VacationsInRange(ctx context.Context, userID string, r calendar.Range) ([]absence.Vacation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, days, status, notes FROM vacations
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		userID, r.End.String(), r.Start.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vacations []absence.Vacation
	for rows.Next() {
		v, err := scanVacation(rows)
		if err != nil {
			return nil, err
		}
		vacations = append(vacations, v)
	}
	return vacations, rows.Err()
}

func (s *Store) ApprovedVacationDays(ctx context.Context, userID string, year int) (decimal.Decimal, error) {
	yr := calendar.Year(year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT days FROM vacations
		WHERE user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?`,
		userID, string(absence.StatusApproved), yr.End.String(), yr.Start.String())
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var days string
		if err := rows.Scan(&days); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(days)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *Store) VacationSpans(ctx context.Context, userID string) ([]absence.Span, error) {
	return s.querySpans(ctx, "SELECT id, start_date, end_date FROM vacations WHERE user_id = ?", userID)
}

func (s *Store) SaveVacation(ctx context.Context, v absence.Vacation) (absence.Vacation, error) {
	if v.ID == "" {
		v.ID = newID("vacation")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacations (id, user_id, start_date, end_date, days, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days = excluded.days,
			status = excluded.status,
			notes = excluded.notes`,
		v.ID, v.UserID, v.Span.Start.String(), v.Span.End.String(), v.Days.String(), string(v.Status), v.Notes)
	if err != nil {
		return absence.Vacation{}, fmt.Errorf("save vacation: %w", err)
	}
	return v, nil
}

func (s *Store) SetVacationStatus(ctx context.Context, id string, status absence.VacationStatus) (*absence.Vacation, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE vacations SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return nil, fmt.Errorf("set vacation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, start_date, end_date, days, status, notes FROM vacations WHERE id = ?", id)
	v, err := scanVacation(row)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// =============================================================================
// SICK DAYS (absence.SickDayRepository)
// =============================================================================

func (s *Store) SickDaysInRange(ctx context.Context, userID string, r calendar.Range) ([]absence.SickDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, days, notes FROM sick_days
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		userID, r.End.String(), r.Start.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sickDays []absence.SickDay
	for rows.Next() {
		var (
			d                absence.SickDay
			start, end, days string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &start, &end, &days, &d.Notes); err != nil {
			return nil, err
		}
		var err error
		if d.Span, err = parseSpan(start, end); err != nil {
			return nil, err
		}
		if d.Days, err = decimal.NewFromString(days); err != nil {
			return nil, err
		}
		sickDays = append(sickDays, d)
	}
	return sickDays, rows.Err()
}

func (s *Store) SickDaySpans(ctx context.Context, userID string) ([]absence.Span, error) {
	return s.querySpans(ctx, "SELECT id, start_date, end_date FROM sick_days WHERE user_id = ?", userID)
}

func (s *Store) SaveSickDay(ctx context.Context, d absence.SickDay) (absence.SickDay, error) {
	if d.ID == "" {
		d.ID = newID("sick")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sick_days (id, user_id, start_date, end_date, days, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Span.Start.String(), d.Span.End.String(), d.Days.String(), d.Notes)
	if err != nil {
		return absence.SickDay{}, fmt.Errorf("save sick day: %w", err)
	}
	return d, nil
}

// =============================================================================
// PUBLIC HOLIDAYS (absence.HolidayRepository)
// =============================================================================

func (s *Store) HolidaysInRange(ctx context.Context, r calendar.Range) ([]absence.PublicHoliday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name FROM public_holidays
		WHERE date >= ? AND date <= ? ORDER BY date`,
		r.Start.String(), r.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []absence.PublicHoliday
	for rows.Next() {
		var h absence.PublicHoliday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name); err != nil {
			return nil, err
		}
		var err error
		if h.Date, err = calendar.Parse(date); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) SaveHoliday(ctx context.Context, h absence.PublicHoliday) (absence.PublicHoliday, error) {
	if h.ID == "" {
		h.ID = newID("holiday")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_holidays (id, date, name) VALUES (?, ?, ?)
		ON CONFLICT(date, name) DO NOTHING`,
		h.ID, h.Date.String(), h.Name)
	if err != nil {
		return absence.PublicHoliday{}, fmt.Errorf("save holiday: %w", err)
	}
	return h, nil
}

// =============================================================================
// PROJECTS & CUSTOMERS (billing repositories)
// =============================================================================

const projectColumns = "id, customer_id, name, hourly_rate, budget_hours, start_date, end_date, active, require_description"

func (s *Store) ProjectByID(ctx context.Context, id string) (*billing.Project, error) {
	projects, err := s.queryProjects(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil || len(projects) == 0 {
		return nil, err
	}
	return &projects[0], nil
}

func (s *Store) ProjectsByCustomer(ctx context.Context, customerID string) ([]billing.Project, error) {
	return s.queryProjects(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE customer_id = ? ORDER BY name", customerID)
}

func (s *Store) AllProjects(ctx context.Context) ([]billing.Project, error) {
	return s.queryProjects(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY name")
}

func (s *Store) SetProjectActive(ctx context.Context, id string, active bool) error {
	_, err := s.db.ExecContext(ctx, "UPDATE projects SET active = ? WHERE id = ?", boolInt(active), id)
	return err
}

func (s *Store) SaveProject(ctx context.Context, p billing.Project) (billing.Project, error) {
	if p.ID == "" {
		p.ID = newID("project")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			name = excluded.name,
			hourly_rate = excluded.hourly_rate,
			budget_hours = excluded.budget_hours,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			require_description = excluded.require_description`,
		p.ID, p.CustomerID, p.Name, nullDecimal(p.HourlyRate), nullDecimal(p.BudgetHours),
		nullDate(p.Start), nullDate(p.End), boolInt(p.Active), boolInt(p.RequireDescription))
	if err != nil {
		return billing.Project{}, fmt.Errorf("save project: %w", err)
	}
	return p, nil
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]billing.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []billing.Project
	for rows.Next() {
		var (
			p                   billing.Project
			rate, budget        sql.NullString
			start, end          sql.NullString
			active, requireDesc int
		)
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name, &rate, &budget, &start, &end, &active, &requireDesc); err != nil {
			return nil, err
		}
		var err error
		if p.HourlyRate, err = scanDecimal(rate); err != nil {
			return nil, err
		}
		if p.BudgetHours, err = scanDecimal(budget); err != nil {
			return nil, err
		}
		if p.Start, err = scanDate(start); err != nil {
			return nil, err
		}
		if p.End, err = scanDate(end); err != nil {
			return nil, err
		}
		p.Active = active != 0
		p.RequireDescription = requireDesc != 0
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) CustomerByID(ctx context.Context, id string) (*billing.Customer, error) {
	var c billing.Customer
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM customers WHERE id = ?", id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) AllCustomers(ctx context.Context) ([]billing.Customer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM customers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []billing.Customer
	for rows.Next() {
		var c billing.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) SaveCustomer(ctx context.Context, c billing.Customer) (billing.Customer, error) {
	if c.ID == "" {
		c.ID = newID("customer")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, c.ID, c.Name)
	if err != nil {
		return billing.Customer{}, fmt.Errorf("save customer: %w", err)
	}
	return c, nil
}

// =============================================================================
// MULTIPLIERS (billing.MultiplierRepository)
// =============================================================================

func (s *Store) ProjectMultiplier(ctx context.Context, projectID string, typ employment.Type) (*decimal.Decimal, error) {
	return s.queryFactor(ctx,
		"SELECT factor FROM project_multipliers WHERE project_id = ? AND employment_type = ?",
		projectID, string(typ))
}

func (s *Store) DefaultMultiplier(ctx context.Context, typ employment.Type) (*decimal.Decimal, error) {
	return s.queryFactor(ctx,
		"SELECT factor FROM default_multipliers WHERE employment_type = ?", string(typ))
}

func (s *Store) SetProjectMultiplier(ctx context.Context, projectID string, typ employment.Type, factor decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_multipliers (project_id, employment_type, factor) VALUES (?, ?, ?)
		ON CONFLICT(project_id, employment_type) DO UPDATE SET factor = excluded.factor`,
		projectID, string(typ), billing.ClampFactor(factor).String())
	return err
}

func (s *Store) SetDefaultMultiplier(ctx context.Context, typ employment.Type, factor decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO default_multipliers (employment_type, factor) VALUES (?, ?)
		ON CONFLICT(employment_type) DO UPDATE SET factor = excluded.factor`,
		string(typ), billing.ClampFactor(factor).String())
	return err
}

func (s *Store) queryFactor(ctx context.Context, query string, args ...any) (*decimal.Decimal, error) {
	var factor string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&factor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := decimal.NewFromString(factor)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVacation(row rowScanner) (absence.Vacation, error) {
	var (
		v                        absence.Vacation
		start, end, days, status string
	)
	if err := row.Scan(&v.ID, &v.UserID, &start, &end, &days, &status, &v.Notes); err != nil {
		return absence.Vacation{}, err
	}
	span, err := parseSpan(start, end)
	if err != nil {
		return absence.Vacation{}, err
	}
	v.Span = span
	if v.Days, err = decimal.NewFromString(days); err != nil {
		return absence.Vacation{}, err
	}
	v.Status = absence.VacationStatus(status)
	return v, nil
}

func (s *Store) querySpans(ctx context.Context, query string, args ...any) ([]absence.Span, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []absence.Span
	for rows.Next() {
		var id, start, end string
		if err := rows.Scan(&id, &start, &end); err != nil {
			return nil, err
		}
		r, err := parseSpan(start, end)
		if err != nil {
			return nil, err
		}
		spans = append(spans, absence.Span{ID: id, Range: r})
	}
	return spans, rows.Err()
}

func parseSpan(start, end string) (calendar.Range, error) {
	s, err := calendar.Parse(start)
	if err != nil {
		return calendar.Range{}, err
	}
	e, err := calendar.Parse(end)
	if err != nil {
		return calendar.Range{}, err
	}
	return calendar.NewRange(s, e), nil
}

func scanDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDate(v sql.NullString) (*calendar.Date, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := calendar.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDate(d *calendar.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func appendBounds(query string, args []any, from, to *int64) (string, []any) {
	if from != nil {
		query += " AND start_ts >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND start_ts <= ?"
		args = append(args, *to)
	}
	return query, args
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
