/*
Package memory provides an in-memory implementation of every repository
interface, for tests, demos and dev mode.

Reads return copies; the engines never see shared slices. Writes take the
lock, so the store is safe for the concurrent read-mostly access pattern
of the API layer, though the engines themselves only need a consistent
snapshot per computation.
*/
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// Store holds all entities in memory.
type Store struct {
	mu sync.RWMutex

	entries     []worklog.TimeEntry
	periods     map[string][]employment.SettingsPeriod // by user, insertion order
	vacations   map[string][]absence.Vacation
	sickDays    map[string][]absence.SickDay
	holidays    []absence.PublicHoliday
	projects    []billing.Project
	customers   []billing.Customer
	projectMult map[string]decimal.Decimal // projectID|type
	defaultMult map[employment.Type]decimal.Decimal

	nextID int
}

func New() *Store {
	return &Store{
		periods:     make(map[string][]employment.SettingsPeriod),
		vacations:   make(map[string][]absence.Vacation),
		sickDays:    make(map[string][]absence.SickDay),
		projectMult: make(map[string]decimal.Decimal),
		defaultMult: make(map[employment.Type]decimal.Decimal),
	}
}

func (s *Store) genID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// =============================================================================
// TIME ENTRIES (worklog.Repository)
// =============================================================================

func (s *Store) EntriesByUser(_ context.Context, userID string, from, to *int64) ([]worklog.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []worklog.TimeEntry
	for _, e := range s.entries {
		if e.UserID == userID && inBounds(e.Start, from, to) {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (s *Store) EntriesByProject(_ context.Context, projectID string, from, to *int64) ([]worklog.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []worklog.TimeEntry
	for _, e := range s.entries {
		if e.ProjectID == projectID && inBounds(e.Start, from, to) {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (s *Store) RunningTimer(_ context.Context, userID string) (*worklog.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.UserID == userID && e.Running() {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

// SaveTimeEntry inserts or replaces an entry. Entries without an ID get one.
func (s *Store) SaveTimeEntry(_ context.Context, entry worklog.TimeEntry) (worklog.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = s.genID("entry")
	}
	for i, e := range s.entries {
		if e.ID == entry.ID {
			s.entries[i] = entry
			return entry, nil
		}
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// StopTimer closes the user's running timer at the given instant and
// returns the closed entry, or nil when no timer was running.
func (s *Store) StopTimer(_ context.Context, userID string, end int64) (*worklog.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.UserID == userID && e.Running() {
			s.entries[i].End = &end
			closed := s.entries[i]
			return &closed, nil
		}
	}
	return nil, nil
}

// =============================================================================
// SETTINGS PERIODS (employment.Repository)
// =============================================================================

func (s *Store) PeriodsInRange(_ context.Context, userID string, r calendar.Range) ([]employment.SettingsPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []employment.SettingsPeriod
	for _, p := range s.periods[userID] {
		if w, ok := p.Window(r); ok && w.IsValid() {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) AllPeriods(_ context.Context, userID string) ([]employment.SettingsPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]employment.SettingsPeriod, len(s.periods[userID]))
	copy(result, s.periods[userID])
	return result, nil
}

func (s *Store) CurrentSettings(_ context.Context, userID string) (*employment.SettingsPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.periods[userID] {
		if p.ValidTo == nil {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) AddPeriod(p employment.SettingsPeriod) employment.SettingsPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.genID("period")
	}
	s.periods[p.UserID] = append(s.periods[p.UserID], p)
	return p
}

// =============================================================================
// VACATIONS (absence.VacationRepository)
// =============================================================================

func (s *Store) VacationsInRange(_ context.Context, userID string, r calendar.Range) ([]absence.Vacation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []absence.Vacation
	for _, v := range s.vacations[userID] {
		if v.Span.Overlaps(r) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (s *Store) ApprovedVacationDays(_ context.Context, userID string, year int) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	yearRange := calendar.Year(year)
	total := decimal.Zero
	for _, v := range s.vacations[userID] {
		if v.Status == absence.StatusApproved && v.Span.Overlaps(yearRange) {
			total = total.Add(v.Days)
		}
	}
	return total, nil
}

// VacationSpans returns all of a user's vacation spans for overlap checks.
func (s *Store) VacationSpans(_ context.Context, userID string) ([]absence.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var spans []absence.Span
	for _, v := range s.vacations[userID] {
		spans = append(spans, absence.Span{ID: v.ID, Range: v.Span})
	}
	return spans, nil
}

func (s *Store) SaveVacation(_ context.Context, v absence.Vacation) (absence.Vacation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = s.genID("vacation")
	}
	for i, existing := range s.vacations[v.UserID] {
		if existing.ID == v.ID {
			s.vacations[v.UserID][i] = v
			return v, nil
		}
	}
	s.vacations[v.UserID] = append(s.vacations[v.UserID], v)
	return v, nil
}

// SetVacationStatus updates one vacation's status; single idempotent update.
func (s *Store) SetVacationStatus(_ context.Context, id string, status absence.VacationStatus) (*absence.Vacation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID := range s.vacations {
		for i, v := range s.vacations[userID] {
			if v.ID == id {
				s.vacations[userID][i].Status = status
				updated := s.vacations[userID][i]
				return &updated, nil
			}
		}
	}
	return nil, nil
}

// =============================================================================
// SICK DAYS (absence.SickDayRepository)
// =============================================================================

func (s *Store) SickDaysInRange(_ context.Context, userID string, r calendar.Range) ([]absence.SickDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []absence.SickDay
	for _, d := range s.sickDays[userID] {
		if d.Span.Overlaps(r) {
			result = append(result, d)
		}
	}
	return result, nil
}

func (s *Store) SickDaySpans(_ context.Context, userID string) ([]absence.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var spans []absence.Span
	for _, d := range s.sickDays[userID] {
		spans = append(spans, absence.Span{ID: d.ID, Range: d.Span})
	}
	return spans, nil
}

func (s *Store) SaveSickDay(_ context.Context, d absence.SickDay) (absence.SickDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = s.genID("sick")
	}
	s.sickDays[d.UserID] = append(s.sickDays[d.UserID], d)
	return d, nil
}

// =============================================================================
// PUBLIC HOLIDAYS (absence.HolidayRepository)
// =============================================================================

func (s *Store) HolidaysInRange(_ context.Context, r calendar.Range) ([]absence.PublicHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []absence.PublicHoliday
	for _, h := range s.holidays {
		if r.Contains(h.Date) {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// SaveHoliday inserts a holiday; duplicates on date+name are ignored.
func (s *Store) SaveHoliday(_ context.Context, h absence.PublicHoliday) (absence.PublicHoliday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.holidays {
		if existing.Date.Equal(h.Date) && existing.Name == h.Name {
			return existing, nil
		}
	}
	if h.ID == "" {
		h.ID = s.genID("holiday")
	}
	s.holidays = append(s.holidays, h)
	return h, nil
}

// =============================================================================
// PROJECTS & CUSTOMERS (billing repositories)
// =============================================================================

func (s *Store) ProjectByID(_ context.Context, id string) (*billing.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) ProjectsByCustomer(_ context.Context, customerID string) ([]billing.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []billing.Project
	for _, p := range s.projects {
		if p.CustomerID == customerID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) AllProjects(_ context.Context) ([]billing.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]billing.Project, len(s.projects))
	copy(result, s.projects)
	return result, nil
}

func (s *Store) SetProjectActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.projects {
		if p.ID == id {
			s.projects[i].Active = active
			return nil
		}
	}
	return nil
}

func (s *Store) AddProject(p billing.Project) billing.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.genID("project")
	}
	s.projects = append(s.projects, p)
	return p
}

func (s *Store) CustomerByID(_ context.Context, id string) (*billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) AllCustomers(_ context.Context) ([]billing.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]billing.Customer, len(s.customers))
	copy(result, s.customers)
	return result, nil
}

func (s *Store) AddCustomer(c billing.Customer) billing.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.genID("customer")
	}
	s.customers = append(s.customers, c)
	return c
}

// =============================================================================
// MULTIPLIERS (billing.MultiplierRepository)
// =============================================================================

func (s *Store) ProjectMultiplier(_ context.Context, projectID string, typ employment.Type) (*decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.projectMult[projectID+"|"+string(typ)]; ok {
		factor := f
		return &factor, nil
	}
	return nil, nil
}

func (s *Store) DefaultMultiplier(_ context.Context, typ employment.Type) (*decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.defaultMult[typ]; ok {
		factor := f
		return &factor, nil
	}
	return nil, nil
}

func (s *Store) SetProjectMultiplier(projectID string, typ employment.Type, factor decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectMult[projectID+"|"+string(typ)] = billing.ClampFactor(factor)
}

func (s *Store) SetDefaultMultiplier(typ employment.Type, factor decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultMult[typ] = billing.ClampFactor(factor)
}

// =============================================================================
// HELPERS
// =============================================================================

func inBounds(ts int64, from, to *int64) bool {
	if from != nil && ts < *from {
		return false
	}
	if to != nil && ts > *to {
		return false
	}
	return true
}

func sortEntries(entries []worklog.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })
}
