/*
handlers.go - HTTP API handlers for the worklog reporting engine

PURPOSE:
  Exposes the reporting and compliance engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reports:
    GET  /api/reports/project/{id}      Project report
    GET  /api/reports/customer/{id}     Customer report
    GET  /api/reports/employee/{userId} Employee report (supports period=total)
    GET  /api/reports/overview          All customers

  Compliance:
    GET  /api/compliance/{userId}       ArbZG check, or exemption notice

  Vacations:
    GET  /api/vacations                 List by user and year
    POST /api/vacations                 Create (overlap-checked)
    POST /api/vacations/{id}/approve    Approve pending request
    POST /api/vacations/{id}/reject     Reject pending request
    GET  /api/users/{userId}/vacation-balance  Yearly balance

  Sick days:
    GET  /api/sickdays                  List by user and year
    POST /api/sickdays                  Create (overlap-checked)

  Holidays:
    GET  /api/holidays                  List by year
    POST /api/holidays                  Import one holiday
    POST /api/holidays/generate         Import the German set for a year

  Timers:
    GET  /api/timers/current            The user's running timer, if any
    POST /api/timers/start              Open a timer (conflict if one runs)
    POST /api/timers/stop               Close the running timer

  Admin:
    POST /api/admin/projects/reconcile  Deactivate expired projects

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (overlapping absence, timer already running)
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware; identity and roles are platform-supplied
  upstream of this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - period.go: Reporting-period query parsing
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/billing"
	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/compliance"
	"github.com/clockwerk/worklog-engine/employment"
	"github.com/clockwerk/worklog-engine/worklog"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Resolver   *employment.Resolver
	Reporter   *billing.Reporter
	Balances   *absence.BalanceCalculator
	Compliance *compliance.Checker
	Reconciler *billing.ProjectReconciler

	// Now is overridable for tests.
	Now func() time.Time
}

// NewHandler wires the engines onto one store.
func NewHandler(store Store) *Handler {
	resolver := employment.NewResolver(store)
	credits := absence.NewCreditCalculator(store, store, store)
	return &Handler{
		Store:    store,
		Resolver: resolver,
		Reporter: &billing.Reporter{
			Entries:     store,
			Projects:    store,
			Customers:   store,
			Multipliers: billing.NewMultiplierResolver(store),
			Resolver:    resolver,
			Periods:     store,
			Credits:     credits,
		},
		Balances:   absence.NewBalanceCalculator(store, store),
		Compliance: compliance.NewChecker(store),
		Reconciler: billing.NewProjectReconciler(store),
		Now:        time.Now,
	}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetProjectReport returns the project report for the requested period.
func (h *Handler) GetProjectReport(w http.ResponseWriter, r *http.Request) {
	period, rng, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	report, err := h.Reporter.ProjectReport(r.Context(), chi.URLParam(r, "id"), period, rng)
	if err != nil {
		writeDomainError(w, "Failed to build project report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetCustomerReport returns the customer report for the requested period.
func (h *Handler) GetCustomerReport(w http.ResponseWriter, r *http.Request) {
	period, rng, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	report, err := h.Reporter.CustomerReport(r.Context(), chi.URLParam(r, "id"), period, rng)
	if err != nil {
		writeDomainError(w, "Failed to build customer report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetOverviewReport aggregates every customer for the requested period.
func (h *Handler) GetOverviewReport(w http.ResponseWriter, r *http.Request) {
	period, rng, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	report, err := h.Reporter.OverviewReport(r.Context(), period, rng)
	if err != nil {
		writeDomainError(w, "Failed to build overview report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetEmployeeReport returns one employee's report. This is the only
// endpoint supporting period=total.
func (h *Handler) GetEmployeeReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var (
		period billing.PeriodInfo
		rng    calendar.Range
		err    error
	)
	if r.URL.Query().Get("period") == periodTotal {
		rng, err = h.Reporter.TotalRange(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve total range", err)
			return
		}
		period = periodInfo(periodTotal, rng)
	} else {
		period, rng, err = parsePeriod(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
	}

	report, err := h.Reporter.EmployeeReport(r.Context(), userID, period, rng)
	if err != nil {
		writeDomainError(w, "Failed to build employee report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// COMPLIANCE HANDLER
// =============================================================================

// CheckCompliance runs the ArbZG check over the requested period. Exempt
// employment categories get an exemption notice instead of findings; the
// decision is made here, not in the engine.
func (h *Handler) CheckCompliance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	_, rng, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	agg, err := h.Resolver.AggregateOverRange(r.Context(), userID, rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve settings", err)
		return
	}
	if reason, exempt := agg.DominantType.ComplianceExemption(); exempt {
		writeJSON(w, http.StatusOK, ExemptionDTO{
			UserID:         userID,
			EmploymentType: string(agg.DominantType),
			Exempt:         true,
			Reason:         reason,
		})
		return
	}

	result, err := h.Compliance.Check(r.Context(), userID, rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Compliance check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toComplianceDTO(result))
}

// =============================================================================
// VACATION HANDLERS
// =============================================================================

// ListVacations returns a user's vacations overlapping one year.
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	year, err := intParam(r.URL.Query().Get("year"), calendar.Today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	vacations, err := h.Store.VacationsInRange(r.Context(), userID, calendar.Year(year))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vacations", err)
		return
	}

	dtos := make([]VacationDTO, 0, len(vacations))
	for _, v := range vacations {
		dtos = append(dtos, toVacationDTO(v))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVacation stores a vacation request after overlap validation
// against the user's existing vacations and sick days. Admin-created
// records are approved immediately.
func (h *Handler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var req CreateVacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	span, err := parseSpan(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	if req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive", nil)
		return
	}

	if err := h.checkAbsenceOverlap(r, req.UserID, span, ""); err != nil {
		writeDomainError(w, "Vacation conflicts with an existing absence", err)
		return
	}

	status := absence.StatusPending
	if req.AsAdmin {
		status = absence.StatusApproved
	}
	saved, err := h.Store.SaveVacation(r.Context(), absence.Vacation{
		UserID: req.UserID,
		Span:   span,
		Days:   decimal.NewFromFloat(req.Days),
		Status: status,
		Notes:  req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save vacation", err)
		return
	}

	logrus.WithFields(logrus.Fields{"user": req.UserID, "span": span.String(), "status": status}).
		Info("vacation created")
	writeJSON(w, http.StatusCreated, toVacationDTO(saved))
}

// ApproveVacation marks a pending request approved.
func (h *Handler) ApproveVacation(w http.ResponseWriter, r *http.Request) {
	h.setVacationStatus(w, r, absence.StatusApproved)
}

// RejectVacation marks a pending request rejected.
func (h *Handler) RejectVacation(w http.ResponseWriter, r *http.Request) {
	h.setVacationStatus(w, r, absence.StatusRejected)
}

func (h *Handler) setVacationStatus(w http.ResponseWriter, r *http.Request, status absence.VacationStatus) {
	id := chi.URLParam(r, "id")
	updated, err := h.Store.SetVacationStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update vacation", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Vacation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTO(*updated))
}

// GetVacationBalance returns the yearly vacation account: prorated
// entitlement, carry-over, usage.
func (h *Handler) GetVacationBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	year, err := intParam(r.URL.Query().Get("year"), calendar.Today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	balance, err := h.Balances.Balance(r.Context(), userID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:      userID,
		Year:        balance.Year,
		Entitlement: toFloat(balance.Entitlement),
		CarryOver:   toFloat(balance.CarryOver),
		Used:        toFloat(balance.Used),
		Pending:     toFloat(balance.Pending),
		Remaining:   toFloat(balance.Remaining),
		Available:   toFloat(balance.Available),
	})
}

// =============================================================================
// SICK DAY HANDLERS
// =============================================================================

// ListSickDays returns a user's sick days overlapping one year.
func (h *Handler) ListSickDays(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	year, err := intParam(r.URL.Query().Get("year"), calendar.Today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	sickDays, err := h.Store.SickDaysInRange(r.Context(), userID, calendar.Year(year))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sick days", err)
		return
	}

	dtos := make([]SickDayDTO, 0, len(sickDays))
	for _, d := range sickDays {
		dtos = append(dtos, toSickDayDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSickDay records a sick-leave span after overlap validation.
func (h *Handler) CreateSickDay(w http.ResponseWriter, r *http.Request) {
	var req CreateSickDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	span, err := parseSpan(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	if req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive", nil)
		return
	}

	if err := h.checkAbsenceOverlap(r, req.UserID, span, ""); err != nil {
		writeDomainError(w, "Sick day conflicts with an existing absence", err)
		return
	}

	saved, err := h.Store.SaveSickDay(r.Context(), absence.SickDay{
		UserID: req.UserID,
		Span:   span,
		Days:   decimal.NewFromFloat(req.Days),
		Notes:  req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sick day", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSickDayDTO(saved))
}

// checkAbsenceOverlap validates a candidate span against the user's
// vacations AND sick days, excluding the record being updated.
func (h *Handler) checkAbsenceOverlap(r *http.Request, userID string, span calendar.Range, excludeID string) error {
	vacations, err := h.Store.VacationSpans(r.Context(), userID)
	if err != nil {
		return err
	}
	if err := absence.CheckOverlap(vacations, span, excludeID); err != nil {
		return err
	}
	sickDays, err := h.Store.SickDaySpans(r.Context(), userID)
	if err != nil {
		return err
	}
	return absence.CheckOverlap(sickDays, span, excludeID)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the imported holidays of one year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query().Get("year"), calendar.Today().Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	holidays, err := h.Store.HolidaysInRange(r.Context(), calendar.Year(year))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, day := range holidays {
		dtos = append(dtos, toHolidayDTO(day))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday imports a single public holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := calendar.Parse(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	saved, err := h.Store.SaveHoliday(r.Context(), absence.PublicHoliday{Date: date, Name: req.Name})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// GenerateHolidays imports the nine nationwide German holidays for a year.
// Already-imported dates are skipped.
func (h *Handler) GenerateHolidays(w http.ResponseWriter, r *http.Request) {
	var req GenerateHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year < 1900 || req.Year > 2200 {
		writeError(w, http.StatusBadRequest, "year out of range", nil)
		return
	}

	var dtos []HolidayDTO
	for _, day := range calendar.GermanHolidays(req.Year) {
		saved, err := h.Store.SaveHoliday(r.Context(), absence.PublicHoliday{Date: day.Date, Name: day.Name})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
		dtos = append(dtos, toHolidayDTO(saved))
	}

	logrus.WithField("year", req.Year).Info("german holidays imported")
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// TIMER HANDLERS
// =============================================================================

// GetRunningTimer returns the user's open timer, or 404.
func (h *Handler) GetRunningTimer(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}

	running, err := h.Store.RunningTimer(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up timer", err)
		return
	}
	if running == nil {
		writeError(w, http.StatusNotFound, "No running timer", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(*running))
}

// StartTimer opens a running timer. At most one may be open per user;
// a second start is a conflict. Projects flagged RequireDescription
// reject empty descriptions.
func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req StartTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "userId and projectId are required", nil)
		return
	}

	project, err := h.Store.ProjectByID(r.Context(), req.ProjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up project", err)
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if !project.Active {
		writeError(w, http.StatusBadRequest, "Project is inactive", nil)
		return
	}
	if project.RequireDescription && req.Description == "" {
		writeError(w, http.StatusBadRequest, "Project requires a description", nil)
		return
	}

	running, err := h.Store.RunningTimer(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up timer", err)
		return
	}
	if running != nil {
		writeError(w, http.StatusConflict, "A timer is already running", nil)
		return
	}

	saved, err := h.Store.SaveTimeEntry(r.Context(), worklog.TimeEntry{
		ProjectID:   req.ProjectID,
		UserID:      req.UserID,
		Start:       h.Now().Unix(),
		Description: req.Description,
		Billable:    req.Billable,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start timer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeEntryDTO(saved))
}

// StopTimer closes the user's running timer.
func (h *Handler) StopTimer(w http.ResponseWriter, r *http.Request) {
	var req StopTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}

	stopped, err := h.Store.StopTimer(r.Context(), req.UserID, h.Now().Unix())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to stop timer", err)
		return
	}
	if stopped == nil {
		writeError(w, http.StatusNotFound, "No running timer", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTimeEntryDTO(*stopped))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ReconcileProjects deactivates expired projects. Idempotent; a second
// run returns an empty list.
func (h *Handler) ReconcileProjects(w http.ResponseWriter, r *http.Request) {
	deactivated, err := h.Reconciler.ReconcileStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	if deactivated == nil {
		deactivated = []string{}
	}
	logrus.WithField("count", len(deactivated)).Info("project reconciliation run")
	writeJSON(w, http.StatusOK, ReconcileResultDTO{Deactivated: deactivated})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseSpan(start, end string) (calendar.Range, error) {
	s, err := calendar.Parse(start)
	if err != nil {
		return calendar.Range{}, err
	}
	e, err := calendar.Parse(end)
	if err != nil {
		return calendar.Range{}, err
	}
	rng := calendar.NewRange(s, e)
	if !rng.IsValid() {
		return calendar.Range{}, errors.New("start is after end")
	}
	return rng, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, absence.ErrSpanConflict):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
