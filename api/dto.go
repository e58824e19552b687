/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Report shapes are the
  exception: the billing package owns them (their field names are
  load-bearing for the front-end) and they are returned as-is.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/reports.go: The report shapes
*/
package api

import (
	"github.com/clockwerk/worklog-engine/absence"
	"github.com/clockwerk/worklog-engine/compliance"
	"github.com/clockwerk/worklog-engine/worklog"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateVacationRequest creates a vacation record. Days is explicit
// because six-day-week employees consume a different number of days than
// the span suggests. AsAdmin stores the record approved immediately.
type CreateVacationRequest struct {
	UserID  string  `json:"userId"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Days    float64 `json:"days"`
	Notes   string  `json:"notes,omitempty"`
	AsAdmin bool    `json:"asAdmin,omitempty"`
}

// CreateSickDayRequest records a sick-leave span.
type CreateSickDayRequest struct {
	UserID string  `json:"userId"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Days   float64 `json:"days"`
	Notes  string  `json:"notes,omitempty"`
}

// CreateHolidayRequest imports one public holiday.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// GenerateHolidaysRequest imports the nationwide German set for a year.
type GenerateHolidaysRequest struct {
	Year int `json:"year"`
}

// StartTimerRequest opens a running timer.
type StartTimerRequest struct {
	UserID      string `json:"userId"`
	ProjectID   string `json:"projectId"`
	Description string `json:"description,omitempty"`
	Billable    bool   `json:"billable"`
}

// StopTimerRequest closes the user's running timer.
type StopTimerRequest struct {
	UserID string `json:"userId"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type VacationDTO struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Days   float64 `json:"days"`
	Status string  `json:"status"`
	Notes  string  `json:"notes,omitempty"`
}

type SickDayDTO struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Days   float64 `json:"days"`
	Notes  string  `json:"notes,omitempty"`
}

type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type TimeEntryDTO struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	UserID      string `json:"userId"`
	Start       int64  `json:"start"`
	End         *int64 `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
	Billable    bool   `json:"billable"`
	Minutes     int64  `json:"minutes"`
}

type BalanceDTO struct {
	UserID      string  `json:"userId"`
	Year        int     `json:"year"`
	Entitlement float64 `json:"entitlement"`
	CarryOver   float64 `json:"carryOver"`
	Used        float64 `json:"used"`
	Pending     float64 `json:"pending"`
	Remaining   float64 `json:"remaining"`
	Available   float64 `json:"available"`
}

// ExemptionDTO is returned instead of a compliance result when the
// employment category is outside ArbZG scope.
type ExemptionDTO struct {
	UserID         string `json:"userId"`
	EmploymentType string `json:"employmentType"`
	Exempt         bool   `json:"exempt"`
	Reason         string `json:"reason"`
}

type ReconcileResultDTO struct {
	Deactivated []string `json:"deactivated"`
}

// ComplianceFindingDTO is one rule breach. Date is set for daily
// findings, windowStart/windowEnd for weekly ones.
type ComplianceFindingDTO struct {
	Code        string  `json:"code"`
	Severity    string  `json:"severity"`
	Law         string  `json:"law"`
	Date        string  `json:"date,omitempty"`
	WindowStart string  `json:"windowStart,omitempty"`
	WindowEnd   string  `json:"windowEnd,omitempty"`
	Hours       float64 `json:"hours"`
	Limit       float64 `json:"limit,omitempty"`
	Message     string  `json:"message"`
}

type ComplianceStatsDTO struct {
	WorkedDays    int     `json:"workedDays"`
	TotalHours    float64 `json:"totalHours"`
	AverageDaily  float64 `json:"averageDaily"`
	MaxDailyHours float64 `json:"maxDailyHours"`
}

type ComplianceResultDTO struct {
	UserID     string                 `json:"userId"`
	Start      string                 `json:"start"`
	End        string                 `json:"end"`
	Compliant  bool                   `json:"compliant"`
	Violations []ComplianceFindingDTO `json:"violations"`
	Warnings   []ComplianceFindingDTO `json:"warnings"`
	Stats      ComplianceStatsDTO     `json:"stats"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toVacationDTO(v absence.Vacation) VacationDTO {
	days, _ := v.Days.Float64()
	return VacationDTO{
		ID:     v.ID,
		UserID: v.UserID,
		Start:  v.Span.Start.String(),
		End:    v.Span.End.String(),
		Days:   days,
		Status: string(v.Status),
		Notes:  v.Notes,
	}
}

func toSickDayDTO(d absence.SickDay) SickDayDTO {
	days, _ := d.Days.Float64()
	return SickDayDTO{
		ID:     d.ID,
		UserID: d.UserID,
		Start:  d.Span.Start.String(),
		End:    d.Span.End.String(),
		Days:   days,
		Notes:  d.Notes,
	}
}

func toHolidayDTO(h absence.PublicHoliday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name}
}

func toComplianceDTO(res compliance.Result) ComplianceResultDTO {
	dto := ComplianceResultDTO{
		UserID:     res.UserID,
		Start:      res.Range.Start.String(),
		End:        res.Range.End.String(),
		Compliant:  res.Compliant,
		Violations: []ComplianceFindingDTO{},
		Warnings:   []ComplianceFindingDTO{},
		Stats: ComplianceStatsDTO{
			WorkedDays:    res.Stats.WorkedDays,
			TotalHours:    toFloat(res.Stats.TotalHours),
			AverageDaily:  toFloat(res.Stats.AverageDaily),
			MaxDailyHours: toFloat(res.Stats.MaxDailyHours),
		},
	}
	for _, f := range res.Violations {
		dto.Violations = append(dto.Violations, toFindingDTO(f))
	}
	for _, f := range res.Warnings {
		dto.Warnings = append(dto.Warnings, toFindingDTO(f))
	}
	return dto
}

func toFindingDTO(f compliance.Finding) ComplianceFindingDTO {
	return ComplianceFindingDTO{
		Code:        string(f.Code),
		Severity:    string(f.Severity),
		Law:         f.Law,
		Date:        f.Date,
		WindowStart: f.WindowStart,
		WindowEnd:   f.WindowEnd,
		Hours:       toFloat(f.Hours),
		Limit:       toFloat(f.Limit),
		Message:     f.Message,
	}
}

func toTimeEntryDTO(e worklog.TimeEntry) TimeEntryDTO {
	return TimeEntryDTO{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		UserID:      e.UserID,
		Start:       e.Start,
		End:         e.End,
		Description: e.Description,
		Billable:    e.Billable,
		Minutes:     e.Minutes(),
	}
}
