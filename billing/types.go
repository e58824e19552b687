/*
Package billing turns raw time entries into customer-facing numbers:
project, customer, employee and overview reports with category-multiplier
adjusted hours and billed amounts.

KEY CONCEPTS:
  - Adjusted hours: raw hours * the employment-category multiplier that
    applied at the entry's date. Reports carry BOTH adjusted ("hours",
    "billableHours") and raw ("actualHours", "actualBillableHours") figures.
  - Multiplier chain: project override -> global default -> 1.0, each
    clamped to [0.01, 2.0].
  - Amount: adjusted billable hours * the project's hourly rate.

SEE ALSO:
  - multiplier.go: the fallback chain
  - reports.go: the aggregators
  - reconcile.go: expired-project deactivation as an explicit sweep
*/
package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clockwerk/worklog-engine/calendar"
	"github.com/clockwerk/worklog-engine/employment"
)

// =============================================================================
// ENTITIES
// =============================================================================

type Customer struct {
	ID   string
	Name string
}

// Project is a billable unit of work for a customer.
type Project struct {
	ID         string
	CustomerID string
	Name       string

	HourlyRate  *decimal.Decimal
	BudgetHours *decimal.Decimal

	Start *calendar.Date
	End   *calendar.Date

	Active             bool
	RequireDescription bool
}

// Expired reports whether the project's end date lies in the past.
// Deactivation itself happens in the reconcile sweep, never as a side
// effect of reading.
func (p Project) Expired(today calendar.Date) bool {
	return p.End != nil && p.End.Before(today)
}

// =============================================================================
// REPOSITORIES
// =============================================================================

type ProjectRepository interface {
	ProjectByID(ctx context.Context, id string) (*Project, error)
	ProjectsByCustomer(ctx context.Context, customerID string) ([]Project, error)
	AllProjects(ctx context.Context) ([]Project, error)

	// SetProjectActive flips the active flag; a single idempotent row update.
	SetProjectActive(ctx context.Context, id string, active bool) error
}

type CustomerRepository interface {
	CustomerByID(ctx context.Context, id string) (*Customer, error)
	AllCustomers(ctx context.Context) ([]Customer, error)
}

// MultiplierRepository reads the raw multiplier tables. A nil decimal means
// "no value configured at this tier".
type MultiplierRepository interface {
	ProjectMultiplier(ctx context.Context, projectID string, typ employment.Type) (*decimal.Decimal, error)
	DefaultMultiplier(ctx context.Context, typ employment.Type) (*decimal.Decimal, error)
}
