/*
reconcile.go - Explicit project-status maintenance sweep

The legacy system flipped a project's active flag to false as a side effect
of reading it once its end date had passed, which made list queries
write-mutating and untestable. Here deactivation is a separately invokable
operation: run it from a scheduler or the admin endpoint. Each flip is a
single idempotent row update; re-running the sweep changes nothing.
*/
package billing

import (
	"context"

	"github.com/clockwerk/worklog-engine/calendar"
)

// ProjectReconciler deactivates projects whose end date has passed.
type ProjectReconciler struct {
	Projects ProjectRepository

	// Now is overridable for tests; defaults to calendar.Today.
	Now func() calendar.Date
}

func NewProjectReconciler(projects ProjectRepository) *ProjectReconciler {
	return &ProjectReconciler{Projects: projects, Now: calendar.Today}
}

// ReconcileStatus flips the active flag on every expired-but-active
// project and returns the affected project IDs.
func (r *ProjectReconciler) ReconcileStatus(ctx context.Context) ([]string, error) {
	today := r.Now()
	projects, err := r.Projects.AllProjects(ctx)
	if err != nil {
		return nil, err
	}

	var deactivated []string
	for _, p := range projects {
		if !p.Active || !p.Expired(today) {
			continue
		}
		if err := r.Projects.SetProjectActive(ctx, p.ID, false); err != nil {
			return deactivated, err
		}
		deactivated = append(deactivated, p.ID)
	}
	return deactivated, nil
}
