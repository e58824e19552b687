/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/reports/*      Report aggregators
  /api/compliance/*   ArbZG checks
  /api/vacations/*    Vacation workflow
  /api/sickdays/*     Sick-leave records
  /api/holidays/*     Public-holiday import
  /api/timers/*       Running-timer control
  /api/admin/*        Maintenance operations

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/project/{id}", h.GetProjectReport)
			r.Get("/customer/{id}", h.GetCustomerReport)
			r.Get("/employee/{userId}", h.GetEmployeeReport)
			r.Get("/overview", h.GetOverviewReport)
		})

		// Compliance routes
		r.Get("/compliance/{userId}", h.CheckCompliance)

		// Vacation routes
		r.Route("/vacations", func(r chi.Router) {
			r.Get("/", h.ListVacations)
			r.Post("/", h.CreateVacation)
			r.Post("/{id}/approve", h.ApproveVacation)
			r.Post("/{id}/reject", h.RejectVacation)
		})
		r.Get("/users/{userId}/vacation-balance", h.GetVacationBalance)

		// Sick day routes
		r.Route("/sickdays", func(r chi.Router) {
			r.Get("/", h.ListSickDays)
			r.Post("/", h.CreateSickDay)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/generate", h.GenerateHolidays)
		})

		// Timer routes
		r.Route("/timers", func(r chi.Router) {
			r.Get("/current", h.GetRunningTimer)
			r.Post("/start", h.StartTimer)
			r.Post("/stop", h.StopTimer)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/projects/reconcile", h.ReconcileProjects)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
