/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Roster management
  /api/shifts/*         Schedule management
  /api/rules/*          Compliance rule management
  /api/restaurants/*    Per-restaurant evaluation and listing
  /api/violations/*     Violation overrides
  /api/tips/*           Tip pool distribution and locking
  /api/disputes/*       Tip dispute lifecycle
  /api/payroll/*        Batch payroll runs

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Roster routes
		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.UpsertEmployee)
		})

		// Schedule routes
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.UpsertShift)
		})

		// Compliance rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Post("/", h.SaveRule)
		})

		// Per-restaurant routes
		r.Route("/restaurants/{id}", func(r chi.Router) {
			r.Get("/employees", h.ListEmployees)
			r.Get("/rules", h.ListRules)
			r.Get("/violations", h.ListViolations)
			r.Post("/evaluate", h.Evaluate)
		})

		// Violation routes
		r.Route("/violations", func(r chi.Router) {
			r.Post("/{id}/override", h.OverrideViolation)
		})

		// Tip pool routes
		r.Route("/tips", func(r chi.Router) {
			r.Post("/settings", h.SaveSettings)
			r.Route("/{periodID}", func(r chi.Router) {
				r.Post("/distribute", h.Distribute)
				r.Get("/splits", h.ListSplits)
				r.Post("/lock", h.LockPeriod)
			})
		})

		// Dispute routes
		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", h.FileDispute)
			r.Get("/open", h.ListOpenDisputes)
			r.Post("/{id}/resolve", h.ResolveDispute)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/run", h.RunPayroll)
		})
	})

	return r
}
