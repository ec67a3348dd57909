/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a frontend

AUTHORIZATION:
  Session and admin checks live in the handlers, which read the bearer
  token through the Sessions registry. Routes under /api other than
  /login require a session; the admin groups additionally require the
  admin flag.

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

	r.Route("/api", func(r chi.Router) {
		// Auth
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Self-service
		r.Route("/me", func(r chi.Router) {
			r.Get("/balance", h.GetMyBalance)
			r.Get("/requests", h.ListMyRequests)
			r.Post("/requests", h.SubmitMyRequest)
		})

		// Request approval (admin)
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
		})

		// User management (admin)
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Put("/{username}", h.UpdateUser)
			r.Delete("/{username}", h.DeleteUser)
		})

		// Holidays
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{date}", h.DeleteHoliday)
		})

		// Calendar
		r.Route("/calendar/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.GetCalendar)
			r.Get("/summary", h.GetCalendarSummary)
		})

		// Reports (admin)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/usage", h.GetUsageReport)
			r.Get("/departments", h.GetDepartmentReport)
			r.Get("/monthly", h.GetMonthlyReport)
		})

		// Data management (admin)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/backup", h.TriggerBackup)
			r.Post("/purge", h.PurgeData)
		})
	})

	return r
}
