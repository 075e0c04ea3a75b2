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
  /api/users/{id}/*              Per-user entries, balances, quota views
  /api/entries/{id}/*            Entry transitions
  /api/quotas                    Management quota changes
  /api/quota-notifications/*     Employee answers to quota changes

SECURITY NOTE:
  No authentication middleware. The acting user comes from the
  X-Actor-ID / X-Actor-Role headers and the engine enforces permissions;
  a trusted front proxy is expected to set those headers.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Per-user routes
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/entries", h.ListEntries)
			r.Post("/entries", h.CreateEntry)
			r.Get("/notifications", h.ListNotifications)
			r.Get("/review-queue", h.ReviewQueue)

			r.Get("/balance/day", h.GetDayBalance)
			r.Get("/balance/month", h.GetMonthBalance)
			r.Get("/balance/lifetime", h.GetLifetimeBalance)
			r.Get("/entitlement", h.GetEntitlement)
			r.Post("/submissions", h.Submit)

			r.Get("/quota", h.GetQuota)
			r.Get("/quota-notifications", h.ListQuotaNotifications)

			r.Get("/absences", h.ListAbsences)
			r.Post("/absences", h.CreateAbsence)
			r.Get("/work-model", h.GetWorkModel)
			r.Put("/work-model", h.PutWorkModel)
			r.Get("/adjustments", h.ListAdjustments)
			r.Post("/adjustments", h.CreateAdjustment)
		})

		// Entry transition routes
		r.Route("/entries/{id}", func(r chi.Router) {
			r.Get("/", h.GetEntry)
			r.Get("/changes", h.ListChanges)
			r.Post("/confirm", h.ConfirmEntry)
			r.Post("/reject", h.RejectEntry)
			r.Post("/edit", h.EditEntry)
			r.Post("/edit/respond", h.RespondToEdit)
			r.Post("/deletion-request", h.RequestDeletion)
			r.Post("/deletion-request/confirm", h.ConfirmDeletion)
			r.Post("/deletion-request/withdraw", h.WithdrawDeletion)
			r.Post("/acknowledge-deletion", h.AcknowledgeDeletion)
		})

		// Quota management routes
		r.Post("/quotas", h.ProposeQuota)
		r.Route("/quota-notifications/{id}", func(r chi.Router) {
			r.Post("/acknowledge", h.AcknowledgeQuota)
			r.Post("/reject", h.RejectQuota)
		})
	})

	return r
}
