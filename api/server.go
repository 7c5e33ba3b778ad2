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
  /api/cases/*      Case file management and lifecycle
  /api/tasks/*      Follow-up task board
  /api/catalog/*    Checklist catalog lookup

SECURITY NOTE:
  No authentication middleware. The X-Actor / X-Actor-Role headers are
  trusted input from the reverse proxy in front of the service.

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Case routes
		r.Route("/cases", func(r chi.Router) {
			r.Get("/", h.ListCases)
			r.Post("/", h.CreateCase)
			r.Get("/{id}", h.GetCase)
			r.Patch("/{id}", h.UpdateCase)
			r.Post("/{id}/status", h.ChangeStatus)
			r.Put("/{id}/checklist", h.PutChecklist)
			r.Post("/{id}/checklist/complete", h.CompleteChecklist)
			r.Put("/{id}/coverages", h.PutCoverages)
			r.Post("/{id}/close", h.CloseCase)
			r.Get("/{id}/totals", h.GetTotals)
			r.Get("/{id}/missing-documents", h.GetMissingDocuments)
			r.Get("/{id}/tasks", h.ListTasks)
			r.Post("/{id}/tasks", h.CreateTask)
			r.Get("/{id}/comments", h.ListComments)
			r.Post("/{id}/comments", h.CreateComment)
			r.Get("/{id}/invoice", h.GetInvoice)
			r.Put("/{id}/invoice", h.PutInvoice)
		})

		// Task routes
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/{taskID}/done", h.SetTaskDone)
		})

		// Catalog routes
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/checklist", h.GetChecklistCatalog)
		})
	})

	return r
}
