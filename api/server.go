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
  1. Recoverer:  Panic recovery (500 instead of crash)
  2. RequestID:  Unique ID per request for tracing
  3. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Directory, suggestions, demand
  /api/orgchart         Reporting forest
  /api/heatmap          Demand heatmap
  /api/summary          Portfolio rollup
  /api/assignments      Assignment writes
  /api/leveling/*       External leveling boundary
  /api/forecast/*       External forecasting boundary
  /api/feed             Upstream plan ingestion
  /api/scenarios/*      Demo scenarios
  /api/reset            Store reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/workforce: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. Allowed CORS
// origins come from configuration.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Directory routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/suggestions", h.GetSuggestions)
			r.Get("/{id}/demand", h.GetDemand)
		})

		// Derived views
		r.Get("/orgchart", h.GetOrgChart)
		r.Get("/heatmap", h.GetHeatmap)
		r.Get("/summary", h.GetSummary)

		// Assignment writes
		r.Post("/assignments", h.CreateAssignment)

		// External boundaries
		r.Route("/leveling", func(r chi.Router) {
			r.Get("/inputs", h.GetLevelingInputs)
			r.Post("/run", h.RunLeveling)
		})
		r.Get("/forecast/{projectId}", h.GetForecast)

		// Ingestion
		r.Post("/feed", h.IngestFeed)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Reset (dev only)
		r.Post("/reset", h.ResetData)
	})

	return r
}
