/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

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
  /api/users/*      Read-side balances and ledger history
  /api/tasks/*      Task completion and progress
  /api/craft        Recipe execution
  /api/redeem       Point purchases
  /api/catalog/*    Reward catalog reads
  /api/admin/*      Catalog, task and grant administration
  /metrics          Prometheus scrape endpoint
  /health           Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public,
  admin routes included.

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
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
		// User read side
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/balance", h.GetBalance)
			r.Get("/items", h.GetItemQuantities)
			r.Get("/points/entries", h.GetPointsHistory)
			r.Get("/items/{itemID}/entries", h.GetItemHistory)
		})

		// Task routes
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", h.GetTask)
			r.Post("/{id}/complete", h.CompleteTask)
		})

		// Economy operations
		r.Post("/craft", h.Craft)
		r.Post("/redeem", h.Redeem)

		// Catalog reads
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", h.ListCatalogItems)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/items", h.SaveItem)
			r.Post("/recipes", h.SaveRecipe)
			r.Post("/tasks", h.SaveTask)
			r.Post("/featured", h.SaveFeatured)
			r.Post("/grants", h.Grant)
		})
	})

	// Observability
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
