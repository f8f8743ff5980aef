package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

type Routes struct {
	Leads   *LeadHandler
	Queue   *QueueHandler
	Agents  *AgentHandler
	Health  *HealthHandler
	Metrics http.Handler
}

func NewRouter(rt Routes) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", rt.Leads.Create)
		r.Get("/{id}", rt.Leads.Get)
		r.Post("/{id}/actions/{action}", rt.Leads.Action)
		r.Post("/{id}/reassign", rt.Leads.Reassign)
	})

	r.Get("/queue/stats", rt.Queue.Stats)
	r.Post("/queue/drain", rt.Queue.Drain)

	r.Post("/agents", rt.Agents.Create)
	r.Put("/agents/{id}/availability", rt.Agents.UpdateAvailability)

	if rt.Health != nil {
		r.Get("/health", rt.Health.Handle)
	}

	metrics := rt.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Handle("/metrics", metrics)

	return r
}
