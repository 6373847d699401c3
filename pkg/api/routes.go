package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/search", s.HandleSearch)
	r.Get("/api/rounds/current", s.HandleCurrentRound)
	r.Get("/api/rounds/{generation}", s.HandleRound)
	r.Get("/api/regions", s.HandleListRegions)
	r.Get("/api/history", s.HandleHistory)
	r.Get("/api/history/search", s.HandleHistorySearch)
	r.Get("/api/history/{id}", s.HandleHistoryRound)
	r.Get("/api/events", s.HandleEvents)
	r.Get("/health", s.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())
}
