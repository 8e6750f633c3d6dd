package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocations", func(r chi.Router) {
		r.Post("/uniform", h.HandleUniform)
		r.Post("/multi-segment", h.HandleMultiSegment)
		r.Post("/weighted", h.HandleWeighted)
		r.Post("/batch", h.HandleBatch)
		r.Post("/truncation", h.HandleTruncation)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{runID}", h.HandleGetRun)
	})
}
