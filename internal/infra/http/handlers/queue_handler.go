package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type QueueHandler struct {
	Router *usecase.LeadRouter
}

func NewQueueHandler(router *usecase.LeadRouter) *QueueHandler {
	return &QueueHandler{Router: router}
}

// Stats (GET /queue/stats)
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Router.QueueStats(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Drain (POST /queue/drain)
func (h *QueueHandler) Drain(w http.ResponseWriter, r *http.Request) {
	n, err := h.Router.RunQueueDrain(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usecase.DrainOutput{Assigned: n})
}
