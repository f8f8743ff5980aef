package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type LeadHandler struct {
	Router      *usecase.LeadRouter
	rateLimiter *RateLimiter
}

func NewLeadHandler(router *usecase.LeadRouter, limiter *RateLimiter) *LeadHandler {
	if limiter == nil {
		limiter = NewRateLimiter(10, 5) // 10 req/min por IP
	}
	return &LeadHandler{
		Router:      router,
		rateLimiter: limiter,
	}
}

type ReassignResponse struct {
	Reassigned bool         `json:"reassigned"`
	Lead       *entity.Lead `json:"lead,omitempty"`
}

// Create (POST /leads)
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	var input usecase.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}

	lead, err := h.Router.OnLeadCreated(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// Get (GET /leads/{id})
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Router.FindLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Action (POST /leads/{id}/actions/{action}) com {"agent_id": "..."} no corpo.
func (h *LeadHandler) Action(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}

	input := usecase.AgentActionInput{AgentID: body.AgentID, Action: chi.URLParam(r, "action")}
	if errs := usecase.ValidateStruct(input); len(errs) > 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, errs[0].Error())
		return
	}

	lead, err := h.Router.OnAgentAction(r.Context(), chi.URLParam(r, "id"), input.AgentID, entity.AgentAction(input.Action))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Reassign (POST /leads/{id}/reassign). Sem target_agent_id o lead volta para a
// atribuição automática.
func (h *LeadHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReassignInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
			return
		}
	}

	leadID := chi.URLParam(r, "id")
	ok, err := h.Router.OnAdminReassign(r.Context(), leadID, input.TargetAgentID)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	lead, err := h.Router.FindLead(r.Context(), leadID)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReassignResponse{Reassigned: ok, Lead: lead})
}
