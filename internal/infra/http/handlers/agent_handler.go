package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// RoleCache é o cache da lista de usuários por papel (opcional).
type RoleCache interface {
	Invalidate(ctx context.Context, role entity.Role) error
}

type AgentHandler struct {
	Repo   entity.AgentRepositoryInterface
	Router *usecase.LeadRouter
	Cache  RoleCache
}

func NewAgentHandler(repo entity.AgentRepositoryInterface, router *usecase.LeadRouter) *AgentHandler {
	return &AgentHandler{Repo: repo, Router: router}
}

// Create (POST /agents)
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}
	if errs := usecase.ValidateStruct(input); len(errs) > 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, errs[0].Error())
		return
	}

	agent := entity.NewAgent(input.Name, input.Email, entity.Role(input.Role), entity.Availability(input.Availability))
	if err := h.Repo.Create(r.Context(), agent); err != nil {
		if errors.Is(err, entity.ErrAgentAlreadyExists) {
			writeErrorResponse(w, http.StatusConflict, "AGENT_EXISTS", err.Error())
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, usecase.CodeDatabase, "Erro ao criar usuário")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Invalidate(r.Context(), agent.Role); err != nil {
			log.Printf("⚠️ Falha ao invalidar cache de %s: %v", agent.Role, err)
		}
	}

	if agent.CanReceiveLeads() {
		if _, err := h.Router.OnAgentBecameAvailable(r.Context(), agent.ID); err != nil {
			log.Printf("⚠️ Falha ao drenar fila após cadastro do vendedor %s: %v", agent.ID, err)
		}
	}
	writeJSON(w, http.StatusCreated, agent)
}

type AvailabilityResponse struct {
	Agent         *entity.Agent `json:"agent"`
	LeadsAssigned int           `json:"leads_assigned"`
}

// UpdateAvailability (PUT /agents/{id}/availability). Vendedor que fica
// disponível dispara a drenagem da fila.
func (h *AgentHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateAvailabilityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}
	if errs := usecase.ValidateStruct(input); len(errs) > 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, errs[0].Error())
		return
	}

	agent, err := h.Repo.UpdateAvailability(r.Context(), chi.URLParam(r, "id"), entity.Availability(input.Availability))
	if err != nil {
		if errors.Is(err, entity.ErrAgentNotFound) {
			writeErrorResponse(w, http.StatusNotFound, usecase.CodeAgentNotFound, err.Error())
			return
		}
		log.Printf("❌ Erro ao atualizar disponibilidade: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, usecase.CodeDatabase, "Erro ao atualizar disponibilidade")
		return
	}

	resp := AvailabilityResponse{Agent: agent}
	if agent.CanReceiveLeads() {
		n, err := h.Router.OnAgentBecameAvailable(r.Context(), agent.ID)
		if err != nil {
			// A disponibilidade já foi gravada; a fila será drenada no próximo evento.
			log.Printf("⚠️ Falha ao drenar fila após vendedor %s ficar disponível: %v", agent.ID, err)
		}
		resp.LeadsAssigned = n
	}

	writeJSON(w, http.StatusOK, resp)
}
