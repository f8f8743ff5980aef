package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeUseCaseError traduz o código do erro para o status HTTP.
func writeUseCaseError(w http.ResponseWriter, err error) {
	code := usecase.ErrorCode(err)
	switch code {
	case usecase.CodeLeadNotFound, usecase.CodeAgentNotFound:
		writeErrorResponse(w, http.StatusNotFound, code, err.Error())
	case usecase.CodeInvalidTransition:
		writeErrorResponse(w, http.StatusConflict, code, err.Error())
	case usecase.CodeValidation:
		writeErrorResponse(w, http.StatusBadRequest, code, err.Error())
	default:
		log.Printf("❌ Erro interno: %v", err)
		if code == "" {
			code = "INTERNAL_ERROR"
		}
		writeErrorResponse(w, http.StatusInternalServerError, code, "Erro interno, tente novamente")
	}
}
