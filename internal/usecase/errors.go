package usecase

import (
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeLeadNotFound      = "LEAD_NOT_FOUND"
	CodeAgentNotFound     = "AGENT_NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDatabase          = "DATABASE_ERROR"
)

// DomainError: erro de quem chamou (dados inválidos, estado errado). Não tem retry.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError: falha de infraestrutura (banco fora, timeout).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode devolve o código do erro de domínio/técnico, ou "" se não for nenhum dos dois.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func storageError(op string, err error) error {
	return &TechnicalError{
		Code:    CodeDatabase,
		Message: fmt.Sprintf("falha ao %s: %v", op, err),
		Err:     err,
	}
}

// classify converte os sentinels do entity em DomainError e o resto em TechnicalError.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsDomainError(err), IsTechnicalError(err):
		return err
	case errors.Is(err, entity.ErrLeadNotFound):
		return &DomainError{Code: CodeLeadNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrAgentNotFound):
		return &DomainError{Code: CodeAgentNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrInvalidTransition), errors.Is(err, entity.ErrLeadConflict):
		return &DomainError{Code: CodeInvalidTransition, Message: err.Error(), Err: entity.ErrInvalidTransition}
	}
	return storageError(op, err)
}
