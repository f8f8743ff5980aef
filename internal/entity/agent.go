package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAgentNotFound      = errors.New("usuário não encontrado")
	ErrAgentAlreadyExists = errors.New("usuário já cadastrado")
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOffline   Availability = "offline"
)

func (a Availability) Valid() bool {
	return a == AvailabilityAvailable || a == AvailabilityBusy || a == AvailabilityOffline
}

type Agent struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Availability Availability `json:"availability"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewAgent cria um usuário ativo. Sem disponibilidade informada ele começa offline.
func NewAgent(name, email string, role Role, availability Availability) *Agent {
	if availability == "" {
		availability = AvailabilityOffline
	}
	now := time.Now()
	return &Agent{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Role:         role,
		Availability: availability,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (a *Agent) IsSeller() bool {
	return a.Role == RoleSeller
}

// CanReceiveLeads: vendedor ativo e disponível.
func (a *Agent) CanReceiveLeads() bool {
	return a.IsSeller() && a.IsActive && a.Availability == AvailabilityAvailable
}

// AgentDirectoryInterface é a visão somente leitura que o core tem dos usuários.
type AgentDirectoryInterface interface {
	FindByRoleAndAvailability(ctx context.Context, role Role, availability Availability) ([]*Agent, error)
	FindByID(ctx context.Context, id string) (*Agent, error)
	ListByRole(ctx context.Context, role Role) ([]*Agent, error)
}

// AgentRepositoryInterface é usado pela camada HTTP para gravar disponibilidade.
type AgentRepositoryInterface interface {
	AgentDirectoryInterface
	Create(ctx context.Context, agent *Agent) error
	UpdateAvailability(ctx context.Context, id string, availability Availability) (*Agent, error)
}
