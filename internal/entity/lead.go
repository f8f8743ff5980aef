package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound      = errors.New("lead não encontrado")
	ErrLeadConflict      = errors.New("lead foi alterado por outra operação")
	ErrInvalidTransition = errors.New("transição de status inválida")
)

type LeadStatus string

const (
	LeadStatusPending    LeadStatus = "pending"
	LeadStatusAssigned   LeadStatus = "assigned"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusCompleted  LeadStatus = "completed"
	LeadStatusRejected   LeadStatus = "rejected"
)

// Status que contam como carga do vendedor.
var ActiveLeadStatuses = []LeadStatus{LeadStatusAssigned, LeadStatusInProgress}

func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusCompleted || s == LeadStatusRejected
}

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusPending, LeadStatusAssigned, LeadStatusInProgress, LeadStatusCompleted, LeadStatusRejected:
		return true
	}
	return false
}

type Lead struct {
	ID            string     `json:"id"`
	ClientName    string     `json:"client_name"`
	ClientEmail   string     `json:"client_email"`
	ClientPhone   string     `json:"client_phone,omitempty"`
	ProductID     string     `json:"product_id,omitempty"`
	Message       string     `json:"message,omitempty"`
	Status        LeadStatus `json:"status"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	QueuePosition *int       `json:"queue_position,omitempty"`
	Priority      int        `json:"priority"`
	AssignedAt    *time.Time `json:"assigned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewLead(clientName, clientEmail, clientPhone, productID, message string, priority int) *Lead {
	now := time.Now()
	return &Lead{
		ID:          uuid.New().String(),
		ClientName:  clientName,
		ClientEmail: clientEmail,
		ClientPhone: clientPhone,
		ProductID:   productID,
		Message:     message,
		Status:      LeadStatusPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (l *Lead) IsAssignedTo(agentID string) bool {
	return l.AssignedTo != nil && *l.AssignedTo == agentID
}

func (l *Lead) InQueue() bool {
	return l.Status == LeadStatusPending && l.QueuePosition != nil
}

// WaitTime conta a partir da criação, não da última entrada na fila.
func (l *Lead) WaitTime(now time.Time) time.Duration {
	return now.Sub(l.CreatedAt)
}

func (l *Lead) DisplayName(fallback string) string {
	if l.ClientName == "" {
		return fallback
	}
	return l.ClientName
}

func (l *Lead) Clone() *Lead {
	c := *l
	if l.AssignedTo != nil {
		v := *l.AssignedTo
		c.AssignedTo = &v
	}
	if l.QueuePosition != nil {
		v := *l.QueuePosition
		c.QueuePosition = &v
	}
	if l.AssignedAt != nil {
		v := *l.AssignedAt
		c.AssignedAt = &v
	}
	return &c
}

// LeadFilter combina os campos com AND. Valores zero são ignorados.
type LeadFilter struct {
	Statuses   []LeadStatus
	AssignedTo string
	OnlyQueued bool
}

func (f LeadFilter) Matches(l *Lead) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, l.Status) {
		return false
	}
	if f.AssignedTo != "" && !l.IsAssignedTo(f.AssignedTo) {
		return false
	}
	if f.OnlyQueued && !l.InQueue() {
		return false
	}
	return true
}

type LeadSort int

const (
	SortNone LeadSort = iota
	// priority DESC, queue_position ASC
	SortQueueOrder
	SortCreatedAtAsc
)

// QueueFilter seleciona os leads que estão esperando na fila.
func QueueFilter() LeadFilter {
	return LeadFilter{Statuses: []LeadStatus{LeadStatusPending}, OnlyQueued: true}
}

// LeadUpdate é um update parcial. Ponteiro nil mantém o campo, Clear* grava NULL.
// Os guards If* são avaliados junto com a escrita; se falharem o repositório
// devolve ErrLeadConflict.
type LeadUpdate struct {
	Status             *LeadStatus
	AssignedTo         *string
	ClearAssignedTo    bool
	AssignedAt         *time.Time
	ClearAssignedAt    bool
	QueuePosition      *int
	ClearQueuePosition bool

	IfStatusIn   []LeadStatus
	IfAssignedTo *string
}

func (u LeadUpdate) GuardHolds(l *Lead) bool {
	if len(u.IfStatusIn) > 0 && !containsStatus(u.IfStatusIn, l.Status) {
		return false
	}
	if u.IfAssignedTo != nil && !l.IsAssignedTo(*u.IfAssignedTo) {
		return false
	}
	return true
}

func (u LeadUpdate) ApplyTo(l *Lead, now time.Time) {
	if u.Status != nil {
		l.Status = *u.Status
	}
	switch {
	case u.ClearAssignedTo:
		l.AssignedTo = nil
	case u.AssignedTo != nil:
		v := *u.AssignedTo
		l.AssignedTo = &v
	}
	switch {
	case u.ClearAssignedAt:
		l.AssignedAt = nil
	case u.AssignedAt != nil:
		v := *u.AssignedAt
		l.AssignedAt = &v
	}
	switch {
	case u.ClearQueuePosition:
		l.QueuePosition = nil
	case u.QueuePosition != nil:
		v := *u.QueuePosition
		l.QueuePosition = &v
	}
	l.UpdatedAt = now
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindMany(ctx context.Context, filter LeadFilter, sort LeadSort) ([]*Lead, error)
	UpdateFields(ctx context.Context, id string, update LeadUpdate) (*Lead, error)
	CountWhere(ctx context.Context, filter LeadFilter) (int, error)
}

// QueuePositionAllocator coloca um lead pending no fim da fila.
// Calcular max+1 e gravar precisa ser um passo atômico: dois leads enfileirados
// ao mesmo tempo nunca recebem a mesma posição. Lead que já tem posição mantém a
// sua. Lead que não está pending devolve ErrLeadConflict.
type QueuePositionAllocator interface {
	AssignQueuePosition(ctx context.Context, leadID string) (lead *Lead, allocated bool, err error)
}

func containsStatus(list []LeadStatus, s LeadStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
