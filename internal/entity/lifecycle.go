package entity

import "fmt"

type LeadEvent string

const (
	EventAssign   LeadEvent = "assign"
	EventStart    LeadEvent = "start"
	EventComplete LeadEvent = "complete"
	EventReject   LeadEvent = "reject"
	EventRequeue  LeadEvent = "requeue"
	EventReassign LeadEvent = "reassign"
)

type transition struct {
	from []LeadStatus
	to   LeadStatus
}

// Máquina de estados do lead. completed e rejected são terminais.
// requeue e reassign são ações de admin; aceitam pending para permitir
// forçar um lead que já está na fila.
var leadTransitions = map[LeadEvent]transition{
	EventAssign:   {from: []LeadStatus{LeadStatusPending}, to: LeadStatusAssigned},
	EventStart:    {from: []LeadStatus{LeadStatusAssigned}, to: LeadStatusInProgress},
	EventComplete: {from: []LeadStatus{LeadStatusInProgress}, to: LeadStatusCompleted},
	EventReject:   {from: []LeadStatus{LeadStatusAssigned, LeadStatusInProgress}, to: LeadStatusRejected},
	EventRequeue:  {from: []LeadStatus{LeadStatusPending, LeadStatusAssigned, LeadStatusInProgress}, to: LeadStatusPending},
	EventReassign: {from: []LeadStatus{LeadStatusPending, LeadStatusAssigned, LeadStatusInProgress}, to: LeadStatusAssigned},
}

// SourceStatuses devolve os status a partir dos quais o evento é válido.
func SourceStatuses(ev LeadEvent) []LeadStatus {
	t, ok := leadTransitions[ev]
	if !ok {
		return nil
	}
	out := make([]LeadStatus, len(t.from))
	copy(out, t.from)
	return out
}

// Next devolve o status de destino ou um erro que embrulha ErrInvalidTransition.
func (s LeadStatus) Next(ev LeadEvent) (LeadStatus, error) {
	t, ok := leadTransitions[ev]
	if !ok {
		return s, fmt.Errorf("evento desconhecido %q: %w", ev, ErrInvalidTransition)
	}
	if !containsStatus(t.from, s) {
		return s, fmt.Errorf("%s não permitido a partir de %s: %w", ev, s, ErrInvalidTransition)
	}
	return t.to, nil
}

// AgentAction é o que o vendedor pode fazer com um lead atribuído a ele.
type AgentAction string

const (
	ActionStart    AgentAction = "start"
	ActionComplete AgentAction = "complete"
	ActionReject   AgentAction = "reject"
)

func (a AgentAction) Event() (LeadEvent, error) {
	switch a {
	case ActionStart:
		return EventStart, nil
	case ActionComplete:
		return EventComplete, nil
	case ActionReject:
		return EventReject, nil
	}
	return "", fmt.Errorf("ação desconhecida %q: %w", a, ErrInvalidTransition)
}
