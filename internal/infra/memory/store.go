// Package memory guarda leads, usuários e notificações em memória. Serve para
// rodar o serviço sem Postgres (STORE=memory) e para os testes.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Store guarda os dados; os repositórios são visões sobre ele. Tudo passa pelo
// mesmo mutex, então updates com guard e alocação de posição são atômicos.
type Store struct {
	mu            sync.RWMutex
	leads         map[string]*entity.Lead
	agents        map[string]*entity.Agent
	agentOrder    []string
	notifications map[string]*entity.Notification
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		leads:         make(map[string]*entity.Lead),
		agents:        make(map[string]*entity.Agent),
		notifications: make(map[string]*entity.Notification),
		now:           time.Now,
	}
}

// SetClock troca o relógio usado em updated_at e sent_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Leads() *LeadRepository { return &LeadRepository{s: s} }

func (s *Store) Agents() *AgentRepository { return &AgentRepository{s: s} }

func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

// LeadRepository implementa LeadRepositoryInterface e QueuePositionAllocator.
type LeadRepository struct{ s *Store }

type AgentRepository struct{ s *Store }

type NotificationRepository struct{ s *Store }

// Leads

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead.Clone()
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return l.Clone(), nil
}

func (r *LeadRepository) FindMany(ctx context.Context, filter entity.LeadFilter, sort entity.LeadSort) ([]*entity.Lead, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entity.Lead
	for _, l := range s.leads {
		if filter.Matches(l) {
			out = append(out, l.Clone())
		}
	}

	// Desempate por created_at e id para a ordem não depender do map.
	slices.SortFunc(out, func(a, b *entity.Lead) int {
		if sort == entity.SortQueueOrder {
			if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
				return c
			}
			if c := cmp.Compare(position(a), position(b)); c != 0 {
				return c
			}
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *LeadRepository) CountWhere(ctx context.Context, filter entity.LeadFilter) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.leads {
		if filter.Matches(l) {
			n++
		}
	}
	return n, nil
}

func (r *LeadRepository) UpdateFields(ctx context.Context, id string, update entity.LeadUpdate) (*entity.Lead, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	if !update.GuardHolds(l) {
		return nil, entity.ErrLeadConflict
	}
	update.ApplyTo(l, s.now())
	return l.Clone(), nil
}

func (r *LeadRepository) AssignQueuePosition(ctx context.Context, leadID string) (*entity.Lead, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok {
		return nil, false, entity.ErrLeadNotFound
	}
	if l.Status != entity.LeadStatusPending {
		return nil, false, entity.ErrLeadConflict
	}
	if l.QueuePosition != nil {
		return l.Clone(), false, nil
	}

	next := 1
	for _, other := range s.leads {
		if other.InQueue() && *other.QueuePosition >= next {
			next = *other.QueuePosition + 1
		}
	}
	l.QueuePosition = &next
	l.UpdatedAt = s.now()
	return l.Clone(), true, nil
}

func position(l *entity.Lead) int {
	if l.QueuePosition == nil {
		return 0
	}
	return *l.QueuePosition
}

// Usuários

func (r *AgentRepository) Create(ctx context.Context, agent *entity.Agent) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents[agent.ID]; exists {
		return entity.ErrAgentAlreadyExists
	}
	c := *agent
	s.agents[agent.ID] = &c
	s.agentOrder = append(s.agentOrder, agent.ID)
	return nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*entity.Agent, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, entity.ErrAgentNotFound
	}
	c := *a
	return &c, nil
}

func (r *AgentRepository) FindByRoleAndAvailability(ctx context.Context, role entity.Role, availability entity.Availability) ([]*entity.Agent, error) {
	return r.s.agentsWhere(func(a *entity.Agent) bool {
		return a.Role == role && a.Availability == availability
	}), nil
}

func (r *AgentRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Agent, error) {
	return r.s.agentsWhere(func(a *entity.Agent) bool {
		return a.Role == role && a.IsActive
	}), nil
}

func (r *AgentRepository) UpdateAvailability(ctx context.Context, id string, availability entity.Availability) (*entity.Agent, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return nil, entity.ErrAgentNotFound
	}
	a.Availability = availability
	a.UpdatedAt = s.now()
	c := *a
	return &c, nil
}

// agentsWhere devolve na ordem de cadastro.
func (s *Store) agentsWhere(match func(*entity.Agent) bool) []*entity.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Agent
	for _, id := range s.agentOrder {
		if a := s.agents[id]; match(a) {
			c := *a
			out = append(out, &c)
		}
	}
	return out
}

// Notificações

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	s.notifications[n.ID] = &c
	return nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil
	}
	if !n.Sent {
		now := s.now()
		n.Sent = true
		n.SentAt = &now
	}
	return nil
}

// ForRecipient devolve as notificações do destinatário (todas com ""), mais antigas primeiro.
func (r *NotificationRepository) ForRecipient(recipientID string) []*entity.Notification {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Notification
	for _, n := range s.notifications {
		if recipientID == "" || n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Notification) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
