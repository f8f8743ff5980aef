package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/memory"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

var errDBDown = errors.New("connection refused")

// recordingNotifier guarda tudo o que foi notificado, na ordem.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) ofType(t entity.NotificationType) []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.sent {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func recipients(ns []*entity.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.RecipientID)
	}
	return out
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n *entity.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type countingMetrics struct {
	assigned  atomic.Int64
	queued    atomic.Int64
	failures  atomic.Int64
	queueSize atomic.Int64
}

func (m *countingMetrics) LeadAssigned()                              { m.assigned.Add(1) }
func (m *countingMetrics) LeadQueued()                                { m.queued.Add(1) }
func (m *countingMetrics) QueueSize(n int)                            { m.queueSize.Store(int64(n)) }
func (m *countingMetrics) NotificationFailed(entity.NotificationType) { m.failures.Add(1) }

// faultyLeads injeta falhas de banco em cima do store em memória.
type faultyLeads struct {
	*memory.LeadRepository
	failFindFor   string
	failUpdateFor string
	failCount     bool
	failQueue     bool
}

func (f *faultyLeads) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if id == f.failFindFor {
		return nil, errDBDown
	}
	return f.LeadRepository.FindByID(ctx, id)
}

func (f *faultyLeads) UpdateFields(ctx context.Context, id string, u entity.LeadUpdate) (*entity.Lead, error) {
	if id == f.failUpdateFor {
		return nil, errDBDown
	}
	return f.LeadRepository.UpdateFields(ctx, id, u)
}

func (f *faultyLeads) CountWhere(ctx context.Context, filter entity.LeadFilter) (int, error) {
	if f.failCount {
		return 0, errDBDown
	}
	return f.LeadRepository.CountWhere(ctx, filter)
}

func (f *faultyLeads) AssignQueuePosition(ctx context.Context, id string) (*entity.Lead, bool, error) {
	if f.failQueue {
		return nil, false, errDBDown
	}
	return f.LeadRepository.AssignQueuePosition(ctx, id)
}

type fixture struct {
	store    *memory.Store
	leads    *faultyLeads
	agents   *memory.AgentRepository
	notifier *recordingNotifier
	metrics  *countingMetrics
	now      time.Time

	admins    *usecase.AdminNotifier
	enqueue   *usecase.EnqueueLeadUseCase
	assign    *usecase.AssignLeadUseCase
	queue     *usecase.LeadQueueUseCase
	lifecycle *usecase.LeadLifecycleUseCase
	monitor   *usecase.QueueMonitorUseCase
	router    *usecase.LeadRouter
}

// newFixture monta o roteamento completo sobre o store em memória, com dois
// admins cadastrados e nenhum vendedor.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		notifier: &recordingNotifier{},
		metrics:  &countingMetrics{},
		now:      time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
	}
	f.store.SetClock(f.clock)
	f.leads = &faultyLeads{LeadRepository: f.store.Leads()}
	f.agents = f.store.Agents()

	f.admins = usecase.NewAdminNotifier(f.agents, f.notifier, f.metrics)
	f.enqueue = usecase.NewEnqueueLeadUseCase(f.leads, f.admins, f.metrics)
	f.assign = usecase.NewAssignLeadUseCase(f.leads, f.agents, f.enqueue, f.notifier, f.metrics)
	f.assign.Now = f.clock
	f.queue = usecase.NewLeadQueueUseCase(f.leads, f.agents, f.assign, f.notifier, f.metrics)
	f.queue.Now = f.clock
	f.lifecycle = usecase.NewLeadLifecycleUseCase(f.leads, f.assign, f.admins)
	f.monitor = usecase.NewQueueMonitorUseCase(f.leads, f.admins, f.metrics)
	f.monitor.Now = f.clock
	f.router = usecase.NewLeadRouter(f.lifecycle, f.queue, f.monitor)

	f.addAgent(t, "admin-1", entity.RoleAdmin, entity.AvailabilityOffline)
	f.addAgent(t, "admin-2", entity.RoleAdmin, entity.AvailabilityOffline)
	return f
}

func (f *fixture) clock() time.Time {
	return f.now
}

func (f *fixture) addAgent(t *testing.T, id string, role entity.Role, availability entity.Availability) {
	t.Helper()
	f.createAgent(t, id, role, availability, true)
}

func (f *fixture) addInactiveSeller(t *testing.T, id string) {
	t.Helper()
	f.createAgent(t, id, entity.RoleSeller, entity.AvailabilityAvailable, false)
}

func (f *fixture) createAgent(t *testing.T, id string, role entity.Role, availability entity.Availability, active bool) {
	t.Helper()
	require.NoError(t, f.agents.Create(context.Background(), &entity.Agent{
		ID:           id,
		Name:         "Usuário " + id,
		Email:        id + "@ligue.com.br",
		Role:         role,
		Availability: availability,
		IsActive:     active,
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	}))
}

func (f *fixture) addSeller(t *testing.T, id string) {
	t.Helper()
	f.addAgent(t, id, entity.RoleSeller, entity.AvailabilityAvailable)
}

func (f *fixture) setAvailability(t *testing.T, id string, availability entity.Availability) {
	t.Helper()
	_, err := f.agents.UpdateAvailability(context.Background(), id, availability)
	require.NoError(t, err)
}

func (f *fixture) addLead(t *testing.T, id string, mods ...func(*entity.Lead)) {
	t.Helper()
	l := &entity.Lead{
		ID:          id,
		ClientName:  "Cliente " + id,
		ClientEmail: id + "@example.com",
		Status:      entity.LeadStatusPending,
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	}
	for _, mod := range mods {
		mod(l)
	}
	require.NoError(t, f.store.Leads().Create(context.Background(), l))
}

// queueLead cria um lead pending e o coloca no fim da fila.
func (f *fixture) queueLead(t *testing.T, id string, priority int, createdAt time.Time) {
	t.Helper()
	f.addLead(t, id, func(l *entity.Lead) {
		l.Priority = priority
		l.CreatedAt = createdAt
	})
	_, allocated, err := f.store.Leads().AssignQueuePosition(context.Background(), id)
	require.NoError(t, err)
	require.True(t, allocated)
}

func (f *fixture) lead(t *testing.T, id string) *entity.Lead {
	t.Helper()
	l, err := f.store.Leads().FindByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

func assignedTo(agentID string, status entity.LeadStatus) func(*entity.Lead) {
	return func(l *entity.Lead) {
		l.Status = status
		l.AssignedTo = &agentID
	}
}
