package usecase

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadRouter reúne os gatilhos de entrada do roteamento. HTTP e workers só
// conversam com ele.
type LeadRouter struct {
	Lifecycle *LeadLifecycleUseCase
	Queue     *LeadQueueUseCase
	Monitor   *QueueMonitorUseCase

	drains singleflight.Group

	drainMu   sync.Mutex
	drainReq  uint64 // pedidos de drenagem recebidos
	drainDone uint64 // pedidos cobertos pela última passada concluída
}

func NewLeadRouter(lifecycle *LeadLifecycleUseCase, queue *LeadQueueUseCase, monitor *QueueMonitorUseCase) *LeadRouter {
	return &LeadRouter{
		Lifecycle: lifecycle,
		Queue:     queue,
		Monitor:   monitor,
	}
}

func (r *LeadRouter) OnLeadCreated(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	return r.Lifecycle.Create(ctx, input)
}

func (r *LeadRouter) OnAgentBecameAvailable(ctx context.Context, agentID string) (int, error) {
	log.Printf("🟢 Vendedor %s disponível, processando fila", agentID)
	return r.RunQueueDrain(ctx)
}

func (r *LeadRouter) OnAgentAction(ctx context.Context, leadID, agentID string, action entity.AgentAction) (*entity.Lead, error) {
	return r.Lifecycle.Apply(ctx, leadID, agentID, action)
}

func (r *LeadRouter) OnAdminReassign(ctx context.Context, leadID, targetAgentID string) (bool, error) {
	return r.Queue.Reassign(ctx, leadID, targetAgentID)
}

// RunQueueDrain junta pedidos simultâneos numa única drenagem. Cada pedido
// recebe um número; ele só volta depois que uma passada iniciada depois desse
// número terminar. Um pedido que chega com a drenagem em andamento faz ela
// rodar mais uma vez, e um que pega a drenagem já encerrando dispara outra.
//
// A passada é compartilhada, então roda sem o cancelamento de quem a iniciou.
func (r *LeadRouter) RunQueueDrain(ctx context.Context) (int, error) {
	r.drainMu.Lock()
	r.drainReq++
	ticket := r.drainReq
	r.drainMu.Unlock()

	shared := context.WithoutCancel(ctx)
	total := 0
	for !r.drained(ticket) {
		v, err, _ := r.drains.Do("drain", func() (any, error) {
			return r.drainPending(shared)
		})
		n, _ := v.(int)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *LeadRouter) drainPending(ctx context.Context) (int, error) {
	total := 0
	for {
		r.drainMu.Lock()
		target := r.drainReq
		r.drainMu.Unlock()

		n, err := r.Queue.Drain(ctx)
		total += n
		if err != nil {
			return total, err
		}

		r.drainMu.Lock()
		r.drainDone = target
		more := r.drainReq > target
		r.drainMu.Unlock()
		if !more {
			return total, nil
		}
	}
}

func (r *LeadRouter) drained(ticket uint64) bool {
	r.drainMu.Lock()
	defer r.drainMu.Unlock()
	return r.drainDone >= ticket
}

func (r *LeadRouter) RunQueueMonitor(ctx context.Context) MonitorReport {
	return r.Monitor.Run(ctx)
}

func (r *LeadRouter) QueueStats(ctx context.Context) (QueueStats, error) {
	return r.Queue.Stats(ctx)
}

func (r *LeadRouter) FindLead(ctx context.Context, leadID string) (*entity.Lead, error) {
	return r.Lifecycle.FindByID(ctx, leadID)
}
