package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const loadCountLimit = 4

// AssignLeadUseCase escolhe o vendedor disponível com menos leads em aberto.
// Sem vendedor o lead vai para a fila.
type AssignLeadUseCase struct {
	LeadRepo  entity.LeadRepositoryInterface
	Directory entity.AgentDirectoryInterface
	Enqueue   *EnqueueLeadUseCase
	Notifier  Notifier
	Metrics   LeadMetrics
	Now       func() time.Time
}

func NewAssignLeadUseCase(
	leadRepo entity.LeadRepositoryInterface,
	directory entity.AgentDirectoryInterface,
	enqueue *EnqueueLeadUseCase,
	notifier Notifier,
	metrics LeadMetrics,
) *AssignLeadUseCase {
	return &AssignLeadUseCase{
		LeadRepo:  leadRepo,
		Directory: directory,
		Enqueue:   enqueue,
		Notifier:  notifier,
		Metrics:   metrics,
		Now:       time.Now,
	}
}

// Execute devolve true se o lead foi atribuído. false com erro nil cobre lead
// inexistente, lead fora de pending, lead enfileirado e corrida perdida.
func (uc *AssignLeadUseCase) Execute(ctx context.Context, leadID string) (bool, error) {
	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			log.Printf("⚠️ Lead %s não encontrado para atribuição", leadID)
			return false, nil
		}
		return false, storageError("buscar lead", err)
	}

	// Só pending entra no roteamento; repetir a chamada num lead já atribuído não muda nada.
	if lead.Status != entity.LeadStatusPending {
		return false, nil
	}

	sellers, err := uc.Directory.FindByRoleAndAvailability(ctx, entity.RoleSeller, entity.AvailabilityAvailable)
	if err != nil {
		return false, storageError("buscar vendedores disponíveis", err)
	}

	candidates := make([]*entity.Agent, 0, len(sellers))
	for _, s := range sellers {
		if s.CanReceiveLeads() {
			candidates = append(candidates, s)
		}
	}

	if len(candidates) == 0 {
		if len(sellers) == 0 {
			log.Printf("⚠️ Nenhum vendedor disponível. Lead %s vai para a fila", leadID)
		} else {
			log.Printf("⚠️ Nenhum vendedor selecionável entre %d disponíveis. Lead %s vai para a fila", len(sellers), leadID)
		}
		return false, uc.enqueue(ctx, leadID)
	}

	chosen, load, err := uc.leastLoaded(ctx, candidates)
	if err != nil {
		return false, err
	}

	now := uc.now()
	assigned := entity.LeadStatusAssigned
	agentID := chosen.ID
	updated, err := uc.LeadRepo.UpdateFields(ctx, leadID, entity.LeadUpdate{
		Status:             &assigned,
		AssignedTo:         &agentID,
		AssignedAt:         &now,
		ClearQueuePosition: true,
		IfStatusIn:         []entity.LeadStatus{entity.LeadStatusPending},
	})
	if err != nil {
		if errors.Is(err, entity.ErrLeadConflict) || errors.Is(err, entity.ErrLeadNotFound) {
			log.Printf("⚠️ Lead %s mudou durante a atribuição, ignorando", leadID)
			return false, nil
		}
		return false, storageError("atribuir lead", err)
	}

	log.Printf("✅ Lead %s atribuído ao vendedor %s (%d leads ativos)", leadID, agentID, load)
	metricsOrNoop(uc.Metrics).LeadAssigned()

	notify(ctx, uc.Notifier, uc.Metrics, leadAssignedNotification(agentID, updated))

	return true, nil
}

// leastLoaded conta os leads assigned/in_progress de cada candidato e devolve o
// primeiro com a menor contagem, respeitando a ordem do diretório.
func (uc *AssignLeadUseCase) leastLoaded(ctx context.Context, candidates []*entity.Agent) (*entity.Agent, int, error) {
	loads := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadCountLimit)
	for i, c := range candidates {
		i, agentID := i, c.ID
		g.Go(func() error {
			n, err := uc.LeadRepo.CountWhere(gctx, entity.LeadFilter{
				Statuses:   entity.ActiveLeadStatuses,
				AssignedTo: agentID,
			})
			if err != nil {
				return err
			}
			loads[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, storageError("contar leads do vendedor", err)
	}

	best := 0
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[best] {
			best = i
		}
	}
	return candidates[best], loads[best], nil
}

func (uc *AssignLeadUseCase) enqueue(ctx context.Context, leadID string) error {
	if uc.Enqueue == nil {
		return nil
	}
	return uc.Enqueue.Execute(ctx, leadID)
}

func (uc *AssignLeadUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}
