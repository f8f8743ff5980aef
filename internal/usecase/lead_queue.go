package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadQueueUseCase drena a fila, faz a reatribuição manual e calcula as estatísticas.
type LeadQueueUseCase struct {
	LeadRepo  entity.LeadRepositoryInterface
	Directory entity.AgentDirectoryInterface
	Assign    *AssignLeadUseCase
	Notifier  Notifier
	Metrics   LeadMetrics
	Now       func() time.Time

	// Com true a drenagem para no primeiro lead que não foi atribuído.
	StopOnFirstFailure bool
}

func NewLeadQueueUseCase(
	leadRepo entity.LeadRepositoryInterface,
	directory entity.AgentDirectoryInterface,
	assign *AssignLeadUseCase,
	notifier Notifier,
	metrics LeadMetrics,
) *LeadQueueUseCase {
	return &LeadQueueUseCase{
		LeadRepo:           leadRepo,
		Directory:          directory,
		Assign:             assign,
		Notifier:           notifier,
		Metrics:            metrics,
		Now:                time.Now,
		StopOnFirstFailure: true,
	}
}

// Drain tenta atribuir os leads da fila na ordem (prioridade desc, posição asc)
// e devolve quantos foram atribuídos.
func (uc *LeadQueueUseCase) Drain(ctx context.Context) (int, error) {
	queued, err := uc.LeadRepo.FindMany(ctx, entity.QueueFilter(), entity.SortQueueOrder)
	if err != nil {
		return 0, storageError("carregar fila", err)
	}
	if len(queued) == 0 {
		return 0, nil
	}

	log.Printf("🔄 Processando fila: %d leads aguardando", len(queued))

	assigned := 0
	for _, lead := range queued {
		if err := ctx.Err(); err != nil {
			return assigned, err
		}

		ok, err := uc.Assign.Execute(ctx, lead.ID)
		if err != nil {
			log.Printf("❌ Erro ao atribuir lead %s da fila: %v", lead.ID, err)
		}
		if ok {
			assigned++
			continue
		}
		if uc.StopOnFirstFailure {
			break
		}
	}

	log.Printf("✅ Fila processada: %d/%d leads atribuídos", assigned, len(queued))
	return assigned, nil
}

// Reassign é a ação manual do admin. Com targetAgentID o lead vai direto para
// esse vendedor. Sem target o lead volta para pending e passa de novo pela
// atribuição automática; se essa etapa falhar por erro de banco a atribuição
// anterior é restaurada.
func (uc *LeadQueueUseCase) Reassign(ctx context.Context, leadID, targetAgentID string) (bool, error) {
	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		return false, classify("buscar lead", err)
	}

	if targetAgentID != "" {
		return uc.reassignTo(ctx, lead, targetAgentID)
	}
	return uc.requeue(ctx, lead)
}

func (uc *LeadQueueUseCase) reassignTo(ctx context.Context, lead *entity.Lead, targetAgentID string) (bool, error) {
	if _, err := lead.Status.Next(entity.EventReassign); err != nil {
		return false, classify("reatribuir lead", err)
	}

	agent, err := uc.Directory.FindByID(ctx, targetAgentID)
	if err != nil {
		if errors.Is(err, entity.ErrAgentNotFound) {
			log.Printf("⚠️ Vendedor %s não encontrado para reatribuição do lead %s", targetAgentID, lead.ID)
			return false, nil
		}
		return false, storageError("buscar vendedor", err)
	}
	if !agent.IsSeller() {
		log.Printf("⚠️ Usuário %s não é vendedor, reatribuição do lead %s ignorada", targetAgentID, lead.ID)
		return false, nil
	}

	now := uc.now()
	assigned := entity.LeadStatusAssigned
	updated, err := uc.LeadRepo.UpdateFields(ctx, lead.ID, entity.LeadUpdate{
		Status:             &assigned,
		AssignedTo:         &targetAgentID,
		AssignedAt:         &now,
		ClearQueuePosition: true,
		IfStatusIn:         entity.SourceStatuses(entity.EventReassign),
	})
	if err != nil {
		return false, classify("reatribuir lead", err)
	}

	log.Printf("✅ Lead %s reatribuído manualmente ao vendedor %s", lead.ID, targetAgentID)
	metricsOrNoop(uc.Metrics).LeadAssigned()
	notify(ctx, uc.Notifier, uc.Metrics, leadAssignedNotification(targetAgentID, updated))
	return true, nil
}

func (uc *LeadQueueUseCase) requeue(ctx context.Context, lead *entity.Lead) (bool, error) {
	if _, err := lead.Status.Next(entity.EventRequeue); err != nil {
		return false, classify("devolver lead para a fila", err)
	}

	var assigned bool

	saga := NewLeadSaga(uc.LeadRepo, lead)
	saga.Step("reset_assignment", func(ctx context.Context) error {
		pending := entity.LeadStatusPending
		_, err := uc.LeadRepo.UpdateFields(ctx, lead.ID, entity.LeadUpdate{
			Status:          &pending,
			ClearAssignedTo: true,
			ClearAssignedAt: true,
			IfStatusIn:      entity.SourceStatuses(entity.EventRequeue),
		})
		return err
	}, saga.Restore)
	saga.Step("auto_assign", func(ctx context.Context) error {
		ok, err := uc.Assign.Execute(ctx, lead.ID)
		assigned = ok
		return err
	}, nil)

	if err := saga.Run(ctx); err != nil {
		log.Printf("❌ Erro ao reatribuir lead %s: %v", lead.ID, err)
		return false, classify("reatribuir lead", err)
	}

	if assigned {
		log.Printf("✅ Lead %s reatribuído automaticamente", lead.ID)
	} else {
		log.Printf("📥 Lead %s voltou para a fila", lead.ID)
	}
	return assigned, nil
}

func (uc *LeadQueueUseCase) Stats(ctx context.Context) (QueueStats, error) {
	queued, err := uc.LeadRepo.FindMany(ctx, entity.QueueFilter(), entity.SortCreatedAtAsc)
	if err != nil {
		return QueueStats{}, storageError("carregar fila", err)
	}
	if len(queued) == 0 {
		return QueueStats{}, nil
	}

	now := uc.now()
	var total time.Duration
	oldest := queued[0].CreatedAt
	for _, lead := range queued {
		total += lead.WaitTime(now)
		if lead.CreatedAt.Before(oldest) {
			oldest = lead.CreatedAt
		}
	}

	return QueueStats{
		TotalInQueue:        len(queued),
		AverageWaitMinutes:  total.Minutes() / float64(len(queued)),
		OldestLeadCreatedAt: &oldest,
	}, nil
}

func (uc *LeadQueueUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}
