package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type EnqueueLeadUseCase struct {
	Allocator entity.QueuePositionAllocator
	Admins    *AdminNotifier
	Metrics   LeadMetrics
}

func NewEnqueueLeadUseCase(allocator entity.QueuePositionAllocator, admins *AdminNotifier, metrics LeadMetrics) *EnqueueLeadUseCase {
	return &EnqueueLeadUseCase{
		Allocator: allocator,
		Admins:    admins,
		Metrics:   metrics,
	}
}

// Execute coloca o lead no fim da fila (max+1, ou 1 se a fila estiver vazia) e
// avisa os admins. Se o lead já tinha posição ele a mantém e ninguém é avisado
// de novo. Lead que saiu de pending no meio do caminho é ignorado.
func (uc *EnqueueLeadUseCase) Execute(ctx context.Context, leadID string) error {
	lead, allocated, err := uc.Allocator.AssignQueuePosition(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadConflict) {
			log.Printf("⚠️ Lead %s não está mais pending, não entra na fila", leadID)
			return nil
		}
		return classify("enfileirar lead", err)
	}

	if !allocated {
		log.Printf("ℹ️ Lead %s já está na fila (posição %d)", leadID, *lead.QueuePosition)
		return nil
	}

	log.Printf("📥 Lead %s adicionado à fila na posição %d", leadID, *lead.QueuePosition)
	metricsOrNoop(uc.Metrics).LeadQueued()

	if uc.Admins != nil {
		uc.notifyAdmins(ctx, lead)
	}
	return nil
}

func (uc *EnqueueLeadUseCase) notifyAdmins(ctx context.Context, lead *entity.Lead) {
	adminIDs, err := uc.Admins.AdminIDs(ctx)
	if err != nil {
		log.Printf("❌ Erro ao notificar admins sobre lead na fila: %v", err)
		return
	}
	if len(adminIDs) == 0 {
		return
	}
	sent := uc.Admins.Broadcast(ctx, adminIDs, func(adminID string) *entity.Notification {
		return leadQueuedNotification(adminID, lead)
	})
	log.Printf("✅ Admins notificados: lead %s na fila (%d/%d)", lead.ID, sent, len(adminIDs))
}
