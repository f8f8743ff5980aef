package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadLifecycleUseCase cria leads e aplica as ações do vendedor (start, complete, reject).
type LeadLifecycleUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	Assign   *AssignLeadUseCase
	Admins   *AdminNotifier
}

func NewLeadLifecycleUseCase(leadRepo entity.LeadRepositoryInterface, assign *AssignLeadUseCase, admins *AdminNotifier) *LeadLifecycleUseCase {
	return &LeadLifecycleUseCase{
		LeadRepo: leadRepo,
		Assign:   assign,
		Admins:   admins,
	}
}

// Create grava o lead como pending, avisa os admins e tenta a atribuição
// imediata. Devolve o lead no estado em que ficou depois dessa tentativa.
func (uc *LeadLifecycleUseCase) Create(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead := entity.NewLead(
		input.ClientName,
		input.ClientEmail,
		input.ClientPhone,
		input.ProductID,
		input.Message,
		input.Priority,
	)

	if err := uc.LeadRepo.Create(ctx, lead); err != nil {
		return nil, storageError("criar lead", err)
	}
	log.Printf("✅ Lead criado: %s (%s)", lead.ID, lead.ClientEmail)

	uc.broadcast(ctx, func(adminID string) *entity.Notification {
		return leadReceivedNotification(adminID, lead)
	})

	if _, err := uc.Assign.Execute(ctx, lead.ID); err != nil {
		log.Printf("❌ Erro na atribuição do lead %s: %v", lead.ID, err)
		// Pending sem posição não é visto pela drenagem.
		if qErr := uc.fallbackToQueue(ctx, lead.ID); qErr != nil {
			log.Printf("❌ Lead %s ficou fora da fila: %v", lead.ID, qErr)
			// O lead já existe; quem chamou recebe o lead junto com o erro.
			return lead, err
		}
		log.Printf("📥 Lead %s enviado para a fila após falha na atribuição", lead.ID)
	}

	current, err := uc.LeadRepo.FindByID(ctx, lead.ID)
	if err != nil {
		return lead, classify("buscar lead", err)
	}
	return current, nil
}

func (uc *LeadLifecycleUseCase) fallbackToQueue(ctx context.Context, leadID string) error {
	if uc.Assign.Enqueue == nil {
		return errors.New("fila não configurada")
	}
	return uc.Assign.Enqueue.Execute(ctx, leadID)
}

// Apply executa a ação do vendedor. Só o vendedor dono do lead pode agir, e o
// dono e o status são conferidos de novo na escrita.
func (uc *LeadLifecycleUseCase) Apply(ctx context.Context, leadID, agentID string, action entity.AgentAction) (*entity.Lead, error) {
	ev, err := action.Event()
	if err != nil {
		return nil, classify("aplicar ação", err)
	}

	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("buscar lead", err)
	}

	if !lead.IsAssignedTo(agentID) {
		return nil, &DomainError{
			Code:    CodeInvalidTransition,
			Message: "lead não está atribuído a este vendedor",
			Err:     entity.ErrInvalidTransition,
		}
	}

	next, err := lead.Status.Next(ev)
	if err != nil {
		return nil, classify("aplicar ação", err)
	}

	owner := agentID
	updated, err := uc.LeadRepo.UpdateFields(ctx, leadID, entity.LeadUpdate{
		Status:       &next,
		IfStatusIn:   entity.SourceStatuses(ev),
		IfAssignedTo: &owner,
	})
	if err != nil {
		return nil, classify("atualizar lead", err)
	}

	log.Printf("✅ Lead %s: %s -> %s (vendedor %s)", leadID, lead.Status, next, agentID)

	if next.IsTerminal() {
		uc.broadcast(ctx, func(adminID string) *entity.Notification {
			return leadClosedNotification(adminID, updated, agentID)
		})
	}
	return updated, nil
}

func (uc *LeadLifecycleUseCase) FindByID(ctx context.Context, leadID string) (*entity.Lead, error) {
	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		return nil, classify("buscar lead", err)
	}
	return lead, nil
}

func (uc *LeadLifecycleUseCase) broadcast(ctx context.Context, build func(adminID string) *entity.Notification) {
	if uc.Admins == nil {
		return
	}
	adminIDs, err := uc.Admins.AdminIDs(ctx)
	if err != nil {
		log.Printf("⚠️ Não foi possível listar admins: %v", err)
		return
	}
	uc.Admins.Broadcast(ctx, adminIDs, build)
}
