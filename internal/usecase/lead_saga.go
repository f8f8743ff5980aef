package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadSaga executa etapas em ordem sobre um único lead. Se uma etapa falhar,
// as etapas já concluídas são desfeitas de trás pra frente.
// O snapshot do lead é tirado na criação e é o que Restore grava de volta.
type LeadSaga struct {
	repo  entity.LeadRepositoryInterface
	prev  *entity.Lead
	steps []sagaStep
}

type sagaStep struct {
	name string
	do   func(context.Context) error
	undo func(context.Context) error
}

func NewLeadSaga(repo entity.LeadRepositoryInterface, lead *entity.Lead) *LeadSaga {
	return &LeadSaga{
		repo: repo,
		prev: lead.Clone(),
	}
}

// Step registra uma etapa. undo pode ser nil quando não há o que desfazer.
func (s *LeadSaga) Step(name string, do, undo func(context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, do: do, undo: undo})
}

// Restore devolve o lead ao snapshot, desde que ele continue pending.
// Se alguém o atribuiu nesse meio tempo, a atribuição nova prevalece.
func (s *LeadSaga) Restore(ctx context.Context) error {
	_, err := s.repo.UpdateFields(ctx, s.prev.ID, restoreUpdate(s.prev))
	return err
}

func (s *LeadSaga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.do(ctx); err != nil {
			s.rollback(ctx, i)
			return fmt.Errorf("etapa '%s' do lead %s falhou: %w (%d etapas desfeitas)", step.name, s.prev.ID, err, i)
		}
	}
	return nil
}

func (s *LeadSaga) rollback(ctx context.Context, failedAt int) {
	// A falha da etapa não deve cancelar a compensação.
	ctx = context.WithoutCancel(ctx)
	for i := failedAt - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.undo == nil {
			continue
		}
		if err := step.undo(ctx); err != nil {
			log.Printf("⚠️ Compensação da etapa '%s' do lead %s falhou: %v (risco de inconsistência!)", step.name, s.prev.ID, err)
		}
	}
}

func restoreUpdate(prev *entity.Lead) entity.LeadUpdate {
	status := prev.Status
	u := entity.LeadUpdate{
		Status:     &status,
		IfStatusIn: []entity.LeadStatus{entity.LeadStatusPending},
	}
	if prev.AssignedTo != nil {
		u.AssignedTo = prev.AssignedTo
	} else {
		u.ClearAssignedTo = true
	}
	if prev.AssignedAt != nil {
		u.AssignedAt = prev.AssignedAt
	} else {
		u.ClearAssignedAt = true
	}
	if prev.QueuePosition != nil {
		u.QueuePosition = prev.QueuePosition
	} else {
		u.ClearQueuePosition = true
	}
	return u
}
