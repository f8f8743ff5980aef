package usecase

import (
	"context"
	"log"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Notifier entrega uma notificação. Implementações não podem bloquear quem chama
// (a de produção só enfileira). O erro devolvido é apenas logado.
type Notifier interface {
	Notify(ctx context.Context, n *entity.Notification) error
}

// LeadMetrics recebe os contadores do roteamento. Pode ser nil.
type LeadMetrics interface {
	LeadAssigned()
	LeadQueued()
	QueueSize(n int)
	NotificationFailed(t entity.NotificationType)
}

type noopMetrics struct{}

func (noopMetrics) LeadAssigned()                              {}
func (noopMetrics) LeadQueued()                                {}
func (noopMetrics) QueueSize(int)                              {}
func (noopMetrics) NotificationFailed(entity.NotificationType) {}

func metricsOrNoop(m LeadMetrics) LeadMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// notify nunca devolve erro: falha de notificação não desfaz nem bloqueia a mudança de estado.
func notify(ctx context.Context, notifier Notifier, metrics LeadMetrics, n *entity.Notification) bool {
	if notifier == nil {
		return false
	}
	if err := notifier.Notify(ctx, n); err != nil {
		log.Printf("⚠️ Falha ao notificar %s (%s): %v", n.RecipientID, n.Type, err)
		metricsOrNoop(metrics).NotificationFailed(n.Type)
		return false
	}
	return true
}
