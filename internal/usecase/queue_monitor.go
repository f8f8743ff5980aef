package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	DefaultQueueAlertThreshold = 3
	DefaultUrgentWait          = 10 * time.Minute
)

// QueueMonitorUseCase é a checagem periódica da fila. Só lê leads; o resultado
// são notificações para os admins.
type QueueMonitorUseCase struct {
	LeadRepo       entity.LeadRepositoryInterface
	Admins         *AdminNotifier
	Metrics        LeadMetrics
	AlertThreshold int
	UrgentAfter    time.Duration
	Now            func() time.Time
}

type MonitorReport struct {
	QueueSize   int
	AlertsSent  int
	UrgentLeads int
	UrgentSent  int
}

func NewQueueMonitorUseCase(leadRepo entity.LeadRepositoryInterface, admins *AdminNotifier, metrics LeadMetrics) *QueueMonitorUseCase {
	return &QueueMonitorUseCase{
		LeadRepo:       leadRepo,
		Admins:         admins,
		Metrics:        metrics,
		AlertThreshold: DefaultQueueAlertThreshold,
		UrgentAfter:    DefaultUrgentWait,
		Now:            time.Now,
	}
}

// Run nunca devolve erro: falhas são logadas e a próxima execução tenta de novo.
func (uc *QueueMonitorUseCase) Run(ctx context.Context) MonitorReport {
	var report MonitorReport

	queued, err := uc.LeadRepo.FindMany(ctx, entity.QueueFilter(), entity.SortCreatedAtAsc)
	if err != nil {
		log.Printf("❌ Monitor de fila: erro ao carregar fila: %v", err)
		return report
	}

	report.QueueSize = len(queued)
	metricsOrNoop(uc.Metrics).QueueSize(len(queued))

	if len(queued) == 0 {
		return report
	}

	now := uc.now()
	var urgent []*entity.Lead
	for _, lead := range queued {
		if lead.WaitTime(now) >= uc.urgentAfter() {
			urgent = append(urgent, lead)
		}
	}
	report.UrgentLeads = len(urgent)

	overThreshold := len(queued) >= uc.threshold()
	if !overThreshold && len(urgent) == 0 {
		return report
	}

	adminIDs, err := uc.Admins.AdminIDs(ctx)
	if err != nil {
		log.Printf("❌ Monitor de fila: erro ao listar admins: %v", err)
		return report
	}
	if len(adminIDs) == 0 {
		log.Printf("⚠️ Monitor de fila: %d leads na fila e nenhum admin cadastrado", len(queued))
		return report
	}

	if overThreshold {
		size := len(queued)
		report.AlertsSent = uc.Admins.Broadcast(ctx, adminIDs, func(adminID string) *entity.Notification {
			return queueAlertNotification(adminID, size)
		})
		log.Printf("📊 Alerta de fila enviado: %d leads aguardando", size)
	}

	for _, lead := range urgent {
		minutes := int(lead.WaitTime(now) / time.Minute)
		report.UrgentSent += uc.Admins.Broadcast(ctx, adminIDs, func(adminID string) *entity.Notification {
			return leadUrgentNotification(adminID, lead, minutes)
		})
		log.Printf("🔴 Lead urgente %s aguardando há %d minutos", lead.ID, minutes)
	}

	return report
}

func (uc *QueueMonitorUseCase) threshold() int {
	if uc.AlertThreshold <= 0 {
		return DefaultQueueAlertThreshold
	}
	return uc.AlertThreshold
}

func (uc *QueueMonitorUseCase) urgentAfter() time.Duration {
	if uc.UrgentAfter <= 0 {
		return DefaultUrgentWait
	}
	return uc.UrgentAfter
}

func (uc *QueueMonitorUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}
