package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const adminFanOutLimit = 8

// AdminNotifier envia a mesma notificação para todos os admins. A lista de admins
// é lida uma vez por rajada (nunca uma consulta por notificação).
type AdminNotifier struct {
	Directory entity.AgentDirectoryInterface
	Notifier  Notifier
	Metrics   LeadMetrics
}

func NewAdminNotifier(directory entity.AgentDirectoryInterface, notifier Notifier, metrics LeadMetrics) *AdminNotifier {
	return &AdminNotifier{
		Directory: directory,
		Notifier:  notifier,
		Metrics:   metrics,
	}
}

func (a *AdminNotifier) AdminIDs(ctx context.Context) ([]string, error) {
	admins, err := a.Directory.ListByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar admins: %w", err)
	}
	ids := make([]string, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}
	return ids, nil
}

// Broadcast dispara uma notificação por admin e devolve quantas foram aceitas.
// Cada envio é independente: a falha de um não impede os outros.
func (a *AdminNotifier) Broadcast(ctx context.Context, adminIDs []string, build func(adminID string) *entity.Notification) int {
	var delivered atomic.Int64

	var g errgroup.Group
	g.SetLimit(adminFanOutLimit)
	for _, id := range adminIDs {
		adminID := id
		g.Go(func() error {
			if notify(ctx, a.Notifier, a.Metrics, build(adminID)) {
				delivered.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(delivered.Load())
}
