package usecase

import (
	"fmt"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Textos das notificações. O campo data vai junto para o front montar links.

func leadAssignedNotification(agentID string, lead *entity.Lead) *entity.Notification {
	return entity.NewNotification(
		agentID,
		"Novo Lead Atribuído",
		fmt.Sprintf("Você recebeu um novo lead de %s", lead.DisplayName("um cliente")),
		entity.NotificationLeadAssigned,
		map[string]any{
			"leadId":     lead.ID,
			"clientName": lead.ClientName,
			"productId":  lead.ProductID,
		},
	)
}

func leadReceivedNotification(adminID string, lead *entity.Lead) *entity.Notification {
	return entity.NewNotification(
		adminID,
		"📋 Novo Lead Recebido",
		fmt.Sprintf("De: %s", lead.DisplayName("Cliente")),
		entity.NotificationLeadReceived,
		map[string]any{
			"leadId":      lead.ID,
			"clientName":  lead.ClientName,
			"clientEmail": lead.ClientEmail,
			"productId":   lead.ProductID,
		},
	)
}

func leadQueuedNotification(adminID string, lead *entity.Lead) *entity.Notification {
	data := map[string]any{
		"leadId":     lead.ID,
		"clientName": lead.ClientName,
	}
	if lead.QueuePosition != nil {
		data["queuePosition"] = *lead.QueuePosition
	}
	return entity.NewNotification(
		adminID,
		"⚠️ Lead na Fila - Sem vendedores",
		fmt.Sprintf("%s está aguardando atribuição", lead.DisplayName("Um cliente")),
		entity.NotificationLeadQueued,
		data,
	)
}

func queueAlertNotification(adminID string, queueSize int) *entity.Notification {
	return entity.NewNotification(
		adminID,
		"📊 Alerta de Fila",
		fmt.Sprintf("Há %d leads aguardando atribuição", queueSize),
		entity.NotificationQueueAlert,
		map[string]any{"queueSize": queueSize},
	)
}

func leadUrgentNotification(adminID string, lead *entity.Lead, waitMinutes int) *entity.Notification {
	return entity.NewNotification(
		adminID,
		"🔴 Lead Urgente na Fila",
		fmt.Sprintf("%s aguardando há %d minutos", lead.DisplayName("Um cliente"), waitMinutes),
		entity.NotificationLeadUrgent,
		map[string]any{
			"leadId":     lead.ID,
			"clientName": lead.ClientName,
			"waitTime":   waitMinutes,
		},
	)
}

func leadClosedNotification(adminID string, lead *entity.Lead, agentID string) *entity.Notification {
	typ := entity.NotificationLeadCompleted
	title := "✅ Lead Concluído"
	verb := "concluiu"
	if lead.Status == entity.LeadStatusRejected {
		typ = entity.NotificationLeadRejected
		title = "❌ Lead Rejeitado"
		verb = "rejeitou"
	}
	return entity.NewNotification(
		adminID,
		title,
		fmt.Sprintf("Vendedor %s %s o lead de %s", agentID, verb, lead.DisplayName("um cliente")),
		typ,
		map[string]any{
			"leadId":     lead.ID,
			"agentId":    agentID,
			"status":     string(lead.Status),
			"clientName": lead.ClientName,
		},
	)
}
