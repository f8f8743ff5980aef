package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationLeadAssigned  NotificationType = "lead_assigned"
	NotificationLeadReceived  NotificationType = "lead_received"
	NotificationLeadQueued    NotificationType = "lead_queued"
	NotificationQueueAlert    NotificationType = "queue_alert"
	NotificationLeadUrgent    NotificationType = "lead_urgent"
	NotificationLeadCompleted NotificationType = "lead_completed"
	NotificationLeadRejected  NotificationType = "lead_rejected"
)

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Type        NotificationType `json:"type"`
	Data        map[string]any   `json:"data,omitempty"`
	Read        bool             `json:"read"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	Sent        bool             `json:"sent"`
	SentAt      *time.Time       `json:"sent_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func NewNotification(recipientID, title, body string, typ NotificationType, data map[string]any) *Notification {
	return &Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Type:        typ,
		Data:        data,
		CreatedAt:   time.Now(),
	}
}

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *Notification) error
	MarkSent(ctx context.Context, id string) error
}
