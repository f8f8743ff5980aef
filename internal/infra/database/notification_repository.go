package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	var data any
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("erro ao serializar data da notificação: %w", err)
		}
		data = string(raw)
	}

	query := `
		INSERT INTO notifications (id, recipient_id, title, body, type, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, n.ID, n.RecipientID, n.Title, n.Body, n.Type, data, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("erro ao gravar notificação: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET sent = TRUE, sent_at = NOW() WHERE id = $1 AND NOT sent`, id)
	if err != nil {
		return fmt.Errorf("erro ao marcar notificação %s como enviada: %w", id, err)
	}
	return nil
}
