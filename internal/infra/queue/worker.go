package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Mailer entrega a notificação por e-mail.
type Mailer interface {
	SendNotification(to, name string, n *entity.Notification) error
}

// Consumer define o pedaço do *amqp.Channel usado para consumir.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ErrMalformedMessage: mensagem que nunca vai ser processada; vai direto para a DLQ.
var ErrMalformedMessage = errors.New("mensagem inválida")

type Worker struct {
	Channel   Consumer
	Directory entity.AgentDirectoryInterface
	Mailer    Mailer
	Repo      entity.NotificationRepositoryInterface
}

func NewWorker(ch Consumer, directory entity.AgentDirectoryInterface, mailer Mailer, repo entity.NotificationRepositoryInterface) *Worker {
	return &Worker{
		Channel:   ch,
		Directory: directory,
		Mailer:    mailer,
		Repo:      repo,
	}
}

// Start consome a fila até o ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	log.Printf(" [*] Worker rodando e aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 [WORKER] Encerrando consumidor de notificações")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("canal de entregas fechado")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	log.Printf("📥 [WORKER] Notificação recebida do RabbitMQ")

	if err := w.Process(ctx, d.Body); err != nil {
		log.Printf("❌ [WORKER] Erro ao entregar notificação: %s", err)
		// Rejeita sem requeue: a mensagem vai para a DLQ e não trava a fila.
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

// Process entrega uma notificação por e-mail e marca como enviada.
// Destinatário inexistente ou sem e-mail não é erro: não há o que reprocessar.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var n entity.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if n.ID == "" || n.RecipientID == "" {
		return fmt.Errorf("%w: id ou destinatário vazio", ErrMalformedMessage)
	}

	recipient, err := w.Directory.FindByID(ctx, n.RecipientID)
	if err != nil {
		if errors.Is(err, entity.ErrAgentNotFound) {
			log.Printf("⚠️ [WORKER] Destinatário %s não existe, descartando notificação %s", n.RecipientID, n.ID)
			return nil
		}
		return fmt.Errorf("erro ao buscar destinatário: %w", err)
	}
	if recipient.Email == "" {
		log.Printf("⚠️ [WORKER] Destinatário %s sem e-mail, notificação %s não enviada", n.RecipientID, n.ID)
		return nil
	}

	if err := w.Mailer.SendNotification(recipient.Email, recipient.Name, &n); err != nil {
		return err
	}

	if err := w.Repo.MarkSent(ctx, n.ID); err != nil {
		// O e-mail já saiu; repetir a mensagem mandaria de novo.
		log.Printf("⚠️ [WORKER] E-mail enviado mas falhou ao marcar %s: %v", n.ID, err)
	}

	log.Printf("✅ [WORKER] Notificação %s (%s) enviada para %s", n.ID, n.Type, recipient.Email)
	return nil
}
