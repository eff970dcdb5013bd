package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunPending    MessageType = "run.pending"
	MessageTypeStepReady     MessageType = "step.ready"
	MessageTypeStepCompleted MessageType = "step.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunPendingPayload — payload для сообщения о новом run.
type RunPendingPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// StepReadyPayload — payload для сообщения о готовом шаге.
type StepReadyPayload struct {
	StepID uuid.UUID `json:"step_id"`
	RunID  uuid.UUID `json:"run_id"`
}

// StepCompletedPayload — payload для сообщения о завершённом шаге.
type StepCompletedPayload struct {
	StepID uuid.UUID `json:"step_id"`
	RunID  uuid.UUID `json:"run_id"`
	Seq    int       `json:"seq"`
	Status string    `json:"status"` // SUCCEEDED или FAILED
	Error  string    `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunPending публикует событие о новом run, ожидающем выполнения.
// Потребитель: Orchestrator.
func (p *Publisher) PublishRunPending(ctx context.Context, runID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunPending,
		Payload:   RunPendingPayload{RunID: runID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyPending, msg)
}

// PublishStepReady публикует событие о шаге, готовом к выполнению.
// Потребитель: Worker.
func (p *Publisher) PublishStepReady(ctx context.Context, stepID, runID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeStepReady,
		Payload:   StepReadyPayload{StepID: stepID, RunID: runID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeSteps, RoutingKeyReady, msg)
}

// PublishStepCompleted публикует событие о завершённом шаге.
// Потребитель: Orchestrator.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeStepCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeSteps, RoutingKeyCompleted, msg)
}
