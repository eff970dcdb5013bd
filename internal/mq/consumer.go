package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки сообщения.
// Возвращает error, если обработка не удалась (сообщение будет nack).
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение с методами ack/nack.
// Сообщение подтверждается ровно один раз: после первого Ack или
// Nack остальные вызовы — no-op. Handler может сам отправить
// сообщение в DLQ через Nack(false) и вернуть nil.
type Delivery struct {
	// Message — распарсенное сообщение.
	Message Message

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery

	settled bool
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	if d.settled {
		return nil
	}
	d.settled = true
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение.
// requeue=true — вернуть в очередь, false — отправить в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	if d.settled {
		return nil
	}
	d.settled = true
	return d.Raw.Nack(false, requeue)
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — количество неподтверждённых сообщений на consumer.
	Prefetch int
}

// Consumer потребляет сообщения из очереди RabbitMQ.
// Переживает разрывы соединения: после reconnect заново
// открывает поток доставок.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает потребление сообщений. Блокирует до отмены
// контекста или вызова Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := c.openStream()
		if err != nil {
			c.logger.Error("failed to open delivery stream", "queue", c.queue, "error", err)
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consumer started", "queue", c.queue)

		if err := c.drain(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("delivery stream closed, waiting for reconnect", "queue", c.queue)
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Consumer) awaitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer", "queue", c.queue)
		return nil
	}
}

// openStream выставляет prefetch и начинает потребление из очереди.
func (c *Consumer) openStream() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack (ack вручную)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// drain читает поток доставок до закрытия или отмены контекста.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			c.dispatch(ctx, raw)
		}
	}
}

// dispatch разбирает сообщение и передаёт его handler-у.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message",
			"queue", c.queue,
			"error", err,
			"body", string(raw.Body),
		)
		// Битый конверт — в DLQ, retry не поможет
		raw.Nack(false, false)
		return
	}

	delivery := &Delivery{Message: msg, Raw: raw}

	c.logger.Debug("received message",
		"queue", c.queue,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	if err := c.handler(ctx, delivery); err != nil {
		c.logger.Error("handler failed",
			"queue", c.queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		// Ошибка обработки — возвращаем в очередь
		delivery.Nack(true)
		return
	}

	delivery.Ack()
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// Payload мог быть декодирован как map — прогоняем через json заново
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}

	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
