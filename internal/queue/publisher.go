package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const attendanceQueueName = "attendance.events"

// Publisher publishes AttendanceEvents to RabbitMQ.  Every error is
// logged and returned so callers can discard it; the attendance flows
// treat publishing as fire-and-forget.
type Publisher struct {
	url string
	log *slog.Logger
}

// NewPublisher builds a Publisher for the given broker URL.
func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish sends the event to the attendance.events queue.  The queue
// is declared durable and messages persistent so they survive broker
// restarts.
func (p *Publisher) Publish(ctx context.Context, event AttendanceEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so the publisher works before any consumer ran.
	if _, err := ch.QueueDeclare(
		attendanceQueueName, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		p.log.Warn("rabbitmq queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("marshal attendance event failed", "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		attendanceQueueName, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq publish failed", "error", err)
		return err
	}
	return nil
}
