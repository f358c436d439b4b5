package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPEmitter publishes MatchCreated events as JSON onto a RabbitMQ
// queue for the notification service to consume. Publish failures are
// logged and swallowed: the match is committed regardless.
type AMQPEmitter struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

// NewAMQPEmitter dials the broker and declares the durable event queue.
func NewAMQPEmitter(url, queue string, logger *slog.Logger) (*AMQPEmitter, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPEmitter{
		conn:    conn,
		channel: channel,
		queue:   queue,
		logger:  logger,
	}, nil
}

func (e *AMQPEmitter) EmitMatchCreated(ctx context.Context, ev MatchCreated) {
	body, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error("failed to marshal match event", "err", err)
		return
	}

	err = e.channel.PublishWithContext(ctx,
		"",      // default exchange
		e.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		// fire-and-forget: the match stays committed
		e.logger.Error("failed to publish match event", "match_id", ev.MatchID, "err", err)
	}
}

func (e *AMQPEmitter) Close() error {
	if err := e.channel.Close(); err != nil {
		e.conn.Close()
		return err
	}
	return e.conn.Close()
}
