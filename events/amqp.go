package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"finledger/ledger"
)

// Publisher mirrors ledger change events to an AMQP exchange so external
// consumers (sync workers, notification services) can react to commits.
type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewPublisher connects to the broker and declares a durable direct exchange
// and queue bound by the queue name.
func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,
		p.queueName, // routing key, same as queue name for a direct exchange
		p.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishChange publishes a ledger change event as a persistent JSON message.
func (p *Publisher) PublishChange(ctx context.Context, ev ledger.ChangeEvent) error {
	body, err := NewLedgerEventMessage(ev).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		p.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published ledger event",
		"kind", ev.Kind.String(),
		"transaction_id", ev.TransactionID,
		"exchange", p.exchangeName,
		"queue", p.queueName)
	return nil
}

// Attach wires the publisher to a store. Publish failures are logged, never
// propagated into the write path.
func (p *Publisher) Attach(ctx context.Context, store *ledger.Store) {
	store.Subscribe(func(ev ledger.ChangeEvent) {
		if err := p.PublishChange(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger event",
				"kind", ev.Kind.String(),
				"transaction_id", ev.TransactionID,
				"error", err)
		}
	})
}

// Close tears down the channel and connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}
