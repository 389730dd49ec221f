package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/queue"
)

// LogMailer writes messages to the log instead of sending them.  Use it in
// development only: the OTP ends up in the log.
type LogMailer struct {
	Log logging.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Log.Info(ctx, "mail (not sent)", "to", to, "subject", subject, "body", body)
	return nil
}

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueMailer hands messages to the mail worker through RabbitMQ.  Send
// returns once the broker accepted the message, not once it was delivered.
type QueueMailer struct {
	url   string
	queue string
	log   logging.Logger
	dial  func(url string) (amqpChannel, func() error, error)
}

func NewQueueMailer(url, queueName string, log logging.Logger) *QueueMailer {
	if queueName == "" {
		queueName = queue.DefaultMailQueue
	}
	if log == nil {
		log = logging.Nop()
	}
	return &QueueMailer{url: url, queue: queueName, log: log, dial: dialChannel}
}

func dialChannel(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// Send publishes a persistent MailRequestedEvent.
func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	ch, closeConn, err := m.dial(m.url)
	if err != nil {
		m.log.Error(ctx, "rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = closeConn() }()
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(m.queue, true, false, false, false, nil); err != nil {
		m.log.Error(ctx, "rabbitmq: queue declare failed", "queue", m.queue, "error", err)
		return err
	}

	payload, err := json.Marshal(queue.MailRequestedEvent{
		To:          to,
		Subject:     subject,
		Body:        body,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		m.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		m.log.Error(ctx, "rabbitmq: publish failed", "queue", m.queue, "error", err)
		return err
	}
	return nil
}
