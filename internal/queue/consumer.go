package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/trainfood-auth/internal/logging"
)

// Sender delivers one message.  mail.SMTPSender implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailWorker consumes MailRequestedEvents and hands them to a Sender.
type MailWorker struct {
	url     string
	queue   string
	sender  Sender
	log     logging.Logger
	timeout time.Duration

	dial func(url string) (*amqp.Connection, error)
}

func NewMailWorker(url, queueName string, sender Sender, log logging.Logger) *MailWorker {
	if queueName == "" {
		queueName = DefaultMailQueue
	}
	if log == nil {
		log = logging.Nop()
	}
	return &MailWorker{
		url:     url,
		queue:   queueName,
		sender:  sender,
		log:     log,
		timeout: 30 * time.Second,
		dial:    amqp.Dial,
	}
}

// Run connects to RabbitMQ, declares the mail queue (durable) and consumes
// it until ctx is cancelled, reconnecting with exponential backoff when the
// broker goes away.  A message that cannot be delivered is rejected without
// requeue so a poison message cannot spin the worker.
func (w *MailWorker) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := w.dial(w.url)
		if err != nil {
			w.log.Warn(ctx, "mail-worker: failed to dial broker", "error", err, "retry_in", backoff)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = w.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warn(ctx, "mail-worker: consume loop ended; reconnecting", "error", err)
		if err := sleep(ctx, 2*time.Second); err != nil {
			return err
		}
	}
}

func (w *MailWorker) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		w.log.Warn(ctx, "mail-worker: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(w.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	w.log.Info(ctx, "mail-worker: consuming", "queue", w.queue)
	return w.process(ctx, msgs)
}

// process drains msgs until the channel closes or ctx is cancelled.
func (w *MailWorker) process(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := w.handleMessage(ctx, d.Body); err != nil {
				w.log.Error(ctx, "mail-worker: handle message failed", "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *MailWorker) handleMessage(ctx context.Context, body []byte) error {
	var ev MailRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.To == "" {
		return errors.New("event has no recipient")
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(ctx, ev.To, ev.Subject, ev.Body); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	w.log.Debug(ctx, "mail-worker: delivered", "subject", ev.Subject)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
