package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/queue"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	routingKey string
	declareErr error
	publishErr error
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, c.declareErr
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.routingKey = key
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newFakeQueueMailer(ch *fakeChannel) (*QueueMailer, *bool) {
	m := NewQueueMailer("amqp://unused", "", logging.Nop())
	connClosed := false
	m.dial = func(string) (amqpChannel, func() error, error) {
		return ch, func() error { connClosed = true; return nil }, nil
	}
	return m, &connClosed
}

func TestQueueMailer_PublishesPersistentEvent(t *testing.T) {
	ch := &fakeChannel{}
	m, connClosed := newFakeQueueMailer(ch)

	require.NoError(t, m.Send(context.Background(), "a@b.com", ResetSubject, "Your OTP is: 123456. Valid for 10 minutes."))

	assert.Equal(t, []string{queue.DefaultMailQueue}, ch.declared)
	assert.Equal(t, queue.DefaultMailQueue, ch.routingKey)
	require.Len(t, ch.published, 1)
	pub := ch.published[0]
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, "application/json", pub.ContentType)

	var ev queue.MailRequestedEvent
	require.NoError(t, json.Unmarshal(pub.Body, &ev))
	assert.Equal(t, "a@b.com", ev.To)
	assert.Equal(t, ResetSubject, ev.Subject)
	assert.False(t, ev.RequestedAt.IsZero())

	assert.True(t, ch.closed)
	assert.True(t, *connClosed)
}

func TestQueueMailer_Failures(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	m, _ := newFakeQueueMailer(ch)
	assert.EqualError(t, m.Send(context.Background(), "a@b.com", "s", "b"), "channel closed")

	ch = &fakeChannel{declareErr: errors.New("access refused")}
	m, _ = newFakeQueueMailer(ch)
	assert.EqualError(t, m.Send(context.Background(), "a@b.com", "s", "b"), "access refused")
	assert.Empty(t, ch.published)

	m = NewQueueMailer("amqp://unused", "custom.mail", nil)
	m.dial = func(string) (amqpChannel, func() error, error) { return nil, nil, errors.New("dial tcp: refused") }
	assert.EqualError(t, m.Send(context.Background(), "a@b.com", "s", "b"), "dial tcp: refused")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := LogMailer{Log: logging.New(&buf, false)}
	require.NoError(t, m.Send(context.Background(), "a@b.com", ResetSubject, "body"))
	assert.Contains(t, buf.String(), `"to":"a@b.com"`)
}
