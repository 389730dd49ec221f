package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iliyamo/trainfood-auth/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sentMail struct{ to, subject, body string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeAck struct {
	mu    sync.Mutex
	acks  int
	nacks int
}

func (a *fakeAck) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAck) Nack(uint64, bool, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	return nil
}

func (a *fakeAck) Reject(uint64, bool) error { return nil }

func delivery(t *testing.T, ack amqp.Acknowledger, ev any) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestMailWorker_ProcessAcksAndNacks(t *testing.T) {
	sender := &fakeSender{}
	w := NewMailWorker("amqp://unused", "", sender, logging.Nop())
	ack := &fakeAck{}

	msgs := make(chan amqp.Delivery, 3)
	msgs <- delivery(t, ack, MailRequestedEvent{To: "a@b.com", Subject: "Password Reset OTP", Body: "Your OTP is: 123456."})
	msgs <- amqp.Delivery{Acknowledger: ack, Body: []byte("not json")}
	msgs <- delivery(t, ack, MailRequestedEvent{Subject: "no recipient"})
	close(msgs)

	err := w.process(context.Background(), msgs)
	assert.EqualError(t, err, "deliveries channel closed")
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 2, ack.nacks)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMail{"a@b.com", "Password Reset OTP", "Your OTP is: 123456."}, sender.sent[0])
}

func TestMailWorker_SendFailureIsNacked(t *testing.T) {
	w := NewMailWorker("amqp://unused", "", &fakeSender{err: errors.New("smtp down")}, logging.Nop())
	ack := &fakeAck{}

	msgs := make(chan amqp.Delivery, 1)
	msgs <- delivery(t, ack, MailRequestedEvent{To: "a@b.com"})
	close(msgs)

	_ = w.process(context.Background(), msgs)
	assert.Equal(t, 0, ack.acks)
	assert.Equal(t, 1, ack.nacks)
}

func TestMailWorker_ProcessStopsOnCancel(t *testing.T) {
	w := NewMailWorker("amqp://unused", "", &fakeSender{}, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.process(ctx, make(chan amqp.Delivery)) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("process did not stop")
	}
}

func TestMailWorker_RunRetriesUntilCancelled(t *testing.T) {
	w := NewMailWorker("amqp://unused", DefaultMailQueue, &fakeSender{}, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	var attempts int
	w.dial = func(string) (*amqp.Connection, error) {
		attempts++
		cancel()
		return nil, errors.New("connection refused")
	}

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
