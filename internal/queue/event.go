// Package queue defines the messages exchanged over RabbitMQ and the worker
// that drains the outbound mail queue.
package queue

import "time"

// DefaultMailQueue is the durable queue outbound mail is published to.
const DefaultMailQueue = "mail.outbound"

// MailRequestedEvent asks the mail worker to deliver one plain text message.
type MailRequestedEvent struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	RequestedAt time.Time `json:"requested_at"`
}
