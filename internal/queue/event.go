// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailQueueName is the durable queue the mailer consumer drains.
const EmailQueueName = "account.emails"

// Email template names understood by the mailer.
const (
	TemplateVerifyEmail = "verify_email"
	TemplateResetOTP    = "reset_otp"
)

// EmailEvent is published whenever the account service needs an email
// delivered.  It carries enough for the mailer to render and send the
// message without querying the primary database.
type EmailEvent struct {
	To       string            `json:"to"`
	Name     string            `json:"name"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
	QueuedAt string            `json:"queued_at"`
}
