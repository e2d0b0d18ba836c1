// Package mailer delivers the academy's transactional email.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outbound email. An empty From uses the sender's default.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// New returns a Resend-backed sender when apiKey is set and a logging sender
// otherwise.
func New(apiKey, from string, logger *slog.Logger) Sender {
	if strings.TrimSpace(apiKey) == "" {
		logger.Warn("mail API key not configured, outbound email will only be logged")
		return NewLogSender(logger)
	}
	return NewResendSender(apiKey, from)
}

func validate(msg *Message) error {
	if msg == nil || len(msg.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return ErrNoRecipient
		}
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Bodies are
// not logged since they carry one-time codes.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope.
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	s.logger.Info("email not sent (log sender)",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}
