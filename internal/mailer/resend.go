package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends mail through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender returns a sender using apiKey. from is used for messages
// that do not set their own From.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers msg. Resend errors are returned unchanged apart from wrapping.
func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = s.from
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
