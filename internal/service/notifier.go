package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

// Notifier sends informational email. Failures are logged and never
// returned: a notification must not fail the request that triggered it.
type Notifier struct {
	mail       mailer.Sender
	metrics    *metrics.Metrics
	logger     *slog.Logger
	adminEmail string
	alertsFrom string
}

func NewNotifier(mail mailer.Sender, m *metrics.Metrics, logger *slog.Logger, adminEmail, alertsFrom string) *Notifier {
	return &Notifier{mail: mail, metrics: m, logger: logger, adminEmail: adminEmail, alertsFrom: alertsFrom}
}

// TestimonialSubmitted alerts the admin to a testimonial awaiting review.
func (n *Notifier) TestimonialSubmitted(ctx context.Context, t *model.Testimonial) {
	if n.adminEmail == "" {
		return
	}
	msg, err := mailer.NewTestimonialAlert(n.adminEmail, t)
	n.deliver(ctx, "admin_testimonial", msg, err, n.alertsFrom)
}

// RegistrationSubmitted alerts the admin to a new student registration.
func (n *Notifier) RegistrationSubmitted(ctx context.Context, r *model.Registration) {
	if n.adminEmail == "" {
		return
	}
	msg, err := mailer.NewRegistrationAlert(n.adminEmail, r)
	n.deliver(ctx, "admin_registration", msg, err, n.alertsFrom)
}

// PaymentConfirmed emails the parent their confirmation and receipt.
func (n *Notifier) PaymentConfirmed(ctx context.Context, r *model.Registration, at time.Time) {
	msg, err := mailer.PaymentConfirmation(r, at)
	n.deliver(ctx, "payment_confirmation", msg, err, "")
}

func (n *Notifier) deliver(ctx context.Context, kind string, msg *mailer.Message, err error, from string) {
	if err == nil {
		if from != "" {
			msg.From = from
		}
		err = n.mail.Send(ctx, msg)
	}
	n.metrics.Email(kind, err)
	if err != nil {
		n.logger.Error("notification email failed", "kind", kind, "error", err)
	}
}
