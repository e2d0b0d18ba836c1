package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

// RegistrationService runs student enrolment: submission, payment,
// certificates and receipts.
type RegistrationService struct {
	store    *config.Store
	notifier *Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistrationService(store *config.Store, notifier *Notifier, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Submit stores a new registration and alerts the admin.
func (s *RegistrationService) Submit(ctx context.Context, r *model.Registration) error {
	if err := s.store.CreateRegistration(ctx, r); err != nil {
		return err
	}
	s.logger.Info("registration submitted", "registration", r.RegistrationNumber)
	s.notifier.RegistrationSubmitted(ctx, r)
	return nil
}

// SetPaymentStatus updates payment. Moving into paid sends the parent a
// confirmation with the receipt attached.
func (s *RegistrationService) SetPaymentStatus(ctx context.Context, id int64, status string) (*model.Registration, error) {
	if !model.ValidPaymentStatus(status) {
		return nil, ErrInvalidPaymentStatus
	}
	before, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.store.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if status == model.PaymentPaid && before.PaymentStatus != model.PaymentPaid {
		s.notifier.PaymentConfirmed(ctx, r, s.now())
	}
	return r, nil
}

// IssueCertificate marks the certificate issued. Payment must be confirmed.
func (s *RegistrationService) IssueCertificate(ctx context.Context, id int64) (*model.Registration, error) {
	r, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.PaymentStatus != model.PaymentPaid {
		return nil, ErrNotPaid
	}
	return s.store.IssueCertificate(ctx, id, s.now())
}

// VerifyCertificate looks up an issued certificate by registration number.
// Unknown numbers and unissued certificates both report
// ErrCertificateNotIssued.
func (s *RegistrationService) VerifyCertificate(ctx context.Context, number string) (*model.Certificate, error) {
	r, err := s.store.GetRegistrationByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrCertificateNotIssued
		}
		return nil, err
	}
	if !r.CertificateIssued || r.CertificateIssuedAt == nil {
		return nil, ErrCertificateNotIssued
	}
	return &model.Certificate{
		RegistrationNumber: r.RegistrationNumber,
		ChildName:          r.ChildName,
		CourseName:         r.CourseName,
		IssuedAt:           *r.CertificateIssuedAt,
	}, nil
}

// Receipt renders the payment receipt and its filename.
func (s *RegistrationService) Receipt(ctx context.Context, id int64) ([]byte, string, error) {
	r, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if r.PaymentStatus != model.PaymentPaid {
		return nil, "", ErrNotPaid
	}
	body, err := mailer.Receipt(r, s.now())
	if err != nil {
		return nil, "", err
	}
	return body, mailer.ReceiptFilename(r), nil
}
