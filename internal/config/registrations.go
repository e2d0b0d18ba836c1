package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const registrationColumns = `id, COALESCE(registration_number, '') AS registration_number,
	parent_name, parent_phone, parent_email, child_name, age_group, grade_group, gender,
	course_name, preferred_time, device_type, internet_quality, emergency_contact, emergency_phone,
	notes, heard_from, consent, payment_status, certificate_issued, certificate_issued_at, created_at`

// RegistrationNumber formats the public enrolment number for a row ID.
func RegistrationNumber(year int, id int64) string {
	return fmt.Sprintf("BC-%d-%04d", year, id)
}

// CreateRegistration inserts an enrolment and assigns its registration number
// in the same transaction. Payment starts as pending.
func (s *Store) CreateRegistration(ctx context.Context, r *model.Registration) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.PaymentStatus = model.PaymentPending
	r.CertificateIssued = false
	r.CertificateIssuedAt = nil

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO registrations
		(parent_name, parent_phone, parent_email, child_name, age_group, grade_group, gender,
		 course_name, preferred_time, device_type, internet_quality, emergency_contact, emergency_phone,
		 notes, heard_from, consent, payment_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	if err := tx.GetContext(ctx, &r.ID, s.q(insert),
		r.ParentName, r.ParentPhone, r.ParentEmail, r.ChildName, r.AgeGroup, r.GradeGroup, r.Gender,
		r.CourseName, r.PreferredTime, r.DeviceType, r.InternetQuality, r.EmergencyContact, r.EmergencyPhone,
		r.Notes, r.HeardFrom, r.Consent, r.PaymentStatus, now); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	r.RegistrationNumber = RegistrationNumber(now.Year(), r.ID)
	if _, err := tx.ExecContext(ctx, s.q("UPDATE registrations SET registration_number = ? WHERE id = ?"),
		r.RegistrationNumber, r.ID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("assign registration number: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// GetRegistration returns a registration by ID.
func (s *Store) GetRegistration(ctx context.Context, id int64) (*model.Registration, error) {
	return s.getRegistration(ctx, "get registration",
		"SELECT "+registrationColumns+" FROM registrations WHERE id = ?", id)
}

// GetRegistrationByNumber looks a registration up by its public number.
func (s *Store) GetRegistrationByNumber(ctx context.Context, number string) (*model.Registration, error) {
	return s.getRegistration(ctx, "get registration by number",
		"SELECT "+registrationColumns+" FROM registrations WHERE registration_number = ?", number)
}

func (s *Store) getRegistration(ctx context.Context, op, query string, arg interface{}) (*model.Registration, error) {
	var r model.Registration
	if err := s.db.GetContext(ctx, &r, s.q(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// ListRegistrations returns every registration, newest first.
func (s *Store) ListRegistrations(ctx context.Context) ([]model.Registration, error) {
	var out []model.Registration
	if err := s.db.SelectContext(ctx, &out,
		"SELECT "+registrationColumns+" FROM registrations ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

// UpdatePaymentStatus sets the payment state of a registration.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.Registration, error) {
	if !model.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("invalid payment status %q", status)
	}
	result, err := s.db.ExecContext(ctx, s.q("UPDATE registrations SET payment_status = ? WHERE id = ?"), status, id)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if err := checkAffected(result.RowsAffected()); err != nil {
		return nil, err
	}
	return s.GetRegistration(ctx, id)
}

// IssueCertificate marks the certificate as issued. Issuing twice keeps the
// original timestamp.
func (s *Store) IssueCertificate(ctx context.Context, id int64, at time.Time) (*model.Registration, error) {
	result, err := s.db.ExecContext(ctx, s.q(`UPDATE registrations
		SET certificate_issued = ?, certificate_issued_at = COALESCE(certificate_issued_at, ?)
		WHERE id = ?`), true, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: %w", err)
	}
	if err := checkAffected(result.RowsAffected()); err != nil {
		return nil, err
	}
	return s.GetRegistration(ctx, id)
}

// DeleteRegistration removes a registration.
func (s *Store) DeleteRegistration(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM registrations WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return checkAffected(result.RowsAffected())
}
