package model

import "time"

// Payment states a registration moves through.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// ValidPaymentStatus reports whether s is a known payment state.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// Registration is a student enrolment submitted by a parent.
type Registration struct {
	ID                  int64      `json:"id" db:"id"`
	RegistrationNumber  string     `json:"registration_number" db:"registration_number"`
	ParentName          string     `json:"parent_name" db:"parent_name"`
	ParentPhone         string     `json:"parent_phone" db:"parent_phone"`
	ParentEmail         string     `json:"parent_email" db:"parent_email"`
	ChildName           string     `json:"child_name" db:"child_name"`
	AgeGroup            string     `json:"age_group" db:"age_group"`
	GradeGroup          string     `json:"grade_group" db:"grade_group"`
	Gender              string     `json:"gender" db:"gender"`
	CourseName          string     `json:"course_name" db:"course_name"`
	PreferredTime       string     `json:"preferred_time" db:"preferred_time"`
	DeviceType          string     `json:"device_type" db:"device_type"`
	InternetQuality     string     `json:"internet_quality" db:"internet_quality"`
	EmergencyContact    string     `json:"emergency_contact" db:"emergency_contact"`
	EmergencyPhone      string     `json:"emergency_phone" db:"emergency_phone"`
	Notes               *string    `json:"notes" db:"notes"`
	HeardFrom           string     `json:"heard_from" db:"heard_from"`
	Consent             bool       `json:"consent" db:"consent"`
	PaymentStatus       string     `json:"payment_status" db:"payment_status"`
	CertificateIssued   bool       `json:"certificate_issued" db:"certificate_issued"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at" db:"certificate_issued_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// Certificate is the public view of an issued completion certificate.
type Certificate struct {
	RegistrationNumber string    `json:"registration_number"`
	ChildName          string    `json:"child_name"`
	CourseName         string    `json:"course_name"`
	IssuedAt           time.Time `json:"issued_at"`
}
