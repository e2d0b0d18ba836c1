package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

var pages = template.Must(template.New("mail").Funcs(template.FuncMap{
	"stars": func(n int) string { return strings.Repeat("★", n) },
}).Parse(`
{{define "otp"}}<div style="max-width:500px;margin:auto;padding:20px;font-family:Arial,sans-serif">
<h2 style="text-align:center">{{.Heading}}</h2>
<p>{{.Intro}}</p>
<div style="font-size:32px;font-weight:bold;letter-spacing:5px;text-align:center;margin:20px 0">{{.Code}}</div>
<p>This code will expire in <strong>{{.Minutes}} minutes</strong>.</p>
<p style="font-size:12px;color:#6b7280">If you did not request this code, you can ignore this email.</p>
</div>{{end}}

{{define "testimonial"}}<div style="font-family:Arial,sans-serif">
<h2>New testimonial awaiting approval</h2>
<p><strong>{{.UserName}}</strong> ({{.UserRole}}) rated {{stars .Rating}}</p>
<blockquote>{{.Message}}</blockquote>
<p>Approve or hide it from the admin dashboard.</p>
</div>{{end}}

{{define "registration"}}<div style="font-family:Arial,sans-serif">
<h2>New student registration</h2>
<table>
<tr><td>Registration</td><td><strong>{{.RegistrationNumber}}</strong></td></tr>
<tr><td>Student</td><td>{{.ChildName}} ({{.AgeGroup}})</td></tr>
<tr><td>Course</td><td>{{.CourseName}}</td></tr>
<tr><td>Parent</td><td>{{.ParentName}}, {{.ParentPhone}}, {{.ParentEmail}}</td></tr>
<tr><td>Preferred time</td><td>{{.PreferredTime}}</td></tr>
</table>
</div>{{end}}

{{define "payment"}}<div style="max-width:600px;margin:0 auto;font-family:Arial,sans-serif">
<h1>Enrollment Confirmed!</h1>
<p>Hello <strong>{{.ParentName}}</strong>,</p>
<p>We have verified your payment. <strong>{{.ChildName}}</strong> is now officially enrolled in our upcoming cohort.</p>
<table>
<tr><td>Student ID:</td><td><strong>{{.RegistrationNumber}}</strong></td></tr>
<tr><td>Course:</td><td><strong>{{.CourseName}}</strong></td></tr>
<tr><td>Schedule:</td><td><strong>{{.PreferredTime}}</strong></td></tr>
</table>
<p><strong>Next Steps:</strong></p>
<ul>
<li>Our instructor will add you to the WhatsApp class group within 24 hours.</li>
<li>Ensure the student has a laptop and stable internet as indicated in your registration.</li>
</ul>
<p>Your receipt is attached.</p>
</div>{{end}}
`))

var receiptTmpl = texttemplate.Must(texttemplate.New("receipt").Parse(`BRIGHT CODERS ACADEMY
PAYMENT RECEIPT
=====================================

Receipt date:        {{.Date}}
Registration number: {{.R.RegistrationNumber}}

Student:             {{.R.ChildName}}
Course:              {{.R.CourseName}}
Schedule:            {{.R.PreferredTime}}

Parent / guardian:   {{.R.ParentName}}
Email:               {{.R.ParentEmail}}
Phone:               {{.R.ParentPhone}}

Payment status:      {{.Status}}

Thank you for choosing Bright Coders Academy.
`))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// LoginOTP builds the two-factor sign-in email.
func LoginOTP(to, code string, ttl time.Duration) (*Message, error) {
	html, err := render("otp", map[string]interface{}{
		"Heading": "Two-Factor Authentication",
		"Intro":   "Your one-time sign-in code is:",
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return nil, err
	}
	return &Message{To: []string{to}, Subject: "Your Login Verification Code", HTML: html}, nil
}

// StepUpOTP builds the email confirming a sensitive account action.
func StepUpOTP(to, code string, ttl time.Duration) (*Message, error) {
	html, err := render("otp", map[string]interface{}{
		"Heading": "Confirm it's you",
		"Intro":   "Use this code to confirm a sensitive change to your account:",
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return nil, err
	}
	return &Message{To: []string{to}, Subject: "Your Verification Code", HTML: html}, nil
}

// NewTestimonialAlert tells the admin a testimonial is waiting for review.
func NewTestimonialAlert(to string, t *model.Testimonial) (*Message, error) {
	html, err := render("testimonial", t)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New testimonial from %s", t.UserName),
		HTML:    html,
	}, nil
}

// NewRegistrationAlert tells the admin a student registered.
func NewRegistrationAlert(to string, r *model.Registration) (*Message, error) {
	html, err := render("registration", r)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      []string{to},
		Subject: fmt.Sprintf("New registration: %s for %s", r.ChildName, r.CourseName),
		HTML:    html,
	}, nil
}

// PaymentConfirmation builds the parent's enrolment confirmation with the
// receipt attached.
func PaymentConfirmation(r *model.Registration, at time.Time) (*Message, error) {
	html, err := render("payment", r)
	if err != nil {
		return nil, err
	}
	receipt, err := Receipt(r, at)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      []string{r.ParentEmail},
		Subject: fmt.Sprintf("Payment Confirmed: Enrollment for %s", r.ChildName),
		HTML:    html,
		Attachments: []Attachment{{
			Filename:    ReceiptFilename(r),
			ContentType: "text/plain; charset=utf-8",
			Content:     receipt,
		}},
	}, nil
}

// Receipt renders the plain-text payment receipt for a registration.
func Receipt(r *model.Registration, at time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := receiptTmpl.Execute(&buf, map[string]interface{}{
		"R":      r,
		"Date":   at.Format("2 January 2006"),
		"Status": strings.ToUpper(r.PaymentStatus),
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// ReceiptFilename is the attachment name used for a registration's receipt.
func ReceiptFilename(r *model.Registration) string {
	return fmt.Sprintf("receipt-%s.txt", r.RegistrationNumber)
}
