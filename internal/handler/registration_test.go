package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

func validRegistration() map[string]interface{} {
	return map[string]interface{}{
		"parentName":       "Grace Njeri",
		"parentPhone":      "+254700000001",
		"parentEmail":      "grace@example.com",
		"childName":        "Brian Njeri",
		"ageGroup":         "9-12",
		"gradeGroup":       "Grade 5",
		"gender":           "Male",
		"course":           "Scratch Game Design",
		"preferredTime":    "Saturday 10am",
		"deviceType":       "Laptop",
		"internetQuality":  "Good",
		"emergencyContact": "Peter Njeri",
		"emergencyPhone":   "+254700000002",
		"heardFrom":        "Friend",
		"consent":          true,
	}
}

type submitResponse struct {
	Message            string             `json:"message"`
	RegistrationNumber string             `json:"registrationNumber"`
	Registration       model.Registration `json:"registration"`
}

func (e *testEnv) submitRegistration(t *testing.T) submitResponse {
	t.Helper()
	rr := e.do(t, "POST", "/api/registration", toJSON(t, validRegistration()))
	assertStatus(t, rr, http.StatusCreated)
	var resp submitResponse
	decodeJSON(t, rr, &resp)
	return resp
}

func TestSubmitRegistration(t *testing.T) {
	env := newTestEnv(t)

	resp := env.submitRegistration(t)
	if !strings.HasPrefix(resp.RegistrationNumber, "BC-") {
		t.Errorf("registration number = %q", resp.RegistrationNumber)
	}
	if resp.Registration.RegistrationNumber != resp.RegistrationNumber {
		t.Error("registration number should match the stored record")
	}
	if resp.Registration.PaymentStatus != model.PaymentPending {
		t.Errorf("payment status = %q", resp.Registration.PaymentStatus)
	}
	if resp.Registration.CourseName != "Scratch Game Design" {
		t.Errorf("course name = %q", resp.Registration.CourseName)
	}
	if env.mail.count() != 1 || !strings.Contains(env.mail.last(t).Subject, "Brian Njeri") {
		t.Errorf("expected an admin alert, got %d emails", env.mail.count())
	}
}

func TestSubmitRegistrationValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{"no consent", func(b map[string]interface{}) { b["consent"] = false }, "consent"},
		{"consent missing", func(b map[string]interface{}) { delete(b, "consent") }, "consent"},
		{"bad email", func(b map[string]interface{}) { b["parentEmail"] = "not-an-email" }, "parentEmail"},
		{"blank child name", func(b map[string]interface{}) { b["childName"] = "   " }, "childName"},
		{"missing course", func(b map[string]interface{}) { delete(b, "course") }, "course"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRegistration()
			tt.mutate(body)
			rr := env.do(t, "POST", "/api/registration", toJSON(t, body))
			assertStatus(t, rr, http.StatusBadRequest)

			errs, _ := errorBody(t, rr).Context["errors"].([]interface{})
			found := false
			for _, e := range errs {
				if e.(map[string]interface{})["field"] == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.field, errs)
			}
		})
	}
	if env.mail.count() != 0 {
		t.Error("rejected registrations must not alert the admin")
	}
}

func TestPaymentAndCertificate(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	reg := env.submitRegistration(t)
	id := reg.Registration.ID
	verifyPath := "/api/registration/verify/" + strings.ToLower(reg.RegistrationNumber)

	// Not yet paid.
	rr := env.do(t, "PATCH", fmt.Sprintf("/api/registration/certificate/%d", id), nil)
	assertStatus(t, rr, http.StatusConflict)
	rr = env.do(t, "GET", fmt.Sprintf("/api/registration/download-receipt/%d", id), nil)
	assertStatus(t, rr, http.StatusConflict)
	rr = env.do(t, "GET", verifyPath, nil)
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, "PATCH", fmt.Sprintf("/api/registration/payment/%d", id), toJSON(t, map[string]string{"status": "refunded"}))
	assertStatus(t, rr, http.StatusBadRequest)

	before := env.mail.count()
	rr = env.do(t, "PATCH", fmt.Sprintf("/api/registration/payment/%d", id), toJSON(t, map[string]string{"status": "paid"}))
	assertStatus(t, rr, http.StatusOK)
	if env.mail.count() != before+1 {
		t.Fatalf("expected a payment confirmation email")
	}
	confirmation := env.mail.last(t)
	if confirmation.To[0] != "grace@example.com" || len(confirmation.Attachments) != 1 {
		t.Errorf("unexpected confirmation: to=%v attachments=%d", confirmation.To, len(confirmation.Attachments))
	}

	// Marking paid again does not resend.
	rr = env.do(t, "PATCH", fmt.Sprintf("/api/registration/payment/%d", id), toJSON(t, map[string]string{"status": "paid"}))
	assertStatus(t, rr, http.StatusOK)
	if env.mail.count() != before+1 {
		t.Error("confirmation should only be sent on the transition to paid")
	}

	rr = env.do(t, "GET", fmt.Sprintf("/api/registration/download-receipt/%d", id), nil)
	assertStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), reg.RegistrationNumber) {
		t.Error("receipt should include the registration number")
	}

	rr = env.do(t, "PATCH", fmt.Sprintf("/api/registration/certificate/%d", id), nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", verifyPath, nil)
	assertStatus(t, rr, http.StatusOK)
	var verified struct {
		Valid       bool              `json:"valid"`
		Certificate model.Certificate `json:"certificate"`
	}
	decodeJSON(t, rr, &verified)
	if !verified.Valid || verified.Certificate.ChildName != "Brian Njeri" {
		t.Errorf("unexpected verification: %+v", verified)
	}
}

func TestVerifyUnknownCertificate(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/registration/verify/BC-2020-9999", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestListAndDeleteRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	reg := env.submitRegistration(t)
	env.submitRegistration(t)

	var list model.ListResponse[model.Registration]
	decodeJSON(t, env.do(t, "GET", "/api/registration", nil), &list)
	if list.Meta.Count != 2 {
		t.Fatalf("expected 2 registrations, got %d", list.Meta.Count)
	}

	rr := env.do(t, "DELETE", fmt.Sprintf("/api/registration/%d", reg.Registration.ID), nil)
	assertStatus(t, rr, http.StatusOK)
	rr = env.do(t, "DELETE", fmt.Sprintf("/api/registration/%d", reg.Registration.ID), nil)
	assertStatus(t, rr, http.StatusNotFound)
	rr = env.do(t, "PATCH", fmt.Sprintf("/api/registration/payment/%d", reg.Registration.ID), toJSON(t, map[string]string{"status": "paid"}))
	assertStatus(t, rr, http.StatusNotFound)
}
