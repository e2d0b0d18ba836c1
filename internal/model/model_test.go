package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserJSONHidesSecrets(t *testing.T) {
	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	u := User{
		ID:               1,
		FullName:         "Ada Admin",
		Email:            "ada@example.com",
		PasswordHash:     "$2a$12$secret",
		TwoFactorEnabled: true,
		TwoFactorCode:    &code,
		TwoFactorExpires: &expires,
		OTPCode:          &code,
		OTPExpires:       &expires,
		OTPAttempts:      2,
	}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	out := string(b)

	for _, secret := range []string{"$2a$12$secret", "123456", "password_hash", "otp_code", "two_factor_code", "otp_attempts"} {
		if strings.Contains(out, secret) {
			t.Errorf("user JSON leaks %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, `"two_factor_enabled":true`) {
		t.Errorf("expected two_factor_enabled in JSON, got %s", out)
	}
}

func TestUserHasActiveChallenge(t *testing.T) {
	var u User
	if u.HasActiveChallenge() {
		t.Error("zero user should have no active challenge")
	}
	empty := ""
	u.OTPCode = &empty
	if u.HasActiveChallenge() {
		t.Error("empty code should not count as active challenge")
	}
	code := "654321"
	u.OTPCode = &code
	if !u.HasActiveChallenge() {
		t.Error("expected active challenge")
	}
}

func TestStringListValueAndScan(t *testing.T) {
	v, err := StringList{"loops", "variables"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `["loops","variables"]` {
		t.Errorf("Value = %v", v)
	}

	nilV, err := StringList(nil).Value()
	if err != nil {
		t.Fatalf("Value(nil): %v", err)
	}
	if nilV != "[]" {
		t.Errorf("Value(nil) = %v, want []", nilV)
	}

	var fromString StringList
	if err := fromString.Scan(`["a","b"]`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if len(fromString) != 2 || fromString[1] != "b" {
		t.Errorf("Scan string = %v", fromString)
	}

	var fromBytes StringList
	if err := fromBytes.Scan([]byte(`["x"]`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if len(fromBytes) != 1 || fromBytes[0] != "x" {
		t.Errorf("Scan bytes = %v", fromBytes)
	}

	var fromNil StringList
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if fromNil != nil {
		t.Errorf("Scan nil = %v, want nil", fromNil)
	}

	var bad StringList
	if err := bad.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestCourseDescriptionValueAndScan(t *testing.T) {
	d := CourseDescription{Definition: "Intro to Scratch", Outcome: "Builds a game"}
	v, err := d.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("Value type = %T, want string", v)
	}
	if !strings.Contains(s, `"learningPoints":[]`) {
		t.Errorf("nil learning points should encode as [], got %s", s)
	}

	var got CourseDescription
	if err := got.Scan(s); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got.Definition != d.Definition || got.Outcome != d.Outcome {
		t.Errorf("Scan = %+v, want %+v", got, d)
	}
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse[Course](nil)
	if resp.Resource == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if resp.Meta.Count != 0 {
		t.Errorf("Count = %d, want 0", resp.Meta.Count)
	}

	b, _ := json.Marshal(resp)
	if !strings.Contains(string(b), `"resource":[]`) {
		t.Errorf("expected empty array in JSON, got %s", b)
	}

	resp2 := NewListResponse([]Blog{{ID: 1}, {ID: 2}})
	if resp2.Meta.Count != 2 {
		t.Errorf("Count = %d, want 2", resp2.Meta.Count)
	}
}

func TestValidPaymentStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PaymentPending, true},
		{PaymentPaid, true},
		{PaymentFailed, true},
		{"refunded", false},
		{"", false},
		{"PAID", false},
	}
	for _, tt := range tests {
		if got := ValidPaymentStatus(tt.status); got != tt.want {
			t.Errorf("ValidPaymentStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorResponseJSON(t *testing.T) {
	er := ErrorResponse{
		Error: ErrorDetail{
			Code:    400,
			Message: "Validation failed",
			Context: map[string]interface{}{"errors": []string{"title is required"}},
		},
	}
	b, err := json.Marshal(er)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if m["error"]["code"] != float64(400) {
		t.Errorf("code = %v, want 400", m["error"]["code"])
	}
	if _, ok := m["error"]["context"]; !ok {
		t.Error("expected context in error JSON")
	}

	er.Error.Context = nil
	b, _ = json.Marshal(er)
	if strings.Contains(string(b), "context") {
		t.Errorf("context should be omitted when nil, got %s", b)
	}
}
