package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Bio        string `json:"bio" validate:"omitempty,max=10"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=private verified"`
}

func TestStructValid(t *testing.T) {
	req := sampleRequest{Email: "ada@example.edu", Visibility: "private"}
	if errs := Struct(req); errs != nil {
		t.Errorf("valid struct produced errors: %v", errs)
	}
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	errs := Struct(sampleRequest{Email: "not-an-email"})
	if errs == nil {
		t.Fatal("expected errors")
	}
	if _, ok := errs["email"]; !ok {
		t.Errorf("errors keyed by %v, want json name email", errs)
	}
	if _, ok := errs["Email"]; ok {
		t.Error("errors should not use the Go field name")
	}
}

func TestStructMessages(t *testing.T) {
	testCases := []struct {
		name    string
		req     sampleRequest
		field   string
		wantSub string
	}{
		{"required", sampleRequest{}, "email", "required"},
		{"email format", sampleRequest{Email: "nope"}, "email", "valid email"},
		{"max length", sampleRequest{Email: "a@b.co", Bio: strings.Repeat("x", 11)}, "bio", "too long"},
		{"oneof", sampleRequest{Email: "a@b.co", Visibility: "public"}, "visibility", "must be one of"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Struct(tc.req)
			if errs == nil {
				t.Fatal("expected errors")
			}
			msg, ok := errs[tc.field]
			if !ok {
				t.Fatalf("no error for %s: %v", tc.field, errs)
			}
			if !strings.Contains(msg, tc.wantSub) {
				t.Errorf("message %q does not mention %q", msg, tc.wantSub)
			}
		})
	}
}
