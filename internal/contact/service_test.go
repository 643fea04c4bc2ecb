package contact

import (
	"context"
	"testing"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type stubGateway struct {
	sent []commerce.ContactRequest
}

func (s *stubGateway) ContactUs(ctx context.Context, req commerce.ContactRequest) error {
	s.sent = append(s.sent, req)
	return nil
}

func validSubmission() Submission {
	return Submission{
		Name:    "Asha Rao",
		Email:   "shopper@example.com",
		PhoneNo: "9876543210",
		Message: "Where is my order?",
	}
}

func TestSubmitForwardsValidSubmission(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{}
	svc, err := NewService(gateway)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Submit(context.Background(), validSubmission()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(gateway.sent) != 1 || gateway.sent[0].Email != "shopper@example.com" {
		t.Fatalf("unexpected forward %+v", gateway.sent)
	}
}

func TestSubmitRejectsInvalidFormWithoutForwarding(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{}
	svc, _ := NewService(gateway)

	err := svc.Submit(context.Background(), Submission{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gateway.sent) != 0 {
		t.Fatal("invalid submission must not be forwarded")
	}
}

func TestValidateFieldMessages(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubGateway{})

	cases := []struct {
		name   string
		mutate func(*Submission)
		field  string
		want   string
	}{
		{"missing name", func(s *Submission) { s.Name = "" }, "name", "Name is required"},
		{"bad name", func(s *Submission) { s.Name = "A@sha!" }, "name", "Name must contain only letters and spaces"},
		{"missing email", func(s *Submission) { s.Email = "" }, "email", "Email is required"},
		{"bad email", func(s *Submission) { s.Email = "nope" }, "email", "Valid email is required"},
		{"short phone", func(s *Submission) { s.PhoneNo = "123" }, "phone_no", "Phone number must be 10-15 digits"},
		{"missing message", func(s *Submission) { s.Message = " " }, "message", "Message is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			submission := validSubmission()
			tc.mutate(&submission)
			errs := svc.Validate(submission)
			if errs[tc.field] != tc.want {
				t.Fatalf("got %q, want %q (all: %v)", errs[tc.field], tc.want, errs)
			}
		})
	}
}

func TestValidateEmptyPhoneIsAccepted(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubGateway{})
	submission := validSubmission()
	submission.PhoneNo = ""
	if errs := svc.Validate(submission); len(errs) != 0 {
		t.Fatalf("expected valid submission, got %v", errs)
	}
}
