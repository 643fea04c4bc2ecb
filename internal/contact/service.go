package contact

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kalamart/storefront-api/pkg/commerce"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type commerceGateway interface {
	ContactUs(ctx context.Context, req commerce.ContactRequest) error
}

// Submission is a contact-form message from the storefront.
type Submission struct {
	Name    string `json:"name"`
	PhoneNo string `json:"phone_no"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

// Service validates and forwards contact-form submissions.
type Service interface {
	Submit(ctx context.Context, submission Submission) error
	Validate(submission Submission) map[string]string
}

type service struct {
	gateway commerceGateway
}

// NewService builds the contact service.
func NewService(gateway commerceGateway) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	return &service{gateway: gateway}, nil
}

// Validate returns the per-field error map; empty means the form is valid.
// The phone number is optional but must be well formed when present.
func (s *service) Validate(submission Submission) map[string]string {
	errs := make(map[string]string)

	switch {
	case strings.TrimSpace(submission.Name) == "":
		errs["name"] = "Name is required"
	case !namePattern.MatchString(submission.Name):
		errs["name"] = "Name must contain only letters and spaces"
	}

	switch {
	case strings.TrimSpace(submission.Email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(submission.Email):
		errs["email"] = "Valid email is required"
	}

	if submission.PhoneNo != "" && !phonePattern.MatchString(submission.PhoneNo) {
		errs["phone_no"] = "Phone number must be 10-15 digits"
	}

	if strings.TrimSpace(submission.Message) == "" {
		errs["message"] = "Message is required"
	}

	return errs
}

// Submit validates the submission and forwards it upstream.
func (s *service) Submit(ctx context.Context, submission Submission) error {
	if errs := s.Validate(submission); len(errs) != 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact form is incomplete").WithDetails(errs)
	}
	return s.gateway.ContactUs(ctx, commerce.ContactRequest{
		Name:    submission.Name,
		PhoneNo: submission.PhoneNo,
		Email:   submission.Email,
		Message: submission.Message,
	})
}
