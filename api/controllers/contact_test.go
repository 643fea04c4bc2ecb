package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contactsvc "github.com/kalamart/storefront-api/internal/contact"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

type stubContactService struct {
	err       error
	submitted *contactsvc.Submission
}

func (s *stubContactService) Submit(ctx context.Context, submission contactsvc.Submission) error {
	s.submitted = &submission
	return s.err
}

func (s *stubContactService) Validate(submission contactsvc.Submission) map[string]string {
	return nil
}

func TestContactSubmitAccepted(t *testing.T) {
	svc := &stubContactService{}
	handler := ContactSubmit(svc, nil)

	payload := `{"name":"Asha Rao","email":"asha@example.com","message":"Where is my order?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if svc.submitted == nil || svc.submitted.Email != "asha@example.com" {
		t.Fatalf("expected submission forwarded, got %+v", svc.submitted)
	}
}

func TestContactSubmitValidationDetails(t *testing.T) {
	svc := &stubContactService{err: pkgerrors.New(pkgerrors.CodeValidation, "contact form is invalid").
		WithDetails(map[string]string{"email": "Valid email is required"})}
	handler := ContactSubmit(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewReader([]byte(`{"name":"Asha","email":"nope","message":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["email"] != "Valid email is required" {
		t.Fatalf("unexpected details %+v", envelope.Error.Details)
	}
}
