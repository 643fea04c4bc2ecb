package payment

import (
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
)

// Status is the lifecycle stage of one payment attempt.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusIntentCreating Status = "intent_creating"
	StatusIntentReady    Status = "intent_ready"
	StatusSubmitting     Status = "submitting"
	StatusConfirmed      Status = "confirmed"
	StatusFailed         Status = "failed"
)

// validTransitions encodes the attempt lifecycle. A failed attempt moves
// back through intent_ready so the shopper can resubmit against the same
// intent.
var validTransitions = map[Status][]Status{
	StatusIdle:           {StatusIntentCreating},
	StatusIntentCreating: {StatusIntentReady, StatusFailed},
	StatusIntentReady:    {StatusSubmitting, StatusIntentCreating},
	StatusSubmitting:     {StatusConfirmed, StatusFailed},
	StatusFailed:         {StatusIntentReady, StatusIntentCreating},
	StatusConfirmed:      {},
}

// Attempt is the persisted record of one shopper's in-flight payment.
type Attempt struct {
	Status       Status `json:"status"`
	IntentID     string `json:"intent_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	AmountMinor  int64  `json:"amount_minor,omitempty"`
	OrderRef     string `json:"order_ref,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

func newAttempt() *Attempt {
	return &Attempt{Status: StatusIdle}
}

// transition moves the attempt to the target status, rejecting moves the
// lifecycle does not allow.
func (a *Attempt) transition(to Status) error {
	for _, allowed := range validTransitions[a.Status] {
		if allowed == to {
			a.Status = to
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"payment cannot move from "+string(a.Status)+" to "+string(to))
}
