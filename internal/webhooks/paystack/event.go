package paystackwebhook

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
)

// EventType identifies a Paystack webhook event variant.
type EventType string

const (
	EventChargeSuccess             EventType = "charge.success"
	EventSubscriptionCreate        EventType = "subscription.create"
	EventSubscriptionPaymentFailed EventType = "subscription.payment_failed"
	EventSubscriptionDisable       EventType = "subscription.disable"
)

// Known reports whether the event type is one we route.
func (t EventType) Known() bool {
	switch t {
	case EventChargeSuccess, EventSubscriptionCreate, EventSubscriptionPaymentFailed, EventSubscriptionDisable:
		return true
	}
	return false
}

// Event is the decoded Paystack webhook envelope. The data section is shared
// across event variants; per-variant field requirements are enforced when the
// event is applied.
type Event struct {
	ID    string    `json:"id" validate:"required"`
	Event EventType `json:"event" validate:"required"`
	Data  EventData `json:"data"`
}

type EventData struct {
	SubscriptionID   string        `json:"subscription_id"`
	SubscriptionCode string        `json:"subscription_code"`
	Amount           int64         `json:"amount"`
	Reference        string        `json:"reference"`
	NextPaymentDate  *time.Time    `json:"next_payment_date"`
	Plan             *Plan         `json:"plan"`
	Metadata         EventMetadata `json:"metadata"`
	Customer         Customer      `json:"customer"`
}

// ProviderSubscriptionID returns the subscription identifier whichever way
// the provider spelled it (subscription_id, or subscription_code on raw
// Paystack payloads).
func (d EventData) ProviderSubscriptionID() string {
	if d.SubscriptionID != "" {
		return d.SubscriptionID
	}
	return d.SubscriptionCode
}

type Plan struct {
	ID       string `json:"id"`
	PlanCode string `json:"plan_code"`
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
	Currency string `json:"currency"`
}

// Identifier returns the plan identifier, preferring id over plan_code.
func (p *Plan) Identifier() string {
	if p == nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.PlanCode
}

// EventMetadata carries the custom fields our checkout attaches to a charge.
type EventMetadata struct {
	UserID string `json:"userId"`
}

type Customer struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
}

var validate = validator.New()

// ParseEvent decodes and validates a raw webhook body. A body that is not
// valid JSON or is missing the envelope fields is a validation error; the
// caller should not retry it.
func ParseEvent(raw []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if err := validate.Struct(&event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "incomplete webhook envelope")
	}
	return &event, nil
}
