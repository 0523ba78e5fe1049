// internal/payment/notification.types.go
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionPaymentCreated is the only notification action that triggers processing.
const ActionPaymentCreated = "payment.created"

// FlexibleID accepts both JSON numbers and JSON strings. Mercado Pago is not
// consistent about how it encodes user_id and data.id.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

// NotificationData carries the provider assigned resource id.
type NotificationData struct {
	ID FlexibleID `json:"id"`
}

// Notification is an inbound webhook event. Only Action, UserID and Data.ID
// drive processing, the rest is passthrough metadata.
type Notification struct {
	ID            FlexibleID       `json:"id"`
	LiveMode      bool             `json:"live_mode"`
	Type          string           `json:"type"`
	DateCreated   string           `json:"date_created"`
	ApplicationID FlexibleID       `json:"application_id,omitempty"`
	UserID        FlexibleID       `json:"user_id"`
	Version       int              `json:"version,omitempty"`
	APIVersion    string           `json:"api_version"`
	Action        string           `json:"action"`
	Data          NotificationData `json:"data"`
}

// Outcome tells the caller what the receiver decided. The HTTP contract never
// changes with it (always 200), it exists for logging and tests.
type Outcome string

const (
	OutcomeSettled       Outcome = "settled"
	OutcomeIgnoredAction Outcome = "ignored_action"
	OutcomeUnknownClient Outcome = "unknown_client"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeNotApproved   Outcome = "not_approved"
	OutcomeRejected      Outcome = "rejected" // payment does not match the preference it names
	OutcomeFailed        Outcome = "failed"
)
