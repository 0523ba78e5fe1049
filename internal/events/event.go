// internal/events/event.go
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types emitted by the payments domain.
const (
	PreferenceCreated = "preference.created"
	PreferencePaid    = "preference.paid"
)

// Event is the envelope every backend carries. ID lets consumers dedupe.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps a fresh envelope around payload.
func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// PreferenceCreatedPayload is published after a preference is issued.
type PreferenceCreatedPayload struct {
	PreferenceID         int64  `json:"id_preferencia"`
	ProviderPreferenceID string `json:"id_preferencia_mp"`
	ClientID             int64  `json:"id_cliente"`
	InitPoint            string `json:"init_point"`
}

// PreferencePaidPayload is published after a payment settles a preference.
type PreferencePaidPayload struct {
	PreferenceID      int64           `json:"id_preferencia"`
	PaymentID         int64           `json:"id_pago"`
	ProviderPaymentID string          `json:"id_pago_mp"`
	Amount            decimal.Decimal `json:"monto_abonado"`
	PaidAt            time.Time       `json:"fecha_hora"`
}
