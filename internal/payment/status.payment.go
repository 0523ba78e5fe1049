// internal/payment/status.payment.go
package payment

import (
	"database/sql/driver"
	"fmt"
)

// PreferenceStatus is the closed two state lifecycle of a Preference.
// PENDING --[accepted notification]--> PAID. Nothing leaves PAID.
type PreferenceStatus string

const (
	StatusPending PreferenceStatus = "PENDIENTE"
	StatusPaid    PreferenceStatus = "PAGADA"
)

// ParsePreferenceStatus rejects anything outside the two known states.
func ParsePreferenceStatus(s string) (PreferenceStatus, error) {
	switch PreferenceStatus(s) {
	case StatusPending, StatusPaid:
		return PreferenceStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown preference status %q", ErrInvalidState, s)
}

// CanTransitionTo encodes the state machine.
func (s PreferenceStatus) CanTransitionTo(next PreferenceStatus) bool {
	return s == StatusPending && next == StatusPaid
}

// Value implements driver.Valuer so an invalid status never reaches the DB.
func (s PreferenceStatus) Value() (driver.Value, error) {
	if _, err := ParsePreferenceStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *PreferenceStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%w: cannot scan %T into PreferenceStatus", ErrInvalidState, src)
	}
	parsed, err := ParsePreferenceStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
