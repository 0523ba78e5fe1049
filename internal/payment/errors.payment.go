// internal/payment/errors.payment.go
package payment

import "errors"

// Standard sentinel errors. The transport layer maps them to status codes
// (e.g. ErrClientNotFound -> 404, ErrClientExists -> 409).
var (
	// Lookup errors
	ErrClientNotFound     = errors.New("client not found")
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrPaymentNotFound    = errors.New("payment not found")

	// Uniqueness errors
	ErrClientExists  = errors.New("client already exists")
	ErrPaymentExists = errors.New("payment already recorded")

	// State machine errors
	ErrPreferenceAlreadyPaid    = errors.New("preference is already paid")
	ErrInvalidState             = errors.New("invalid state")
	ErrInvalidExternalReference = errors.New("external reference does not point to a local preference")
	ErrPreferenceNotOwned       = errors.New("preference belongs to another client")
	ErrAmountMismatch           = errors.New("paid amount is below the preference total")

	// Validation
	ErrInvalidInput = errors.New("invalid input arguments")

	// Provider errors
	ErrProviderFailure = errors.New("payment provider request failed")
	ErrProviderTimeout = errors.New("payment provider timed out") // retryable by the caller
)
