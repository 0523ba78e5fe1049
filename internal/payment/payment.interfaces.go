// internal/payment/payment.interfaces.go
package payment

import (
	"context"
	"time"
)

// Gateway abstracts the money mover (Mercado Pago). Every call carries the
// access token of the client it acts for, tokens are scoped per client.
// It accepts Context for cancellation and timeout propagation.
type Gateway interface {
	// CreatePreference registers a payment intent with the provider.
	CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (*ProviderPreference, error)
	// SetExternalReference back-links the provider preference to our local id.
	SetExternalReference(ctx context.Context, accessToken, providerPreferenceID, externalReference string) error
	// GetPayment fetches the authoritative payment record.
	GetPayment(ctx context.Context, accessToken, providerPaymentID string) (*ProviderPayment, error)
	// SearchPayments lists provider payments carrying the given external reference.
	SearchPayments(ctx context.Context, accessToken, externalReference string) ([]ProviderPayment, error)
	// GetAccountID resolves the provider account id that owns the token.
	GetAccountID(ctx context.Context, accessToken string) (string, error)
}

// ClientStore persists merchant accounts.
// No sql.ErrNoRows leaks: implementations return ErrClientNotFound / ErrClientExists.
type ClientStore interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClientByID(ctx context.Context, id int64) (*Client, error)
	GetClientByName(ctx context.Context, name string) (*Client, error)
	GetClientByProviderID(ctx context.Context, providerID string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// PreferenceStore persists preferences and their items.
type PreferenceStore interface {
	CreatePreference(ctx context.Context, p *Preference) error
	// CreateItems stamps ID and PreferenceID on every element of items.
	CreateItems(ctx context.Context, preferenceID int64, items []Item) error
	GetPreferenceByID(ctx context.Context, id int64) (*Preference, error)
	ListPreferencesByClient(ctx context.Context, clientID int64) ([]Preference, error)
	// MarkPreferencePaid is the only status transition. It must enforce
	// WHERE status = PENDING and report ErrPreferenceAlreadyPaid otherwise.
	MarkPreferencePaid(ctx context.Context, id int64) error
	// ListPendingPreferences feeds the reconciliation worker, oldest first.
	ListPendingPreferences(ctx context.Context, createdBefore time.Time, limit int) ([]Preference, error)
}

// PaymentStore persists settlement records.
type PaymentStore interface {
	// CreatePayment must be a uniqueness enforced insert: a second row for the
	// same provider payment id or preference returns ErrPaymentExists.
	CreatePayment(ctx context.Context, p *Payment) error
	GetPaymentByID(ctx context.Context, id int64) (*Payment, error)
	GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*Payment, error)
	GetPaymentByPreferenceID(ctx context.Context, preferenceID int64) (*Payment, error)
	ListPaymentsByClient(ctx context.Context, clientID int64) ([]Payment, error)
}

// TransactionManager abstracts the database transaction.
// Required for atomicity across two tables (pagos + preferencias).
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher emits domain events after a commit.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Stores groups the persistence ports the Service needs.
type Stores struct {
	Clients     ClientStore
	Preferences PreferenceStore
	Payments    PaymentStore
	Tx          TransactionManager
}
