// internal/payment/models.payment.go
package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a merchant account holding Mercado Pago credentials.
// AccessToken and PublicKey never leave the service: they are excluded from JSON.
type Client struct {
	ID          int64   `json:"id"`
	ProviderID  string  `json:"-"` // Mercado Pago account id (users/me)
	Name        string  `json:"nombre"`
	PublicKey   string  `json:"-"`
	AccessToken string  `json:"-"`
	SuccessURL  string  `json:"url_exito"`
	PendingURL  *string `json:"url_pendiente"` // optional in the registration payload
	FailureURL  string  `json:"url_error"`
}

// NewClient is the registration payload for a Client.
type NewClient struct {
	Name        string  `json:"nombre"`
	SuccessURL  string  `json:"url_exito"`
	PendingURL  *string `json:"url_pendiente"`
	FailureURL  string  `json:"url_error"`
	PublicKey   string  `json:"public_key"`
	AccessToken string  `json:"access_token"`
}

// Item is a line item of a Preference. Immutable after creation.
type Item struct {
	ID           int64           `json:"id"`
	PreferenceID int64           `json:"id_preferencia"`
	Title        string          `json:"titulo"`
	Description  string          `json:"descripcion"`
	Quantity     int             `json:"cantidad"`
	UnitPrice    decimal.Decimal `json:"precio_unitario"`
}

// NewItem is the caller supplied part of an Item.
type NewItem struct {
	Title       string          `json:"titulo"`
	Description string          `json:"descripcion"`
	Quantity    int             `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
}

// Preference is a payment intent registered with the provider and tracked
// locally until a validated payment settles it.
type Preference struct {
	ID                   int64            `json:"id"`
	ProviderPreferenceID string           `json:"id_preferencia_mp"`
	InitPoint            string           `json:"init_point"`
	AdditionalInfo       string           `json:"info_adicional"`
	ClientID             int64            `json:"id_cliente"`
	CreatedAt            time.Time        `json:"created_at"` // provider date_created, authoritative
	Status               PreferenceStatus `json:"estado"`
	Items                []Item           `json:"items"`
	Payment              *Payment         `json:"pago"`
}

// Total is the sum of quantity * unit price over the items.
func (p Preference) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Payment settles exactly one Preference.
type Payment struct {
	ID                      int64           `json:"id"`
	PaidAt                  time.Time       `json:"fecha_hora"`
	Amount                  decimal.Decimal `json:"monto_abonado"`
	Method                  string          `json:"metodo_pago"`
	PayerName               string          `json:"pagador_nombre"`
	PayerEmail              string          `json:"pagador_email"`
	PayerPhone              string          `json:"pagador_telefono"`
	PayerIdentificationType string          `json:"pagador_tipo_identificacion"`
	PayerIdentificationNum  string          `json:"pagador_nro_identificacion"`
	ProviderPaymentID       string          `json:"id_pago_mp"`
	PreferenceID            int64           `json:"id_preferencia"`
}

// IssueRequest is the body of a preference issuance call.
type IssueRequest struct {
	Items          []NewItem `json:"items"`
	AdditionalInfo string    `json:"info_adicional"`
}

// IssueResult is what the issuer hands back to the transport layer.
type IssueResult struct {
	Client     *Client
	Preference *Preference
}

// --- provider facing DTOs ---

// BackURLs are the three redirect targets of a checkout.
type BackURLs struct {
	Success string
	Pending string
	Failure string
}

// PreferenceRequest encapsulates everything the provider needs to create a
// payment intent.
type PreferenceRequest struct {
	Items               []NewItem
	BackURLs            BackURLs
	StatementDescriptor string
	AdditionalInfo      string
	NotificationURL     string
}

// ProviderPreference is the provider's view of a created preference.
type ProviderPreference struct {
	ID             string
	InitPoint      string
	AdditionalInfo string
	DateCreated    time.Time
}

// ProviderPayer holds the payer fields reported by the provider.
type ProviderPayer struct {
	FirstName            string
	LastName             string
	Email                string
	PhoneAreaCode        string
	PhoneNumber          string
	IdentificationType   string
	IdentificationNumber string
}

// ProviderPayment is the authoritative payment record fetched from the provider.
type ProviderPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
	Method            string
	DateApproved      time.Time
	DateCreated       time.Time
	Payer             ProviderPayer
}

// Provider status pair that marks a payment as settled.
const (
	ProviderStatusApproved   = "approved"
	ProviderDetailAccredited = "accredited"
)

// IsApproved reports the composite "approved and accredited" status.
func (p ProviderPayment) IsApproved() bool {
	return p.Status == ProviderStatusApproved && p.StatusDetail == ProviderDetailAccredited
}
