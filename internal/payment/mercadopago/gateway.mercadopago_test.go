package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

func TestToPreferenceRequest(t *testing.T) {
	req := payment.PreferenceRequest{
		Items: []payment.NewItem{
			{Title: "Cuota", Description: "Marzo", Quantity: 2, UnitPrice: decimal.RequireFromString("1500.50")},
		},
		BackURLs: payment.BackURLs{
			Success: "https://shop.test/ok",
			Pending: "https://shop.test/wait",
			Failure: "https://shop.test/ko",
		},
		StatementDescriptor: "Club Atletico",
		AdditionalInfo:      "socio 42",
		NotificationURL:     "https://api.test/pagos/notificar",
	}

	out := toPreferenceRequest(req)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "Cuota", out.Items[0].Title)
	assert.Equal(t, "Marzo", out.Items[0].Description)
	assert.Equal(t, 2, out.Items[0].Quantity)
	assert.InDelta(t, 1500.50, out.Items[0].UnitPrice, 0.0001)
	require.NotNil(t, out.BackURLs)
	assert.Equal(t, "https://shop.test/ok", out.BackURLs.Success)
	assert.Equal(t, "https://shop.test/wait", out.BackURLs.Pending)
	assert.Equal(t, "https://shop.test/ko", out.BackURLs.Failure)
	assert.Equal(t, "Club Atletico", out.StatementDescriptor)
	assert.Equal(t, "socio 42", out.AdditionalInfo)
	assert.Equal(t, "https://api.test/pagos/notificar", out.NotificationURL)
	assert.Empty(t, out.ExternalReference)
}

func TestFromPaymentResponse(t *testing.T) {
	approved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var r mppayment.Response
	r.ID = 987654
	r.Status = "approved"
	r.StatusDetail = "accredited"
	r.ExternalReference = "17"
	r.TransactionAmount = 3001
	r.PaymentMethodID = "visa"
	r.DateApproved = approved
	r.Payer.FirstName = "Ana"
	r.Payer.LastName = "Diaz"
	r.Payer.Email = "ana@example.com"
	r.Payer.Phone.AreaCode = "11"
	r.Payer.Phone.Number = "5555"
	r.Payer.Identification.Type = "DNI"
	r.Payer.Identification.Number = "30111222"

	p := fromPaymentResponse(r)

	assert.Equal(t, "987654", p.ID)
	assert.True(t, p.IsApproved())
	assert.Equal(t, "17", p.ExternalReference)
	assert.True(t, decimal.NewFromInt(3001).Equal(p.Amount))
	assert.Equal(t, "visa", p.Method)
	assert.Equal(t, approved, p.DateApproved)
	assert.Equal(t, payment.ProviderPayer{
		FirstName:            "Ana",
		LastName:             "Diaz",
		Email:                "ana@example.com",
		PhoneAreaCode:        "11",
		PhoneNumber:          "5555",
		IdentificationType:   "DNI",
		IdentificationNumber: "30111222",
	}, p.Payer)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("do: %w", context.DeadlineExceeded), payment.ErrProviderTimeout},
		{"canceled", context.Canceled, payment.ErrProviderTimeout},
		{"api rejection", errors.New("401 invalid access token"), payment.ErrProviderFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}
}

func TestGetPaymentRejectsNonNumericID(t *testing.T) {
	g := NewGateway(time.Second)
	_, err := g.GetPayment(context.Background(), "TEST-token", "abc")
	assert.ErrorIs(t, err, payment.ErrInvalidInput)
}
