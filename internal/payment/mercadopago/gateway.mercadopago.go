// internal/payment/mercadopago/gateway.mercadopago.go
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/mercadopago/sdk-go/pkg/user"
	"github.com/shopspring/decimal"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

const searchLimit = 30

// Gateway implements payment.Gateway on the official Mercado Pago SDK.
// Tokens are per client, so a fresh SDK config is built for every call.
type Gateway struct {
	httpClient *http.Client
}

var _ payment.Gateway = (*Gateway)(nil)

func NewGateway(timeout time.Duration) *Gateway {
	return &Gateway{httpClient: &http.Client{Timeout: timeout}}
}

func (g *Gateway) config(accessToken string) (*config.Config, error) {
	cfg, err := config.New(accessToken, config.WithHTTPClient(g.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: build sdk config: %v", payment.ErrProviderFailure, err)
	}
	return cfg, nil
}

func (g *Gateway) CreatePreference(ctx context.Context, accessToken string, req payment.PreferenceRequest) (*payment.ProviderPreference, error) {
	cfg, err := g.config(accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := preference.NewClient(cfg).Create(ctx, toPreferenceRequest(req))
	if err != nil {
		return nil, classify("create preference", err)
	}
	return &payment.ProviderPreference{
		ID:             resp.ID,
		InitPoint:      resp.InitPoint,
		AdditionalInfo: resp.AdditionalInfo,
		DateCreated:    resp.DateCreated,
	}, nil
}

func (g *Gateway) SetExternalReference(ctx context.Context, accessToken, providerPreferenceID, externalReference string) error {
	cfg, err := g.config(accessToken)
	if err != nil {
		return err
	}
	req := preference.Request{ExternalReference: externalReference}
	if _, err := preference.NewClient(cfg).Update(ctx, providerPreferenceID, req); err != nil {
		return classify("update preference", err)
	}
	return nil
}

func (g *Gateway) GetPayment(ctx context.Context, accessToken, providerPaymentID string) (*payment.ProviderPayment, error) {
	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment id %q is not numeric", payment.ErrInvalidInput, providerPaymentID)
	}
	cfg, err := g.config(accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := mppayment.NewClient(cfg).Get(ctx, id)
	if err != nil {
		return nil, classify("get payment", err)
	}
	p := fromPaymentResponse(*resp)
	return &p, nil
}

func (g *Gateway) SearchPayments(ctx context.Context, accessToken, externalReference string) ([]payment.ProviderPayment, error) {
	cfg, err := g.config(accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := mppayment.NewClient(cfg).Search(ctx, mppayment.SearchRequest{
		Limit:   searchLimit,
		Filters: map[string]string{"external_reference": externalReference},
	})
	if err != nil {
		return nil, classify("search payments", err)
	}
	out := make([]payment.ProviderPayment, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, fromPaymentResponse(r))
	}
	return out, nil
}

func (g *Gateway) GetAccountID(ctx context.Context, accessToken string) (string, error) {
	cfg, err := g.config(accessToken)
	if err != nil {
		return "", err
	}
	resp, err := user.NewClient(cfg).Get(ctx)
	if err != nil {
		return "", classify("get account", err)
	}
	return strconv.Itoa(resp.ID), nil
}

func toPreferenceRequest(req payment.PreferenceRequest) preference.Request {
	items := make([]preference.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = preference.ItemRequest{
			Title:       it.Title,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.InexactFloat64(),
		}
	}
	out := preference.Request{
		Items: items,
		BackURLs: &preference.BackURLsRequest{
			Success: req.BackURLs.Success,
			Pending: req.BackURLs.Pending,
			Failure: req.BackURLs.Failure,
		},
		StatementDescriptor: req.StatementDescriptor,
		AdditionalInfo:      req.AdditionalInfo,
		NotificationURL:     req.NotificationURL,
	}
	return out
}

func fromPaymentResponse(r mppayment.Response) payment.ProviderPayment {
	return payment.ProviderPayment{
		ID:                strconv.Itoa(r.ID),
		Status:            r.Status,
		StatusDetail:      r.StatusDetail,
		ExternalReference: r.ExternalReference,
		Amount:            decimal.NewFromFloat(r.TransactionAmount),
		Method:            r.PaymentMethodID,
		DateApproved:      r.DateApproved,
		DateCreated:       r.DateCreated,
		Payer: payment.ProviderPayer{
			FirstName:            r.Payer.FirstName,
			LastName:             r.Payer.LastName,
			Email:                r.Payer.Email,
			PhoneAreaCode:        r.Payer.Phone.AreaCode,
			PhoneNumber:          r.Payer.Phone.Number,
			IdentificationType:   r.Payer.Identification.Type,
			IdentificationNumber: r.Payer.Identification.Number,
		},
	}
}

// classify folds SDK and transport errors into the two provider sentinels.
func classify(op string, err error) error {
	if payment.IsRetryableError(err) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", payment.ErrProviderTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", payment.ErrProviderFailure, op, err)
}
