package payment_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/pagos-api/internal/events"
	"github.com/Tanmoy095/pagos-api/internal/logging"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/store/memory"
)

var providerCreated = time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)

// fakeGateway records calls and serves canned provider payments.
type fakeGateway struct {
	mu sync.Mutex

	createReqs  []payment.PreferenceRequest
	createErr   error
	extRefs     map[string]string // provider preference id -> external reference
	extRefErr   error
	payments    map[string]payment.ProviderPayment
	getErr      error
	getDelay    time.Duration
	accountID   string
	accountErr  error
	nextPref    int
	getCalls    atomic.Int32
	searchCalls atomic.Int32
	acctCalls   atomic.Int32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		extRefs:   map[string]string{},
		payments:  map[string]payment.ProviderPayment{},
		accountID: "mp-user-1",
	}
}

func (g *fakeGateway) CreatePreference(_ context.Context, _ string, req payment.PreferenceRequest) (*payment.ProviderPreference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createReqs = append(g.createReqs, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextPref++
	id := fmt.Sprintf("mp-pref-%d", g.nextPref)
	return &payment.ProviderPreference{
		ID:          id,
		InitPoint:   "https://www.mercadopago.com.ar/checkout/v1/redirect?pref_id=" + id,
		DateCreated: providerCreated,
	}, nil
}

func (g *fakeGateway) SetExternalReference(_ context.Context, _, prefID, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.extRefErr != nil {
		return g.extRefErr
	}
	g.extRefs[prefID] = ref
	return nil
}

func (g *fakeGateway) GetPayment(ctx context.Context, _, id string) (*payment.ProviderPayment, error) {
	g.getCalls.Add(1)
	if g.getDelay > 0 {
		select {
		case <-time.After(g.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s not found", payment.ErrProviderFailure, id)
	}
	return &p, nil
}

func (g *fakeGateway) SearchPayments(_ context.Context, _, ref string) ([]payment.ProviderPayment, error) {
	g.searchCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []payment.ProviderPayment
	for _, p := range g.payments {
		if p.ExternalReference == ref {
			out = append(out, p)
		}
	}
	return out, nil
}

func (g *fakeGateway) GetAccountID(context.Context, string) (string, error) {
	g.acctCalls.Add(1)
	if g.accountErr != nil {
		return "", g.accountErr
	}
	return g.accountID, nil
}

func (g *fakeGateway) putPayment(p payment.ProviderPayment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := value.(events.Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc    *payment.Service
	store  *memory.Store
	gw     *fakeGateway
	pub    *recordingPublisher
	client *payment.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	gw := newFakeGateway()
	pub := &recordingPublisher{}
	svc := payment.NewService(store.PaymentStores(), gw, pub, logging.Discard(), payment.Options{
		ProviderTimeout: time.Second,
		NotificationURL: "https://api.test/pagos/notificar",
	})

	pending := "https://club.test/pendiente"
	client, err := svc.RegisterClient(context.Background(), payment.NewClient{
		Name:        "Club Atletico",
		SuccessURL:  "https://club.test/exito",
		PendingURL:  &pending,
		FailureURL:  "https://club.test/error",
		PublicKey:   "APP_USR-pk",
		AccessToken: "APP_USR-token",
	})
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, gw: gw, pub: pub, client: client}
}

func (f *fixture) issue(t *testing.T) *payment.Preference {
	t.Helper()
	res, err := f.svc.IssuePreference(context.Background(), f.client.ID, payment.IssueRequest{
		Items: []payment.NewItem{
			{Title: "Cuota", Description: "Marzo", Quantity: 2, UnitPrice: decimal.RequireFromString("1500.50")},
		},
		AdditionalInfo: "socio 42",
	})
	require.NoError(t, err)
	return res.Preference
}

func approvedPayment(id string, pref *payment.Preference) payment.ProviderPayment {
	return payment.ProviderPayment{
		ID:                id,
		Status:            payment.ProviderStatusApproved,
		StatusDetail:      payment.ProviderDetailAccredited,
		ExternalReference: fmt.Sprint(pref.ID),
		Amount:            decimal.RequireFromString("3001.00"),
		Method:            "visa",
		DateApproved:      providerCreated.Add(time.Hour),
		DateCreated:       providerCreated.Add(30 * time.Minute),
		Payer: payment.ProviderPayer{
			FirstName:            "Ana",
			LastName:             "Diaz",
			Email:                "ana@example.com",
			PhoneAreaCode:        "11",
			PhoneNumber:          "55551234",
			IdentificationType:   "DNI",
			IdentificationNumber: "30111222",
		},
	}
}

func notification(userID, paymentID string) payment.Notification {
	return payment.Notification{
		Action: payment.ActionPaymentCreated,
		Type:   "payment",
		UserID: payment.FlexibleID(userID),
		Data:   payment.NotificationData{ID: payment.FlexibleID(paymentID)},
	}
}
