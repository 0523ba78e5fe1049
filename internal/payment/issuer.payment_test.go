package payment_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/pagos-api/internal/events"
	"github.com/Tanmoy095/pagos-api/internal/payment"
)

func TestIssuePreference_HappyPath(t *testing.T) {
	f := newFixture(t)

	pref := f.issue(t)

	assert.Equal(t, payment.StatusPending, pref.Status)
	assert.Equal(t, "mp-pref-1", pref.ProviderPreferenceID)
	assert.Contains(t, pref.InitPoint, "pref_id=mp-pref-1")
	assert.Equal(t, providerCreated, pref.CreatedAt, "creation time comes from the provider")
	assert.Equal(t, "socio 42", pref.AdditionalInfo)
	require.Len(t, pref.Items, 1)
	assert.NotZero(t, pref.Items[0].ID)
	assert.Equal(t, pref.ID, pref.Items[0].PreferenceID)

	// Provider request carries the client's redirect targets and descriptor.
	require.Len(t, f.gw.createReqs, 1)
	req := f.gw.createReqs[0]
	assert.Equal(t, "Club Atletico", req.StatementDescriptor)
	assert.Equal(t, payment.BackURLs{
		Success: "https://club.test/exito",
		Pending: "https://club.test/pendiente",
		Failure: "https://club.test/error",
	}, req.BackURLs)
	assert.Equal(t, "https://api.test/pagos/notificar", req.NotificationURL)

	// The provider preference points back to the local id.
	assert.Equal(t, strconv.FormatInt(pref.ID, 10), f.gw.extRefs["mp-pref-1"])

	stored, err := f.store.GetPreferenceByID(context.Background(), pref.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Len(t, stored.Items, 1)

	assert.Equal(t, []string{events.PreferenceCreated}, f.pub.types())
}

func TestIssuePreference_UnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.IssuePreference(context.Background(), 999, payment.IssueRequest{
		Items: []payment.NewItem{{Title: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})

	assert.ErrorIs(t, err, payment.ErrClientNotFound)
	assert.Empty(t, f.gw.createReqs, "provider must not be contacted")
}

func TestIssuePreference_Validation(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	tests := []struct {
		name string
		req  payment.IssueRequest
	}{
		{"no items", payment.IssueRequest{}},
		{"zero quantity", payment.IssueRequest{Items: []payment.NewItem{{Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}}},
		{"free item", payment.IssueRequest{Items: []payment.NewItem{{Quantity: 1, UnitPrice: decimal.Zero}}}},
		{"negative price", payment.IssueRequest{Items: []payment.NewItem{{Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}}}},
		{"additional info too long", payment.IssueRequest{
			Items:          []payment.NewItem{{Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
			AdditionalInfo: string(long),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.IssuePreference(context.Background(), f.client.ID, tt.req)
			assert.ErrorIs(t, err, payment.ErrInvalidInput)
			assert.Empty(t, f.gw.createReqs)
		})
	}
}

func TestIssuePreference_ProviderFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.gw.createErr = payment.ErrProviderTimeout

	_, err := f.svc.IssuePreference(context.Background(), f.client.ID, payment.IssueRequest{
		Items: []payment.NewItem{{Title: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})

	assert.ErrorIs(t, err, payment.ErrProviderTimeout)
	prefs, err := f.store.ListPreferencesByClient(context.Background(), f.client.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs)
	assert.Empty(t, f.pub.types())
}

func TestIssuePreference_BackLinkFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.gw.extRefErr = errors.New("provider rejected update")

	_, err := f.svc.IssuePreference(context.Background(), f.client.ID, payment.IssueRequest{
		Items: []payment.NewItem{{Title: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})

	require.Error(t, err)
	prefs, err := f.store.ListPreferencesByClient(context.Background(), f.client.ID)
	require.NoError(t, err)
	assert.Empty(t, prefs, "no PENDING row without a provider back-link")
	assert.Empty(t, f.pub.types())
}

func TestIssuePreference_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	pref := f.issue(t)
	assert.NotZero(t, pref.ID)
}
