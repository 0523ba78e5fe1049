package api_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/pagos-api/internal/api"
	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/events"
	"github.com/Tanmoy095/pagos-api/internal/logging"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
	"github.com/Tanmoy095/pagos-api/internal/store/memory"
)

const googleClientID = "pagos-flow.apps.googleusercontent.com"

// stubGateway plays Mercado Pago for one merchant account.
type stubGateway struct {
	mu       sync.Mutex
	extRefs  map[string]string
	payments map[string]payment.ProviderPayment
}

func (g *stubGateway) CreatePreference(_ context.Context, _ string, _ payment.PreferenceRequest) (*payment.ProviderPreference, error) {
	return &payment.ProviderPreference{ID: "mp-pref-1", InitPoint: "https://mp.test/checkout/mp-pref-1", DateCreated: time.Now().UTC()}, nil
}

func (g *stubGateway) SetExternalReference(_ context.Context, _, prefID, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.extRefs[prefID] = ref
	return nil
}

func (g *stubGateway) GetPayment(_ context.Context, _, id string) (*payment.ProviderPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[id]
	if !ok {
		return nil, payment.ErrProviderFailure
	}
	return &p, nil
}

func (g *stubGateway) SearchPayments(context.Context, string, string) ([]payment.ProviderPayment, error) {
	return nil, nil
}

func (g *stubGateway) GetAccountID(context.Context, string) (string, error) { return "4400", nil }

type flow struct {
	t       *testing.T
	handler http.Handler
	gateway *stubGateway
	key     *rsa.PrivateKey
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	gin.SetMode(gin.TestMode)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	logger := logging.Discard()
	store := memory.New()
	gw := &stubGateway{extRefs: map[string]string{}, payments: map[string]payment.ProviderPayment{}}
	payments := payment.NewService(store.PaymentStores(), gw, events.Noop{}, logger, payment.Options{ProviderTimeout: time.Second})

	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	verifier := auth.NewGoogleVerifierWith(oidc.NewVerifier(auth.GoogleIssuer, keys, &oidc.Config{ClientID: googleClientID}))

	srv := api.NewServer(api.Dependencies{
		Payments:    payments,
		Auth:        auth.NewService(verifier, store, logger),
		Resolutions: resolution.NewService(store, logger),
	}, config.HTTPConfig{AllowedOrigins: []string{"*"}}, logger)

	return &flow{t: t, handler: srv.Handler(), gateway: gw, key: key}
}

func (f *flow) call(method, path, body, bearer string) (int, map[string]any) {
	f.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (f *flow) googleToken(email string) string {
	f.t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            auth.GoogleIssuer,
		"aud":            googleClientID,
		"sub":            "sub-" + email,
		"email":          email,
		"email_verified": true,
		"name":           "Ana",
		"iat":            time.Now().Add(-time.Minute).Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}).SignedString(f.key)
	require.NoError(f.t, err)
	return raw
}

func TestCheckoutFlow(t *testing.T) {
	decimal.MarshalJSONWithoutQuotes = true
	f := newFlow(t)

	code, body := f.call(http.MethodPost, "/clientes",
		`{"nombre":"Club Atletico","url_exito":"https://club.test/ok","url_error":"https://club.test/ko","access_token":"APP_USR-1"}`, "")
	require.Equal(t, http.StatusCreated, code, body)
	clientID := int64(body["cliente"].(map[string]any)["id"].(float64))
	require.Positive(t, clientID)

	code, body = f.call(http.MethodPost, "/preferencias/crear/"+jsonInt(clientID),
		`{"items":[{"titulo":"Cuota","descripcion":"Marzo","cantidad":2,"precio_unitario":"750.25"}]}`, "")
	require.Equal(t, http.StatusCreated, code, body)
	pref := body["preferencia"].(map[string]any)
	assert.Equal(t, "PENDIENTE", pref["estado"])
	assert.Equal(t, "1", f.gateway.extRefs["mp-pref-1"])

	f.gateway.payments["9001"] = payment.ProviderPayment{
		ID:                "9001",
		Status:            payment.ProviderStatusApproved,
		StatusDetail:      payment.ProviderDetailAccredited,
		ExternalReference: "1",
		Amount:            decimal.RequireFromString("1500.50"),
		Method:            "visa",
		DateApproved:      time.Now().UTC(),
		Payer:             payment.ProviderPayer{FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com"},
	}
	notification := `{"action":"payment.created","user_id":4400,"type":"payment","data":{"id":"9001"}}`
	for i := 0; i < 2; i++ {
		code, body = f.call(http.MethodPost, "/pagos/notificar", notification, "")
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 200, body["code"])
	}

	code, body = f.call(http.MethodGet, "/preferencias/1", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAGADA", body["preferencia"].(map[string]any)["estado"])
	pago := body["pago_preferencia"].(map[string]any)
	assert.Equal(t, "9001", pago["id_pago_mp"])
	assert.EqualValues(t, 1500.5, pago["monto_abonado"])
	assert.Equal(t, "Ana Diaz", pago["pagador_nombre"])

	code, body = f.call(http.MethodGet, "/clientes/1/pagos", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["pagos"], 1)
}

func TestLoginAndResolutions(t *testing.T) {
	f := newFlow(t)

	code, body := f.call(http.MethodPost, "/login", `{"google_jwt":"`+f.googleToken("ana@example.com")+`"}`, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, auth.TokenTypeBearer, body["token_type"])
	token := body["access_token"].(string)

	code, _ = f.call(http.MethodPost, "/resolucion", `{"id_actividad":3,"nombre_actividad":"Fracciones","resolucion":"1/2"}`, token)
	require.Equal(t, http.StatusCreated, code)

	code, body = f.call(http.MethodGet, "/resoluciones", "", token)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["resoluciones"], 1)
	id := int64(body["resoluciones"].([]any)[0].(map[string]any)["id"].(float64))

	other := f.googleToken("bob@example.com")
	code, _ = f.call(http.MethodGet, "/resoluciones/"+jsonInt(id), "", other)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.call(http.MethodGet, "/resoluciones", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
