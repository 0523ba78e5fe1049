// internal/api/server.go
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
)

// PaymentService is what the handlers need from payment.Service.
type PaymentService interface {
	RegisterClient(ctx context.Context, in payment.NewClient) (*payment.Client, error)
	ListClients(ctx context.Context) ([]payment.Client, error)
	GetClient(ctx context.Context, id int64) (*payment.Client, error)
	ListClientPreferences(ctx context.Context, clientID int64) (*payment.Client, []payment.Preference, error)
	ListClientPayments(ctx context.Context, clientID int64) (*payment.Client, []payment.Payment, error)
	IssuePreference(ctx context.Context, clientID int64, req payment.IssueRequest) (*payment.IssueResult, error)
	GetPreference(ctx context.Context, id int64) (*payment.Preference, error)
	GetPayment(ctx context.Context, id int64) (*payment.Payment, error)
	HandleNotification(ctx context.Context, n payment.Notification) (payment.Outcome, error)
}

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*auth.User, error)
	Login(ctx context.Context, googleJWT string) (*auth.Token, *auth.User, error)
}

type ResolutionService interface {
	Create(ctx context.Context, userID int64, in resolution.NewResolution) (*resolution.Resolution, error)
	SubmitAnonymous(ctx context.Context, in resolution.NewResolution) error
	ListByUser(ctx context.Context, userID int64) ([]resolution.Resolution, error)
	Get(ctx context.Context, userID, id int64) (*resolution.Resolution, error)
}

var (
	_ PaymentService    = (*payment.Service)(nil)
	_ Authenticator     = (*auth.Service)(nil)
	_ ResolutionService = (*resolution.Service)(nil)
)

// Pinger reports storage liveness, *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies groups the collaborators of the HTTP layer.
type Dependencies struct {
	Payments    PaymentService
	Auth        Authenticator
	Resolutions ResolutionService
	DB          Pinger // optional
}

// Server is the pagos HTTP API.
type Server struct {
	deps   Dependencies
	logger *slog.Logger
	router *gin.Engine
}

// NewServer wires routes and middleware.
func NewServer(deps Dependencies, cfg config.HTTPConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	s := &Server{deps: deps, logger: logger, router: router}

	router.Use(
		requestID(),
		accessLog(logger),
		recovery(logger),
		cors(cfg.AllowedOrigins),
	)

	router.GET("/healthz", s.handleHealth)

	// Clients
	router.POST("/clientes", s.handleCreateClient)
	router.GET("/clientes", s.handleListClients)
	router.GET("/clientes/:id", s.handleGetClient)
	router.GET("/clientes/:id/preferencias", s.handleClientPreferences)
	router.GET("/clientes/:id/pagos", s.handleClientPayments)

	// Preferences and payments
	router.POST("/preferencias/crear/:client_id", s.handleCreatePreference)
	router.GET("/preferencias/:id", s.handleGetPreference)
	router.GET("/pagos/:id", s.handleGetPayment)
	router.POST("/pagos/notificar", s.handleNotification)

	// Identity and resolutions
	router.POST("/login", s.handleLogin)
	router.POST("/resolucion_anonima", s.handleAnonymousResolution)
	secured := router.Group("/", s.requireUser())
	{
		secured.POST("/resolucion", s.handleCreateResolution)
		secured.GET("/resoluciones", s.handleListResolutions)
		secured.GET("/resoluciones/:id", s.handleGetResolution)
	}

	return s
}

// Handler exposes the router for an http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
