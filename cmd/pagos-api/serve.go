package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Tanmoy095/pagos-api/internal/api"
	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/config"
	"github.com/Tanmoy095/pagos-api/internal/events"
	"github.com/Tanmoy095/pagos-api/internal/logging"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/payment/mercadopago"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
	"github.com/Tanmoy095/pagos-api/internal/store/memory"
	"github.com/Tanmoy095/pagos-api/internal/store/postgres"
	"github.com/Tanmoy095/pagos-api/internal/worker"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API and, when RECONCILER_ENABLED is set, the pending
preference sweeper.

Examples:
  pagos-api serve
  pagos-api serve --migrate
  STORE_DRIVER=memory pagos-api serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
}

// storage bundles whatever the selected driver provides.
type storage struct {
	payments    payment.Stores
	users       auth.UserStore
	resolutions resolution.Store
	db          *sql.DB // nil for the memory driver
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing event publisher failed", "error", err)
		}
	}()

	payments := payment.NewService(st.payments, mercadopago.NewGateway(cfg.MercadoPago.Timeout), publisher, logger, payment.Options{
		ProviderTimeout: cfg.MercadoPago.Timeout,
		NotificationURL: cfg.MercadoPago.NotificationURL,
	})

	verifier, err := buildVerifier(ctx, cfg.Google, logger)
	if err != nil {
		return err
	}

	deps := api.Dependencies{
		Payments:    payments,
		Auth:        auth.NewService(verifier, st.users, logger),
		Resolutions: resolution.NewService(st.resolutions, logger),
	}
	if st.db != nil {
		deps.DB = st.db
	}

	if cfg.Reconciler.Enabled {
		rec := worker.NewReconciler(payments, cfg.Reconciler, logger)
		go rec.Start(ctx)
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      api.NewServer(deps, cfg.HTTP, logger).Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "store", cfg.Store.Driver, "events", cfg.Events.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using the in-memory store, data is lost on restart")
		m := memory.New()
		return storage{payments: m.PaymentStores(), users: m, resolutions: m}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database.URL(), cfg.Database.MaxOpenConns)
	if err != nil {
		return storage{}, err
	}
	if serveMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return storage{}, err
		}
		logger.Info("schema applied")
	}
	return storage{
		payments:    postgres.PaymentStores(db),
		users:       postgres.NewUserStore(db),
		resolutions: postgres.NewResolutionStore(db),
		db:          db,
	}, nil
}

func buildVerifier(ctx context.Context, cfg config.GoogleConfig, logger *slog.Logger) (auth.TokenVerifier, error) {
	if cfg.ClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID is empty, every login will be rejected")
		return rejectAll{}, nil
	}
	v, err := auth.NewGoogleVerifier(ctx, cfg.Issuer, cfg.ClientID)
	if err != nil {
		return nil, fmt.Errorf("google verifier: %w", err)
	}
	return v, nil
}

type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (*auth.Claims, error) {
	return nil, auth.ErrUnauthorized
}
