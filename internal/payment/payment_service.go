// internal/payment/payment_service.go
package payment

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Tanmoy095/pagos-api/internal/events"
)

const defaultProviderTimeout = 15 * time.Second

// Options tunes the Service.
type Options struct {
	// ProviderTimeout bounds every call to the payment provider.
	ProviderTimeout time.Duration
	// NotificationURL is sent to the provider on each preference, optional.
	NotificationURL string
}

// Service orchestrates the preference lifecycle: issuance with the provider,
// notification intake and the PENDING -> PAID reconciliation.
type Service struct {
	clients     ClientStore
	preferences PreferenceStore
	payments    PaymentStore
	tx          TransactionManager
	gateway     Gateway
	publisher   EventPublisher
	logger      *slog.Logger
	opts        Options

	// sf collapses concurrent deliveries of the same provider payment id into
	// one processing run inside this process. Across processes the unique
	// constraint on id_pago_mp decides.
	sf singleflight.Group
}

func NewService(stores Stores, gateway Gateway, publisher EventPublisher, logger *slog.Logger, opts Options) *Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		clients:     stores.Clients,
		preferences: stores.Preferences,
		payments:    stores.Payments,
		tx:          stores.Tx,
		gateway:     gateway,
		publisher:   publisher,
		logger:      logger,
		opts:        opts,
	}
}

// providerCtx gives each provider call its own hard deadline so a slow
// provider never pins a request handler.
func (s *Service) providerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.ProviderTimeout)
}

// publish is best effort: the local state is already committed, a failed
// publish is logged and swallowed.
func (s *Service) publish(ctx context.Context, key, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, key, events.New(eventType, payload)); err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "key", key, "error", err)
	}
}
