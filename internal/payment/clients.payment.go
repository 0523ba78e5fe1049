// internal/payment/clients.payment.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RegisterClient onboards a merchant. The name is checked before the provider
// is contacted so a conflicting registration costs no remote call.
func (s *Service) RegisterClient(ctx context.Context, in NewClient) (*Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateNewClient(in); err != nil {
		return nil, err
	}

	if _, err := s.clients.GetClientByName(ctx, in.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrClientExists, in.Name)
	} else if !errors.Is(err, ErrClientNotFound) {
		return nil, fmt.Errorf("lookup client %q: %w", in.Name, err)
	}

	pctx, cancel := s.providerCtx(ctx)
	accountID, err := s.gateway.GetAccountID(pctx, in.AccessToken)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("resolve provider account: %w", err)
	}

	c := &Client{
		ProviderID:  accountID,
		Name:        in.Name,
		PublicKey:   in.PublicKey,
		AccessToken: in.AccessToken,
		SuccessURL:  in.SuccessURL,
		PendingURL:  in.PendingURL,
		FailureURL:  in.FailureURL,
	}
	// A racing registration with the same name or account still loses here.
	if err := s.clients.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("client registered", "client_id", c.ID, "nombre", c.Name, "provider_id", c.ProviderID)
	return c, nil
}

func validateNewClient(in NewClient) error {
	var missing []string
	if in.Name == "" {
		missing = append(missing, "nombre")
	}
	if strings.TrimSpace(in.AccessToken) == "" {
		missing = append(missing, "access_token")
	}
	if strings.TrimSpace(in.SuccessURL) == "" {
		missing = append(missing, "url_exito")
	}
	if strings.TrimSpace(in.FailureURL) == "" {
		missing = append(missing, "url_error")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.clients.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id int64) (*Client, error) {
	return s.clients.GetClientByID(ctx, id)
}

// ListClientPreferences returns the client together with its preferences.
func (s *Service) ListClientPreferences(ctx context.Context, clientID int64) (*Client, []Preference, error) {
	c, err := s.clients.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	prefs, err := s.preferences.ListPreferencesByClient(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("list preferences of client %d: %w", clientID, err)
	}
	return c, prefs, nil
}

// ListClientPayments returns the client together with the payments that
// settled its preferences.
func (s *Service) ListClientPayments(ctx context.Context, clientID int64) (*Client, []Payment, error) {
	c, err := s.clients.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	pays, err := s.payments.ListPaymentsByClient(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments of client %d: %w", clientID, err)
	}
	return c, pays, nil
}

// GetPreference loads a preference with its items and, when settled, its payment.
func (s *Service) GetPreference(ctx context.Context, id int64) (*Preference, error) {
	p, err := s.preferences.GetPreferenceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pay, err := s.payments.GetPaymentByPreferenceID(ctx, id)
	switch {
	case err == nil:
		p.Payment = pay
	case errors.Is(err, ErrPaymentNotFound):
	default:
		return nil, fmt.Errorf("lookup payment of preference %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return s.payments.GetPaymentByID(ctx, id)
}
