// internal/payment/issuer.payment.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/Tanmoy095/pagos-api/internal/events"
)

const (
	maxAdditionalInfo = 200
	maxItemText       = 100
)

// IssuePreference creates a payment intent with the provider and the matching
// local PENDING preference, linked both ways through the external reference.
func (s *Service) IssuePreference(ctx context.Context, clientID int64, req IssueRequest) (*IssueResult, error) {
	// 1. Resolve the client
	client, err := s.clients.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch client %d: %w", clientID, err)
	}
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	// 2. Build the provider facing request
	providerReq := PreferenceRequest{
		Items: req.Items,
		BackURLs: BackURLs{
			Success: client.SuccessURL,
			Failure: client.FailureURL,
		},
		StatementDescriptor: client.Name,
		AdditionalInfo:      req.AdditionalInfo,
		NotificationURL:     s.opts.NotificationURL,
	}
	if client.PendingURL != nil {
		providerReq.BackURLs.Pending = *client.PendingURL
	}

	// 3. Submit it with the client's own token. The provider owns the id,
	// the redirect url and the creation timestamp.
	pctx, cancel := s.providerCtx(ctx)
	remote, err := s.gateway.CreatePreference(pctx, client.AccessToken, providerReq)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("create provider preference: %w", err)
	}

	pref := &Preference{
		ProviderPreferenceID: remote.ID,
		InitPoint:            remote.InitPoint,
		AdditionalInfo:       req.AdditionalInfo,
		ClientID:             client.ID,
		CreatedAt:            remote.DateCreated,
		Status:               StatusPending,
	}
	if remote.AdditionalInfo != "" {
		pref.AdditionalInfo = remote.AdditionalInfo
	}
	items := make([]Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = Item{
			Title:       it.Title,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}

	// 4-6. Local row, provider back-link and items commit or roll back together.
	// The remote preference from step 3 stays orphaned on failure: the provider
	// has no delete for preferences.
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.preferences.CreatePreference(ctx, pref); err != nil {
			return fmt.Errorf("persist preference: %w", err)
		}

		pctx, cancel := s.providerCtx(ctx)
		defer cancel()
		ref := strconv.FormatInt(pref.ID, 10)
		if err := s.gateway.SetExternalReference(pctx, client.AccessToken, remote.ID, ref); err != nil {
			return fmt.Errorf("set external reference %s on %s: %w", ref, remote.ID, err)
		}

		if err := s.preferences.CreateItems(ctx, pref.ID, items); err != nil {
			return fmt.Errorf("persist items: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("preference issuance failed",
			"client_id", client.ID,
			"provider_preference_id", remote.ID,
			"error", err,
		)
		return nil, err
	}
	pref.Items = items

	s.logger.Info("preference issued",
		"client_id", client.ID,
		"preference_id", pref.ID,
		"provider_preference_id", pref.ProviderPreferenceID,
		"items", len(items),
	)
	s.publish(ctx, strconv.FormatInt(pref.ID, 10), events.PreferenceCreated, events.PreferenceCreatedPayload{
		PreferenceID:         pref.ID,
		ProviderPreferenceID: pref.ProviderPreferenceID,
		ClientID:             pref.ClientID,
		InitPoint:            pref.InitPoint,
	})

	return &IssueResult{Client: client, Preference: pref}, nil
}

func validateIssueRequest(req IssueRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.AdditionalInfo) > maxAdditionalInfo {
		return fmt.Errorf("%w: info_adicional exceeds %d characters", ErrInvalidInput, maxAdditionalInfo)
	}
	for i, it := range req.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d: cantidad must be at least 1", ErrInvalidInput, i)
		}
		if !it.UnitPrice.IsPositive() {
			return fmt.Errorf("%w: item %d: precio_unitario must be positive", ErrInvalidInput, i)
		}
		if utf8.RuneCountInString(it.Title) > maxItemText || utf8.RuneCountInString(it.Description) > maxItemText {
			return fmt.Errorf("%w: item %d: titulo and descripcion are limited to %d characters", ErrInvalidInput, i, maxItemText)
		}
	}
	return nil
}
