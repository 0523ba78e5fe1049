// internal/payment/webhookLogic.payment.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// HandleNotification processes one inbound provider notification.
// The returned Outcome is informational, the HTTP contract acknowledges every
// delivery regardless.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (Outcome, error) {
	if n.Action != ActionPaymentCreated {
		s.logger.Debug("notification ignored", "action", n.Action, "notification_id", string(n.ID))
		return OutcomeIgnoredAction, nil
	}
	paymentID := string(n.Data.ID)
	if paymentID == "" {
		return OutcomeFailed, fmt.Errorf("%w: notification without data.id", ErrInvalidInput)
	}

	// Redeliveries racing each other inside this process share one run.
	v, err, _ := s.sf.Do(paymentID, func() (interface{}, error) {
		return s.processPaymentCreated(ctx, string(n.UserID), paymentID)
	})
	outcome, _ := v.(Outcome)
	return outcome, err
}

func (s *Service) processPaymentCreated(ctx context.Context, providerUserID, providerPaymentID string) (Outcome, error) {
	// 1. Which client does this notification belong to?
	client, err := s.clients.GetClientByProviderID(ctx, providerUserID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			s.logger.Warn("notification for unknown provider account",
				"user_id", providerUserID,
				"provider_payment_id", providerPaymentID,
			)
			return OutcomeUnknownClient, nil
		}
		return OutcomeFailed, fmt.Errorf("lookup client by provider id %s: %w", providerUserID, err)
	}

	// 2. Never trust the payload, ask the provider with the client's token.
	pctx, cancel := s.providerCtx(ctx)
	remote, err := s.gateway.GetPayment(pctx, client.AccessToken, providerPaymentID)
	cancel()
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch provider payment %s: %w", providerPaymentID, err)
	}

	return s.Settle(ctx, client, *remote)
}

// Settle runs an authoritative provider payment through the duplicate check,
// the approval check and the reconciler. It is shared by the notification
// path and the reconciliation worker. client is the account whose token
// fetched remote.
func (s *Service) Settle(ctx context.Context, client *Client, remote ProviderPayment) (Outcome, error) {
	// 3. Duplicate?
	if _, err := s.payments.GetPaymentByProviderID(ctx, remote.ID); err == nil {
		s.logger.Info("payment already recorded", "provider_payment_id", remote.ID)
		return OutcomeDuplicate, nil
	} else if !errors.Is(err, ErrPaymentNotFound) {
		return OutcomeFailed, fmt.Errorf("lookup payment %s: %w", remote.ID, err)
	}

	// 4. Approved and credited?
	if !remote.IsApproved() {
		s.logger.Info("payment not approved yet",
			"provider_payment_id", remote.ID,
			"status", remote.Status,
			"status_detail", remote.StatusDetail,
		)
		return OutcomeNotApproved, nil
	}

	// 5. Settle.
	if _, err := s.Apply(ctx, client.ID, remote); err != nil {
		switch {
		case errors.Is(err, ErrPaymentExists), errors.Is(err, ErrPreferenceAlreadyPaid):
			s.logger.Info("payment settled concurrently", "provider_payment_id", remote.ID)
			return OutcomeDuplicate, nil
		case errors.Is(err, ErrPreferenceNotOwned), errors.Is(err, ErrAmountMismatch):
			s.logger.Warn("payment rejected",
				"client_id", client.ID,
				"provider_payment_id", remote.ID,
				"external_reference", remote.ExternalReference,
				"amount", remote.Amount.String(),
				"error", err,
			)
			return OutcomeRejected, nil
		}
		return OutcomeFailed, err
	}
	return OutcomeSettled, nil
}

// PendingPreferences lists PENDING preferences created before now - olderThan.
func (s *Service) PendingPreferences(ctx context.Context, olderThan time.Duration, limit int) ([]Preference, error) {
	return s.preferences.ListPendingPreferences(ctx, time.Now().Add(-olderThan), limit)
}

// ReconcilePreference asks the provider for payments carrying the preference's
// external reference and settles the first approved one. It covers
// notifications that never arrived.
func (s *Service) ReconcilePreference(ctx context.Context, pref Preference) (Outcome, error) {
	if pref.Status != StatusPending {
		return OutcomeDuplicate, nil
	}
	client, err := s.clients.GetClientByID(ctx, pref.ClientID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("lookup client %d: %w", pref.ClientID, err)
	}

	pctx, cancel := s.providerCtx(ctx)
	found, err := s.gateway.SearchPayments(pctx, client.AccessToken, strconv.FormatInt(pref.ID, 10))
	cancel()
	if err != nil {
		return OutcomeFailed, fmt.Errorf("search provider payments for preference %d: %w", pref.ID, err)
	}

	for _, remote := range found {
		if remote.IsApproved() {
			return s.Settle(ctx, client, remote)
		}
	}
	return OutcomeNotApproved, nil
}
