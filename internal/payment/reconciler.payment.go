// internal/payment/reconciler.payment.go
package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Tanmoy095/pagos-api/internal/events"
)

// Apply records a validated provider payment and moves its preference from
// PENDING to PAID. Both writes share one transaction: a preference is PAID
// if and only if exactly one Payment references it.
// clientID is the client whose token fetched the payment; it must own the
// preference named by the external reference.
func (s *Service) Apply(ctx context.Context, clientID int64, remote ProviderPayment) (*Payment, error) {
	prefID, err := ParseExternalReference(remote.ExternalReference)
	if err != nil {
		return nil, err
	}
	p := BuildPayment(remote, prefID)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		pref, err := s.preferences.GetPreferenceByID(ctx, prefID)
		if err != nil {
			return fmt.Errorf("load preference %d: %w", prefID, err)
		}
		if pref.ClientID != clientID {
			return fmt.Errorf("%w: preference %d, client %d", ErrPreferenceNotOwned, prefID, clientID)
		}
		if total := pref.Total(); remote.Amount.LessThan(total) {
			return fmt.Errorf("%w: paid %s, total %s", ErrAmountMismatch, remote.Amount, total)
		}

		// Insert first: the unique constraint on the provider id is the
		// cross-process arbiter for concurrent deliveries.
		if err := s.payments.CreatePayment(ctx, p); err != nil {
			return fmt.Errorf("record payment %s: %w", remote.ID, err)
		}
		if err := s.preferences.MarkPreferencePaid(ctx, prefID); err != nil {
			return fmt.Errorf("mark preference %d paid: %w", prefID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("preference settled",
		"preference_id", prefID,
		"payment_id", p.ID,
		"provider_payment_id", p.ProviderPaymentID,
		"amount", p.Amount.String(),
	)
	s.publish(ctx, strconv.FormatInt(prefID, 10), events.PreferencePaid, events.PreferencePaidPayload{
		PreferenceID:      prefID,
		PaymentID:         p.ID,
		ProviderPaymentID: p.ProviderPaymentID,
		Amount:            p.Amount,
		PaidAt:            p.PaidAt,
	})
	return p, nil
}

// ParseExternalReference extracts the local preference id the issuer wrote
// into the provider preference.
func ParseExternalReference(ref string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidExternalReference, ref)
	}
	return id, nil
}

// BuildPayment maps the provider record onto a local Payment. Missing payer
// parts collapse cleanly instead of leaving stray separators.
func BuildPayment(remote ProviderPayment, preferenceID int64) *Payment {
	paidAt := remote.DateApproved
	if paidAt.IsZero() {
		paidAt = remote.DateCreated
	}
	return &Payment{
		PaidAt:                  paidAt,
		Amount:                  remote.Amount,
		Method:                  remote.Method,
		PayerName:               joinNonEmpty(" ", remote.Payer.FirstName, remote.Payer.LastName),
		PayerEmail:              strings.TrimSpace(remote.Payer.Email),
		PayerPhone:              joinNonEmpty("", remote.Payer.PhoneAreaCode, remote.Payer.PhoneNumber),
		PayerIdentificationType: strings.TrimSpace(remote.Payer.IdentificationType),
		PayerIdentificationNum:  strings.TrimSpace(remote.Payer.IdentificationNumber),
		ProviderPaymentID:       remote.ID,
		PreferenceID:            preferenceID,
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
