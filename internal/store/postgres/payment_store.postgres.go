// internal/store/postgres/payment_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

var _ payment.PaymentStore = (*PaymentStore)(nil)

type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentColumns = `p.id, p.fecha_hora, p.monto_abonado, p.metodo_pago, p.pagador_nombre, p.pagador_email,
	p.pagador_telefono, p.pagador_tipo_identificacion, p.pagador_nro_identificacion, p.id_pago_mp, p.id_preferencia`

// CreatePayment relies on UNIQUE(id_pago_mp) and UNIQUE(id_preferencia):
// the loser of a concurrent settlement gets ErrPaymentExists.
func (s *PaymentStore) CreatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO pagos (fecha_hora, monto_abonado, metodo_pago, pagador_nombre, pagador_email,
			pagador_telefono, pagador_tipo_identificacion, pagador_nro_identificacion, id_pago_mp, id_preferencia)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		p.PaidAt,
		p.Amount,
		p.Method,
		p.PayerName,
		p.PayerEmail,
		p.PayerPhone,
		p.PayerIdentificationType,
		p.PayerIdentificationNum,
		p.ProviderPaymentID,
		p.PreferenceID,
	).Scan(&p.ID)
	if err != nil {
		if constraint, ok := uniqueViolationOn(err); ok {
			return fmt.Errorf("%w: %s", payment.ErrPaymentExists, constraint)
		}
		return fmt.Errorf("db: failed to create payment: %w", err)
	}
	return nil
}

func (s *PaymentStore) GetPaymentByID(ctx context.Context, id int64) (*payment.Payment, error) {
	return s.getOne(ctx, `SELECT `+paymentColumns+` FROM pagos p WHERE p.id = $1`, id)
}

func (s *PaymentStore) GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*payment.Payment, error) {
	return s.getOne(ctx, `SELECT `+paymentColumns+` FROM pagos p WHERE p.id_pago_mp = $1`, providerPaymentID)
}

func (s *PaymentStore) GetPaymentByPreferenceID(ctx context.Context, preferenceID int64) (*payment.Payment, error) {
	return s.getOne(ctx, `SELECT `+paymentColumns+` FROM pagos p WHERE p.id_preferencia = $1`, preferenceID)
}

func (s *PaymentStore) ListPaymentsByClient(ctx context.Context, clientID int64) ([]payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM pagos p
		JOIN preferencias pr ON pr.id = p.id_preferencia
		WHERE pr.id_cliente = $1
		ORDER BY p.fecha_hora DESC, p.id DESC`
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []payment.Payment{}
	for rows.Next() {
		var p payment.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("db: failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *PaymentStore) getOne(ctx context.Context, query string, arg any) (*payment.Payment, error) {
	var p payment.Payment
	if err := scanPayment(conn(ctx, s.db).QueryRowContext(ctx, query, arg), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("db: failed to get payment: %w", err)
	}
	return &p, nil
}

func scanPayment(row scanner, p *payment.Payment) error {
	return row.Scan(
		&p.ID,
		&p.PaidAt,
		&p.Amount,
		&p.Method,
		&p.PayerName,
		&p.PayerEmail,
		&p.PayerPhone,
		&p.PayerIdentificationType,
		&p.PayerIdentificationNum,
		&p.ProviderPaymentID,
		&p.PreferenceID,
	)
}
