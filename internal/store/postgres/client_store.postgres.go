// internal/store/postgres/client_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

var _ payment.ClientStore = (*ClientStore)(nil)

type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, id_mp, nombre, public_key, access_token, url_exito, url_pendiente, url_error`

func (s *ClientStore) CreateClient(ctx context.Context, c *payment.Client) error {
	query := `
		INSERT INTO clientes (id_mp, nombre, public_key, access_token, url_exito, url_pendiente, url_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		c.ProviderID,
		c.Name,
		c.PublicKey,
		c.AccessToken,
		c.SuccessURL,
		c.PendingURL,
		c.FailureURL,
	).Scan(&c.ID)
	if err != nil {
		if constraint, ok := uniqueViolationOn(err); ok {
			return fmt.Errorf("%w: %s", payment.ErrClientExists, constraint)
		}
		return fmt.Errorf("db: failed to create client: %w", err)
	}
	return nil
}

func (s *ClientStore) GetClientByID(ctx context.Context, id int64) (*payment.Client, error) {
	return s.getOne(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1`, id)
}

func (s *ClientStore) GetClientByName(ctx context.Context, name string) (*payment.Client, error) {
	return s.getOne(ctx, `SELECT `+clientColumns+` FROM clientes WHERE nombre = $1`, name)
}

func (s *ClientStore) GetClientByProviderID(ctx context.Context, providerID string) (*payment.Client, error) {
	return s.getOne(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id_mp = $1`, providerID)
}

func (s *ClientStore) ListClients(ctx context.Context) ([]payment.Client, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, `SELECT `+clientColumns+` FROM clientes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []payment.Client{}
	for rows.Next() {
		var c payment.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("db: failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *ClientStore) getOne(ctx context.Context, query string, arg any) (*payment.Client, error) {
	var c payment.Client
	err := scanClient(conn(ctx, s.db).QueryRowContext(ctx, query, arg), &c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrClientNotFound
		}
		return nil, fmt.Errorf("db: failed to get client: %w", err)
	}
	return &c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner, c *payment.Client) error {
	return row.Scan(
		&c.ID,
		&c.ProviderID,
		&c.Name,
		&c.PublicKey,
		&c.AccessToken,
		&c.SuccessURL,
		&c.PendingURL,
		&c.FailureURL,
	)
}
