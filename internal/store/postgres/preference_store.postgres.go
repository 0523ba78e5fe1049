// internal/store/postgres/preference_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

var _ payment.PreferenceStore = (*PreferenceStore)(nil)

type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

const preferenceColumns = `id, id_preferencia_mp, init_point, info_adicional, id_cliente, created_at, estado`

func (s *PreferenceStore) CreatePreference(ctx context.Context, p *payment.Preference) error {
	query := `
		INSERT INTO preferencias (id_preferencia_mp, init_point, info_adicional, id_cliente, created_at, estado)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		p.ProviderPreferenceID,
		p.InitPoint,
		p.AdditionalInfo,
		p.ClientID,
		p.CreatedAt,
		p.Status,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("db: failed to create preference: %w", err)
	}
	return nil
}

func (s *PreferenceStore) CreateItems(ctx context.Context, preferenceID int64, items []payment.Item) error {
	query := `
		INSERT INTO items_preferencia (titulo, descripcion, cantidad, precio_unitario, id_preferencia)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	db := conn(ctx, s.db)
	for i := range items {
		it := &items[i]
		if err := db.QueryRowContext(ctx, query,
			it.Title,
			it.Description,
			it.Quantity,
			it.UnitPrice,
			preferenceID,
		).Scan(&it.ID); err != nil {
			return fmt.Errorf("db: failed to create item %d: %w", i, err)
		}
		it.PreferenceID = preferenceID
	}
	return nil
}

func (s *PreferenceStore) GetPreferenceByID(ctx context.Context, id int64) (*payment.Preference, error) {
	var p payment.Preference
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+preferenceColumns+` FROM preferencias WHERE id = $1`, id)
	if err := scanPreference(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("db: failed to get preference: %w", err)
	}

	items, err := s.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return &p, nil
}

// ListPreferencesByClient returns the preferences without their items.
func (s *PreferenceStore) ListPreferencesByClient(ctx context.Context, clientID int64) ([]payment.Preference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM preferencias WHERE id_cliente = $1 ORDER BY created_at DESC, id DESC`
	return s.list(ctx, query, clientID)
}

func (s *PreferenceStore) MarkPreferencePaid(ctx context.Context, id int64) error {
	query := `UPDATE preferencias SET estado = $1 WHERE id = $2 AND estado = $3`
	db := conn(ctx, s.db)
	res, err := db.ExecContext(ctx, query, payment.StatusPaid, id, payment.StatusPending)
	if err != nil {
		return fmt.Errorf("db: failed to mark preference paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db: rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows: either missing or not PENDING any more.
	var status payment.PreferenceStatus
	err = db.QueryRowContext(ctx, `SELECT estado FROM preferencias WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return payment.ErrPreferenceNotFound
	}
	if err != nil {
		return fmt.Errorf("db: failed to read preference status: %w", err)
	}
	return payment.ErrPreferenceAlreadyPaid
}

// ListPendingPreferences fetches stuck preferences for the reconciliation
// worker, oldest first.
func (s *PreferenceStore) ListPendingPreferences(ctx context.Context, createdBefore time.Time, limit int) ([]payment.Preference, error) {
	query := `
		SELECT ` + preferenceColumns + `
		FROM preferencias
		WHERE estado = 'PENDIENTE' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`
	return s.list(ctx, query, createdBefore, limit)
}

func (s *PreferenceStore) list(ctx context.Context, query string, args ...any) ([]payment.Preference, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := []payment.Preference{}
	for rows.Next() {
		var p payment.Preference
		if err := scanPreference(rows, &p); err != nil {
			return nil, fmt.Errorf("db: failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (s *PreferenceStore) listItems(ctx context.Context, preferenceID int64) ([]payment.Item, error) {
	query := `
		SELECT id, id_preferencia, titulo, descripcion, cantidad, precio_unitario
		FROM items_preferencia
		WHERE id_preferencia = $1
		ORDER BY id ASC`
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, preferenceID)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list items: %w", err)
	}
	defer rows.Close()

	items := []payment.Item{}
	for rows.Next() {
		var it payment.Item
		if err := rows.Scan(&it.ID, &it.PreferenceID, &it.Title, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("db: failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanPreference(row scanner, p *payment.Preference) error {
	return row.Scan(
		&p.ID,
		&p.ProviderPreferenceID,
		&p.InitPoint,
		&p.AdditionalInfo,
		&p.ClientID,
		&p.CreatedAt,
		&p.Status,
	)
}
