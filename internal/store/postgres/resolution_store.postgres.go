// internal/store/postgres/resolution_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tanmoy095/pagos-api/internal/resolution"
)

var _ resolution.Store = (*ResolutionStore)(nil)

type ResolutionStore struct {
	db *sql.DB
}

func NewResolutionStore(db *sql.DB) *ResolutionStore {
	return &ResolutionStore{db: db}
}

const resolutionColumns = `id, id_actividad, nombre_actividad, resolucion, fecha, usuario_id`

func (s *ResolutionStore) CreateResolution(ctx context.Context, r *resolution.Resolution) error {
	query := `
		INSERT INTO resoluciones (id_actividad, nombre_actividad, resolucion, fecha, usuario_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		r.ActivityID,
		r.ActivityName,
		r.Content,
		r.CreatedAt,
		r.UserID,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("db: failed to create resolution: %w", err)
	}
	return nil
}

func (s *ResolutionStore) ListResolutionsByUser(ctx context.Context, userID int64) ([]resolution.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resoluciones WHERE usuario_id = $1 ORDER BY fecha DESC, id DESC`
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db: failed to list resolutions: %w", err)
	}
	defer rows.Close()

	out := []resolution.Resolution{}
	for rows.Next() {
		var r resolution.Resolution
		if err := scanResolution(rows, &r); err != nil {
			return nil, fmt.Errorf("db: failed to scan resolution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ResolutionStore) GetResolutionByID(ctx context.Context, id int64) (*resolution.Resolution, error) {
	var r resolution.Resolution
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+resolutionColumns+` FROM resoluciones WHERE id = $1`, id)
	if err := scanResolution(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, resolution.ErrResolutionNotFound
		}
		return nil, fmt.Errorf("db: failed to get resolution: %w", err)
	}
	return &r, nil
}

func scanResolution(row scanner, r *resolution.Resolution) error {
	return row.Scan(&r.ID, &r.ActivityID, &r.ActivityName, &r.Content, &r.CreatedAt, &r.UserID)
}
