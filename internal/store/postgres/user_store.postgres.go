// internal/store/postgres/user_store.postgres.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tanmoy095/pagos-api/internal/auth"
)

var _ auth.UserStore = (*UserStore)(nil)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// FindOrCreate inserts the user unless the username is taken, then reads the
// row back. Two first logins racing each other both end on the same row.
func (s *UserStore) FindOrCreate(ctx context.Context, u *auth.User) (*auth.User, error) {
	db := conn(ctx, s.db)
	insert := `
		INSERT INTO usuarios (username, nombre, foto, activo)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING`
	if _, err := db.ExecContext(ctx, insert, u.Username, u.Name, u.Picture, u.Active); err != nil {
		return nil, fmt.Errorf("db: failed to insert user: %w", err)
	}

	var out auth.User
	err := db.QueryRowContext(ctx,
		`SELECT id, username, nombre, foto, activo FROM usuarios WHERE username = $1`, u.Username,
	).Scan(&out.ID, &out.Username, &out.Name, &out.Picture, &out.Active)
	if err != nil {
		return nil, fmt.Errorf("db: failed to read user: %w", err)
	}
	return &out, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	var out auth.User
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, username, nombre, foto, activo FROM usuarios WHERE id = $1`, id,
	).Scan(&out.ID, &out.Username, &out.Name, &out.Picture, &out.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: failed to get user: %w", err)
	}
	return &out, nil
}
