// internal/resolution/models.resolution.go
package resolution

import (
	"context"
	"errors"
	"time"
)

var (
	ErrResolutionNotFound = errors.New("resolution not found")
	ErrInvalidInput       = errors.New("invalid input arguments")
)

const maxContent = 8000

// Resolution is a user's answer to an activity. Append only.
type Resolution struct {
	ID           int64     `json:"id"`
	ActivityID   int64     `json:"id_actividad"`
	ActivityName string    `json:"nombre_actividad"`
	Content      string    `json:"resolucion"`
	CreatedAt    time.Time `json:"fecha"`
	UserID       int64     `json:"usuario_id"`
}

// NewResolution is the submission payload.
type NewResolution struct {
	ActivityID   int64  `json:"id_actividad"`
	ActivityName string `json:"nombre_actividad"`
	Content      string `json:"resolucion"`
}

// Store persists resolutions.
type Store interface {
	CreateResolution(ctx context.Context, r *Resolution) error
	// ListResolutionsByUser returns newest first.
	ListResolutionsByUser(ctx context.Context, userID int64) ([]Resolution, error)
	GetResolutionByID(ctx context.Context, id int64) (*Resolution, error)
}
