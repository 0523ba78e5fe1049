// internal/resolution/service.resolution.go
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create stores a resolution for userID, stamped with the server clock.
func (s *Service) Create(ctx context.Context, userID int64, in NewResolution) (*Resolution, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	r := &Resolution{
		ActivityID:   in.ActivityID,
		ActivityName: strings.TrimSpace(in.ActivityName),
		Content:      in.Content,
		CreatedAt:    s.now().UTC(),
		UserID:       userID,
	}
	if err := s.store.CreateResolution(ctx, r); err != nil {
		return nil, fmt.Errorf("persist resolution: %w", err)
	}
	s.logger.Info("resolution stored", "resolution_id", r.ID, "user_id", userID, "activity_id", r.ActivityID)
	return r, nil
}

// SubmitAnonymous validates an anonymous submission. Nothing is stored:
// there is no user to attach it to.
func (s *Service) SubmitAnonymous(_ context.Context, in NewResolution) error {
	if err := Validate(in); err != nil {
		return err
	}
	s.logger.Info("anonymous resolution accepted", "activity_id", in.ActivityID)
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Resolution, error) {
	return s.store.ListResolutionsByUser(ctx, userID)
}

// Get returns the resolution only to its owner. Someone else's resolution is
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Resolution, error) {
	r, err := s.store.GetResolutionByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrResolutionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch resolution %d: %w", id, err)
	}
	if r.UserID != userID {
		return nil, ErrResolutionNotFound
	}
	return r, nil
}

func Validate(in NewResolution) error {
	if in.ActivityID <= 0 {
		return fmt.Errorf("%w: id_actividad must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: resolucion is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Content) > maxContent {
		return fmt.Errorf("%w: resolucion exceeds %d characters", ErrInvalidInput, maxContent)
	}
	return nil
}
