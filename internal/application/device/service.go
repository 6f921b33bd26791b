package device

import (
	"context"
	"errors"
	"time"

	"github.com/go-apns-push/internal/domain"
	"github.com/go-apns-push/internal/pkg/id"
)

type Service interface {
	// Register upserts a device by its push token.
	Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.Device, error)
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Disable(ctx context.Context, deviceID string) error
}

type deviceStore interface {
	Put(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, deviceID string) error
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	now := time.Now().UTC()

	// Tokens can migrate between user accounts on a shared device; the token,
	// not the user, is the identity here.
	if existing, err := s.repo.GetByToken(ctx, req.Token); err == nil {
		updates := map[string]interface{}{
			"user_id": req.UserID,
			"enable":  true,
		}
		if err := s.repo.Update(ctx, existing.DeviceID, updates); err != nil {
			return nil, err
		}
		existing.UserID = req.UserID
		existing.Enable = true
		existing.UpdatedAt = now
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	d := &domain.Device{
		DeviceID:  id.New(),
		UserID:    req.UserID,
		Token:     req.Token,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := d.TokenBytes(); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.repo.Get(ctx, deviceID)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Disable(ctx context.Context, deviceID string) error {
	return s.repo.SoftDelete(ctx, deviceID)
}
