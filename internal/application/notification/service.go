package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-apns-push/internal/domain"
	"github.com/go-apns-push/internal/pkg/id"
)

// CreateRequest is the payload for enqueueing a notification.
type CreateRequest struct {
	DeviceID     string            `json:"device_id" validate:"required"`
	Alert        string            `json:"alert" validate:"omitempty"`
	Badge        *int              `json:"badge" validate:"omitempty,min=0"`
	Sound        string            `json:"sound"`
	DefaultSound bool              `json:"default_sound"`
	Properties   []domain.Property `json:"custom_properties" validate:"omitempty,dive"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*domain.Notification, error)
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListPending(ctx context.Context) ([]domain.Notification, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListPending(ctx context.Context) ([]domain.Notification, error)
}

type deviceStore interface {
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
}

type identifierSource interface {
	NextIdentifier(ctx context.Context) (uint32, error)
}

type service struct {
	repo     notificationStore
	devices  deviceStore
	counters identifierSource
}

func NewService(repo notificationStore, devices deviceStore, counters identifierSource) Service {
	return &service{repo: repo, devices: devices, counters: counters}
}

// Create enqueues a notification for the next delivery batch. The target
// device must exist and carry a valid token; the alert is truncated on
// assignment; the frame identifier is allocated here so it is stable for the
// record's lifetime.
func (s *service) Create(ctx context.Context, req CreateRequest) (*domain.Notification, error) {
	device, err := s.devices.Get(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("target device: %w", err)
	}
	if !device.Enable {
		return nil, fmt.Errorf("target device is disabled: %w", domain.ErrBadRequest)
	}
	if _, err := device.TokenBytes(); err != nil {
		return nil, err
	}

	identifier, err := s.counters.NextIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{
		NotificationID: id.New(),
		Identifier:     identifier,
		DeviceID:       device.DeviceID,
		Badge:          req.Badge,
		Sound:          req.Sound,
		DefaultSound:   req.DefaultSound,
		Properties:     req.Properties,
		CreatedAt:      time.Now().UTC(),
	}
	n.SetAlert(req.Alert)

	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	return s.repo.Get(ctx, notificationID)
}

func (s *service) ListPending(ctx context.Context) ([]domain.Notification, error) {
	return s.repo.ListPending(ctx)
}
