package notification

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/go-apns-push/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) ListPending(ctx context.Context) ([]domain.Notification, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCounter struct{ mock.Mock }

func (m *mockCounter) NextIdentifier(ctx context.Context) (uint32, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint32), args.Error(1)
}

// --- helpers ---

func enabledDevice() *domain.Device {
	return &domain.Device{
		DeviceID: "dev-1",
		Token:    hex.EncodeToString(bytes.Repeat([]byte{0x01}, domain.DeviceTokenLength)),
		Enable:   true,
	}
}

func baseReq() CreateRequest {
	return CreateRequest{
		DeviceID: "dev-1",
		Alert:    "Hello!",
	}
}

// --- tests ---

func TestCreate_HappyPath(t *testing.T) {
	ns := &mockNotificationStore{}
	ds := &mockDeviceStore{}
	cs := &mockCounter{}

	ds.On("Get", mock.Anything, "dev-1").Return(enabledDevice(), nil)
	cs.On("NextIdentifier", mock.Anything).Return(uint32(4077), nil)
	ns.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	svc := NewService(ns, ds, cs)
	n, err := svc.Create(context.Background(), baseReq())

	require.NoError(t, err)
	assert.NotEmpty(t, n.NotificationID)
	assert.Equal(t, uint32(4077), n.Identifier)
	assert.Equal(t, "Hello!", n.Alert)
	assert.Nil(t, n.SentAt)
	ns.AssertExpectations(t)
}

func TestCreate_TruncatesLongAlert(t *testing.T) {
	ns := &mockNotificationStore{}
	ds := &mockDeviceStore{}
	cs := &mockCounter{}

	ds.On("Get", mock.Anything, "dev-1").Return(enabledDevice(), nil)
	cs.On("NextIdentifier", mock.Anything).Return(uint32(1), nil)
	ns.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)

	req := baseReq()
	req.Alert = strings.Repeat("a", 400)

	svc := NewService(ns, ds, cs)
	n, err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, n.Alert, domain.MaxAlertLength)
	assert.True(t, strings.HasSuffix(n.Alert, domain.TruncationMark))
}

func TestCreate_UnknownDevice(t *testing.T) {
	ns := &mockNotificationStore{}
	ds := &mockDeviceStore{}
	cs := &mockCounter{}

	ds.On("Get", mock.Anything, "dev-1").Return(nil, domain.ErrNotFound)

	svc := NewService(ns, ds, cs)
	_, err := svc.Create(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	ns.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_DisabledDevice(t *testing.T) {
	ns := &mockNotificationStore{}
	ds := &mockDeviceStore{}
	cs := &mockCounter{}

	d := enabledDevice()
	d.Enable = false
	ds.On("Get", mock.Anything, "dev-1").Return(d, nil)

	svc := NewService(ns, ds, cs)
	_, err := svc.Create(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
