// Package delivery sends pending notifications to the push gateway over one
// connection per batch and records the outcome of every attempt.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-apns-push/internal/domain"
	"github.com/go-apns-push/internal/infrastructure/apns"
	"github.com/go-apns-push/internal/infrastructure/sns"
)

// Dialer opens one gateway connection per batch.
type Dialer interface {
	DialContext(ctx context.Context) (net.Conn, error)
}

type notificationStore interface {
	ListPending(ctx context.Context) ([]domain.Notification, error)
	Claim(ctx context.Context, notificationID string) error
	Release(ctx context.Context, notificationID string) error
	MarkSent(ctx context.Context, notificationID string, errorCode int) error
}

type deviceStore interface {
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
}

type frameArchive interface {
	Archive(ctx context.Context, notificationID string, frame []byte) error
}

// Result summarises one batch pass.
type Result struct {
	Selected int `json:"selected"`
	Sent     int `json:"sent"`
	Errored  int `json:"errored"` // sent with a gateway error code captured
}

type Service interface {
	// DeliverPending claims every unsent notification and delivers the claimed
	// set as one batch.
	DeliverPending(ctx context.Context) (*Result, error)
	// Deliver sends the given notifications over a single connection.
	Deliver(ctx context.Context, notifications []domain.Notification) (*Result, error)
}

type service struct {
	repo            notificationStore
	devices         deviceStore
	dialer          Dialer
	archive         frameArchive
	alerter         sns.OpsAlerter
	expiry          time.Duration
	responseTimeout time.Duration
	logger          *slog.Logger
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	DeviceRepo       deviceStore
	Dialer           Dialer
	FrameArchive     frameArchive // optional
	Alerter          sns.OpsAlerter
	Expiry           time.Duration
	ResponseTimeout  time.Duration
	Logger           *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	expiry := deps.Expiry
	if expiry <= 0 {
		expiry = 30 * 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:            deps.NotificationRepo,
		devices:         deps.DeviceRepo,
		dialer:          deps.Dialer,
		archive:         deps.FrameArchive,
		alerter:         deps.Alerter,
		expiry:          expiry,
		responseTimeout: deps.ResponseTimeout,
		logger:          logger,
	}
}

func (s *service) DeliverPending(ctx context.Context) (*Result, error) {
	// Nothing gets claimed when delivery cannot happen at all; claiming first
	// would pull the whole pending set out of circulation for the lease window.
	if s.dialer == nil {
		return nil, errors.New("gateway dialer not configured")
	}

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}

	// Claim each candidate before sending so a concurrent batch cannot
	// double-send the same record. Losing a claim just drops the record from
	// this batch.
	claimed := pending[:0]
	for _, n := range pending {
		if err := s.repo.Claim(ctx, n.NotificationID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.logger.Info("notification claimed elsewhere, skipping",
					"notification_id", n.NotificationID)
				continue
			}
			return nil, fmt.Errorf("claim notification %s: %w", n.NotificationID, err)
		}
		claimed = append(claimed, n)
	}

	return s.Deliver(ctx, claimed)
}

// Deliver runs a single sequential pass over the batch. The connection is
// opened only when there is something to send and is closed on every exit
// path. Transport failures are handled per notification; anything else aborts
// the batch and propagates.
func (s *service) Deliver(ctx context.Context, notifications []domain.Notification) (*Result, error) {
	result := &Result{Selected: len(notifications)}
	if len(notifications) == 0 {
		return result, nil
	}
	if s.dialer == nil {
		return result, errors.New("gateway dialer not configured")
	}

	conn, err := s.dialer.DialContext(ctx)
	if err != nil {
		s.release(ctx, notifications)
		return result, fmt.Errorf("open gateway connection: %w", err)
	}
	defer conn.Close()

	// Device tokens are resolved once per device per batch.
	tokens := make(map[string][]byte)

	for i := range notifications {
		n := &notifications[i]
		if err := s.deliverOne(ctx, conn, n, tokens, result); err != nil {
			s.release(ctx, notifications[i:])
			s.alert(ctx, n, err)
			return result, err
		}
	}
	return result, nil
}

// release returns the claims on unsent records so they re-enter the next batch
// immediately. A failed release is logged and left to the claim lease.
func (s *service) release(ctx context.Context, notifications []domain.Notification) {
	for i := range notifications {
		if err := s.repo.Release(ctx, notifications[i].NotificationID); err != nil {
			s.logger.Warn("failed to release claim",
				"notification_id", notifications[i].NotificationID, "err", err)
		}
	}
}

func (s *service) deliverOne(
	ctx context.Context,
	conn net.Conn,
	n *domain.Notification,
	tokens map[string][]byte,
	result *Result,
) error {
	token, ok := tokens[n.DeviceID]
	if !ok {
		device, err := s.devices.Get(ctx, n.DeviceID)
		if err != nil {
			return fmt.Errorf("load device %s for notification %s: %w", n.DeviceID, n.NotificationID, err)
		}
		token, err = device.TokenBytes()
		if err != nil {
			return fmt.Errorf("notification %s: %w", n.NotificationID, err)
		}
		tokens[n.DeviceID] = token
	}

	payload, err := apns.EncodePayload(n)
	if err != nil {
		return fmt.Errorf("encode payload for notification %s: %w", n.NotificationID, err)
	}

	frame, err := apns.BuildEnhancedFrame(n.Identifier, time.Now().Add(s.expiry), token, payload)
	if err != nil {
		var sizeErr *apns.MessageSizeError
		if errors.As(err, &sizeErr) && s.archive != nil {
			if archiveErr := s.archive.Archive(ctx, n.NotificationID, sizeErr.Frame); archiveErr != nil {
				s.logger.Warn("failed to archive rejected frame",
					"notification_id", n.NotificationID, "err", archiveErr)
			}
		}
		return fmt.Errorf("build frame for notification %s: %w", n.NotificationID, err)
	}

	err = apns.WriteFrame(conn, frame)
	if err == nil {
		result.Sent++
		return s.repo.MarkSent(ctx, n.NotificationID, 0)
	}

	var transportErr *apns.TransportError
	if !errors.As(err, &transportErr) {
		return fmt.Errorf("notification %s: %w", n.NotificationID, err)
	}

	// The write failed mid-stream. The gateway may already have reported why
	// on the same connection; capture the code if it did. The record is
	// marked sent either way; this connection will not take a retry.
	code := 0
	resp, readErr := apns.ReadErrorResponse(conn, s.responseTimeout)
	switch {
	case readErr != nil:
		var short *apns.ShortReadError
		if errors.As(readErr, &short) {
			s.logger.Warn("discarding partial gateway error response",
				"notification_id", n.NotificationID, "bytes", short.Read)
		} else {
			s.logger.Warn("failed to read gateway error response",
				"notification_id", n.NotificationID, "err", readErr)
		}
	case resp != nil:
		if resp.Identifier != n.Identifier {
			s.logger.Warn("gateway error response identifier mismatch",
				"notification_id", n.NotificationID,
				"expected", n.Identifier, "got", resp.Identifier)
		}
		code = int(resp.Code)
		s.logger.Info("gateway rejected notification",
			"notification_id", n.NotificationID,
			"code", resp.Code, "reason", resp.Description())
	default:
		s.logger.Info("gateway reported nothing after failed write",
			"notification_id", n.NotificationID)
	}

	result.Sent++
	if code != 0 {
		result.Errored++
	}
	return s.repo.MarkSent(ctx, n.NotificationID, code)
}

func (s *service) alert(ctx context.Context, n *domain.Notification, err error) {
	if s.alerter == nil {
		return
	}
	msg := fmt.Sprintf("delivery batch aborted at notification %s: %v", n.NotificationID, err)
	if alertErr := s.alerter.Alert(ctx, "push delivery batch aborted", msg); alertErr != nil {
		s.logger.Warn("failed to publish ops alert", "err", alertErr)
	}
}
