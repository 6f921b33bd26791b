package http

import (
	"github.com/go-apns-push/internal/application/delivery"
	"github.com/go-apns-push/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-apns-push/internal/infrastructure/jwt"
	s3infra "github.com/go-apns-push/internal/infrastructure/s3"
	"github.com/go-apns-push/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo *dynamo.NotificationRepo
	DeviceRepo       *dynamo.DeviceRepo
	CounterRepo      *dynamo.CounterRepo
	Dialer           delivery.Dialer
	FrameArchive     *s3infra.FrameArchive
	Alerter          sns.OpsAlerter
	JWTProvider      *jwtinfra.Provider
}
