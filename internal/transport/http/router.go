package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-apns-push/internal/application/delivery"
	"github.com/go-apns-push/internal/application/device"
	"github.com/go-apns-push/internal/application/notification"
	"github.com/go-apns-push/internal/config"
	"github.com/go-apns-push/internal/transport/http/handler"
	appmiddleware "github.com/go-apns-push/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// A delivery batch can block for seconds; keep trigger traffic slow.
	deliveryRL := appmiddleware.NewRateLimiter(rate.Limit(1), 2)

	notifSvc := notification.NewService(deps.NotificationRepo, deps.DeviceRepo, deps.CounterRepo)
	deviceSvc := device.NewService(deps.DeviceRepo)
	deliverySvc := delivery.NewService(delivery.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		DeviceRepo:       deps.DeviceRepo,
		Dialer:           deps.Dialer,
		FrameArchive:     deps.FrameArchive,
		Alerter:          deps.Alerter,
		Expiry:           time.Duration(cfg.ExpirySeconds) * time.Second,
		ResponseTimeout:  cfg.ResponseTimeout,
		Logger:           slog.Default(),
	})

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(notifSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)
	deliveryH := handler.NewDeliveryHandler(deliverySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/notifications", notifH.Create)
			r.Get("/notifications/pending", notifH.ListPending)
			r.Get("/notifications/{id}", notifH.Get)

			r.Put("/devices", deviceH.Register)
			r.Get("/devices", deviceH.List)
			r.Get("/devices/{id}", deviceH.Get)
			r.Delete("/devices/{id}", deviceH.Delete)

			r.With(deliveryRL.Limit).Post("/deliveries", deliveryH.Trigger)
		})
	})

	return r
}
