package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-apns-push/internal/application/delivery"
	"github.com/go-apns-push/internal/config"
	"github.com/go-apns-push/internal/infrastructure/apns"
	"github.com/go-apns-push/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-apns-push/internal/infrastructure/jwt"
	s3infra "github.com/go-apns-push/internal/infrastructure/s3"
	"github.com/go-apns-push/internal/infrastructure/sns"
	transporthttp "github.com/go-apns-push/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional; auth is skipped when keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available, auth disabled: %v", err)
	}

	// Gateway dialer (optional; without a certificate delivery is disabled
	// but the enqueue API still works).
	var dialer delivery.Dialer
	if d, err := apns.NewDialer(cfg); err == nil {
		dialer = d
	} else {
		log.Printf("WARN: gateway dialer not available, delivery disabled: %v", err)
	}

	// S3 archive for frames rejected by the protocol size ceiling.
	s3Client := s3infra.NewClient(cfg)
	frameArchive := s3infra.NewFrameArchive(s3Client, cfg.S3BucketName)

	// SNS ops alerter (optional).
	var alerter sns.OpsAlerter
	if a, err := sns.NewAlerter(cfg); err == nil {
		alerter = a
	} else {
		log.Printf("WARN: SNS alerter not available: %v", err)
	}

	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	deviceRepo := dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices)
	counterRepo := dynamo.NewCounterRepo(dynamoClient, cfg.DynamoTables.Counters)

	deps := &transporthttp.Deps{
		NotificationRepo: notificationRepo,
		DeviceRepo:       deviceRepo,
		CounterRepo:      counterRepo,
		Dialer:           dialer,
		FrameArchive:     frameArchive,
		Alerter:          alerter,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // delivery trigger can block for a full batch
		IdleTimeout:  60 * time.Second,
	}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.DeliveryInterval > 0 && dialer != nil {
		svc := delivery.NewService(delivery.ServiceDeps{
			NotificationRepo: notificationRepo,
			DeviceRepo:       deviceRepo,
			Dialer:           dialer,
			FrameArchive:     frameArchive,
			Alerter:          alerter,
			Expiry:           time.Duration(cfg.ExpirySeconds) * time.Second,
			ResponseTimeout:  cfg.ResponseTimeout,
			Logger:           slog.Default(),
		})
		go runScheduler(schedulerCtx, svc, cfg.DeliveryInterval)
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// runScheduler runs a delivery batch on every tick until the context is
// cancelled. Batches never overlap; a slow batch delays the next tick.
func runScheduler(ctx context.Context, svc delivery.Service, interval time.Duration) {
	logger := slog.Default()
	logger.Info("delivery scheduler started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("delivery scheduler stopped")
			return
		case <-ticker.C:
			result, err := svc.DeliverPending(ctx)
			if err != nil {
				logger.Error("scheduled delivery batch failed", "err", err)
				continue
			}
			if result.Selected > 0 {
				logger.Info("scheduled delivery batch finished",
					"selected", result.Selected, "sent", result.Sent, "errored", result.Errored)
			}
		}
	}
}
