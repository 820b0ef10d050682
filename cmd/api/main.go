package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/atendeai/clinic-platform/internal/api/router"
	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/internal/catalog"
	"github.com/atendeai/clinic-platform/internal/clinic"
	appconfig "github.com/atendeai/clinic-platform/internal/config"
	"github.com/atendeai/clinic-platform/internal/flow"
	"github.com/atendeai/clinic-platform/internal/http/handlers"
	"github.com/atendeai/clinic-platform/internal/messaging"
	"github.com/atendeai/clinic-platform/internal/messaging/whatsapp"
	"github.com/atendeai/clinic-platform/internal/notify"
	"github.com/atendeai/clinic-platform/internal/observability/metrics"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer redisClient.Close()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	flowMetrics := metrics.NewFlowMetrics(registry)
	messagingMetrics := metrics.NewMessagingMetrics(registry)

	waClient, err := whatsapp.New(whatsapp.Config{
		BaseURL:       cfg.WhatsAppAPIBaseURL,
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		AppSecret:     cfg.WhatsAppAppSecret,
		VerifyToken:   cfg.WhatsAppVerifyToken,
		Timeout:       cfg.WhatsAppTimeout,
		Logger:        logger.Logger,
	})
	if err != nil {
		logger.Error("failed to create whatsapp client", "error", err)
		os.Exit(1)
	}
	if status, err := waClient.VerifyCredentials(ctx); err != nil {
		logger.Warn("whatsapp credential check failed", "error", err)
	} else {
		logger.Info("whatsapp credentials verified", "phone", status.DisplayPhoneNumber, "name", status.VerifiedName)
	}

	breaker := messaging.NewCircuitBreaker(cfg.BreakerFailureThreshold, cfg.BreakerRecoveryTimeout)
	retryer := messaging.NewRetryer(cfg.WhatsAppMaxRetries, cfg.WhatsAppRetryBaseDelay, 30*time.Second)
	sender := messaging.NewResilientSender(waClient, breaker, retryer, logger, messagingMetrics)

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier flow.Notifier
	if emailSender != nil {
		notifier = notify.NewService(emailSender, cfg.NotifyEmailRecipients, logger)
	}

	manager := flow.NewManager(
		flow.NewSessionStore(redisClient, nil),
		catalog.NewRepository(pool),
		appointments.NewRepository(pool),
		clinic.NewStore(redisClient),
		notifier,
		logger,
		flowMetrics,
	)

	flowHandler := handlers.NewFlowHandler(manager, logger)
	webhookHandler := handlers.NewWhatsAppWebhookHandler(
		waClient,
		manager,
		sender,
		handlers.StaticClinicResolver(cfg.DefaultClinicID),
		logger,
		messagingMetrics,
	)

	r := router.New(&router.Config{
		Logger:          logger,
		FlowHandler:     flowHandler,
		WhatsAppWebhook: webhookHandler,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
