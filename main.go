package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Ananth-NQI/callbook-backend/internal/config"
	"github.com/Ananth-NQI/callbook-backend/internal/handlers"
	"github.com/Ananth-NQI/callbook-backend/internal/metrics"
	"github.com/Ananth-NQI/callbook-backend/internal/middleware"
	"github.com/Ananth-NQI/callbook-backend/internal/routes"
	"github.com/Ananth-NQI/callbook-backend/internal/services"
	"github.com/Ananth-NQI/callbook-backend/internal/storage"
	"github.com/Ananth-NQI/callbook-backend/internal/telemetry"
	"github.com/Ananth-NQI/callbook-backend/pkg/logging"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	loaded := config.LoadDotEnv(".env", "environments/.env.development")

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	if len(loaded) == 0 {
		log.Info("no .env file found - using environment variables")
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTELEnabled,
		ServiceName:  "callbook-backend",
		OTLPEndpoint: cfg.OTELEndpoint,
	})
	if err != nil {
		log.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("unknown APP_TIMEZONE, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	// Initialize storage
	if cfg.StoreBackend == config.StoreMemory {
		log.Warn("using in-memory storage (not for production!)")
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open appointment store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	log.Info("appointment store ready", "backend", cfg.StoreBackend)

	// SMS confirmations are optional; the call flow works without them
	var notifier services.ConfirmationSender
	if cfg.SMSConfirmations {
		twilioService, err := services.NewTwilioService(cfg, log)
		if err != nil {
			log.Warn("sms confirmations disabled", "error", err)
		} else {
			notifier = twilioService
			log.Info("sms confirmations enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	flow := services.NewCallFlow(services.CallFlowConfig{
		Store:    store,
		Dates:    services.NewDateNormalizer(loc),
		Notifier: notifier,
		Metrics:  metrics.NewCallFlowMetrics(registry),
		Logger:   log,
	})

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Call Booking Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(recover.New())

	var webhookAuth fiber.Handler
	if cfg.ValidateTwilioSignature {
		if cfg.TwilioAuthToken == "" {
			log.Error("VALIDATE_TWILIO_SIGNATURE is set but TWILIO_AUTH_TOKEN is empty")
			os.Exit(1)
		}
		webhookAuth = middleware.ValidateTwilioSignature(cfg.TwilioAuthToken, cfg.PublicBaseURL, log)
	} else {
		log.Warn("twilio webhook signature validation DISABLED")
	}

	routes.SetupRoutes(app, routes.Dependencies{
		Voice:       handlers.NewVoiceHandler(flow, services.NewRenderer(cfg.PublicBaseURL), log),
		Health:      handlers.NewHealthHandler(version, cfg.StoreBackend, store),
		Gatherer:    registry,
		WebhookAuth: webhookAuth,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	log.Info("call booking backend starting",
		"port", cfg.Port,
		"env", cfg.Env,
		"storage", cfg.StoreBackend,
		"twilio_configured", cfg.TwilioConfigured(),
		"signature_validation", cfg.ValidateTwilioSignature,
	)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Warn("store close failed", "error", err)
	}
}
