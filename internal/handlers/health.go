package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	store   Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storage string, store Pinger) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storage,
		store:   store,
	}
}

// Running is the liveness endpoint
func (h *HealthHandler) Running(c *fiber.Ctx) error {
	return c.SendString("✅ AI Call Agent Running Successfully!")
}

// Check returns the health status of the service and its store
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK
	storeStatus := "connected"

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
		storeStatus = "error: " + err.Error()
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"service": "Call Booking Backend",
		"version": h.Version,
		"storage": fiber.Map{
			"backend": h.Storage,
			"status":  storeStatus,
		},
	})
}
