package routes

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ananth-NQI/callbook-backend/internal/handlers"
	"github.com/Ananth-NQI/callbook-backend/internal/services"
)

// Dependencies holds everything the routes dispatch to
type Dependencies struct {
	Voice  *handlers.VoiceHandler
	Health *handlers.HealthHandler
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	// WebhookAuth guards the step POSTs; nil leaves them open
	WebhookAuth fiber.Handler
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/", deps.Health.Running)
	app.Get("/health", deps.Health.Check)
	app.Get("/debug", listRoutes(app))

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ========== VOICE WEBHOOKS ==========
	steps := []struct {
		path    string
		handler fiber.Handler
	}{
		{services.PathStart, deps.Voice.Start},
		{services.PathName, deps.Voice.HandleName},
		{services.PathDate, deps.Voice.HandleDate},
		{services.PathTime, deps.Voice.HandleTime},
		{services.PathReason, deps.Voice.HandleReason},
	}
	for _, s := range steps {
		app.Get(s.path, handlers.Probe(s.path))
		if deps.WebhookAuth != nil {
			app.Post(s.path, deps.WebhookAuth, s.handler)
		} else {
			app.Post(s.path, s.handler)
		}
	}
}

// listRoutes shows all registered routes
func listRoutes(app *fiber.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var routes []string
		for _, r := range app.GetRoutes(true) {
			if r.Method == fiber.MethodHead {
				continue
			}
			routes = append(routes, r.Method+" "+r.Path)
		}
		sort.Strings(routes)

		return c.JSON(fiber.Map{
			"status": "running",
			"routes": routes,
		})
	}
}
