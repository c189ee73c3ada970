package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/adilhusain01/campayn/internal/handler"
	"github.com/adilhusain01/campayn/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health       *handler.HealthHandler
	Quota        *handler.QuotaHandler
	Leaderboard  *handler.LeaderboardHandler
	Verification *handler.VerificationHandler
}

// Limiters groups the per-route rate limiters so the caller can stop their
// cleanup goroutines on shutdown.
type Limiters struct {
	Public      *middleware.RateLimiter
	Leaderboard *middleware.RateLimiter
	Verify      *middleware.RateLimiter
}

// NewLimiters builds the default limiters for the public API.
func NewLimiters() *Limiters {
	return &Limiters{
		Public:      middleware.NewPublicRateLimiter(),
		Leaderboard: middleware.NewLeaderboardRateLimiter(),
		Verify:      middleware.NewVerifyRateLimiter(),
	}
}

// Stop releases the limiters' background goroutines.
func (l *Limiters) Stop() {
	l.Public.Stop()
	l.Leaderboard.Stop()
	l.Verify.Stop()
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, l *Limiters, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and scraping sit outside the rate-limited API group.
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	// Quota routes
	api.Get("/youtube-quota", l.Public.Handler(), h.Quota.Get)

	// Campaign routes
	api.Get("/campaigns/:id/leaderboard", l.Leaderboard.Handler(), h.Leaderboard.Get)

	// Verification routes
	verify := api.Group("/verify", l.Verify.Handler())
	verify.Post("/video-ownership", h.Verification.VideoOwnership)
	verify.Post("/channel", h.Verification.Channel)
}
