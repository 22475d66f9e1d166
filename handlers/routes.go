package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/middleware"
	"github.com/mooosty/bckndmaster/services"
)

// SetupRoutes registers the public health check, then enforces Gateway auth
// for every route registered after it.
func SetupRoutes(app *fiber.App, userService *services.UserService, gatewayToken string, logger *zap.Logger) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔐❗ Only Gateway requests past this point
	app.Use(middleware.GatewayAuthMiddleware(gatewayToken, logger))

	SetupAuthRoutes(app, userService, logger)
	SetupUserRoutes(app, userService, logger)
	SetupReferralRoutes(app, userService, logger)
}
