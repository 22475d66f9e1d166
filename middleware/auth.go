// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	UserEmailLocal = "user_email"
	UserIDLocal    = "user_id"
)

// UserContextMiddleware extracts the caller identity forwarded by the Gateway.
// Requests without X-User-Email are rejected.
func UserContextMiddleware(logger *zap.Logger) fiber.Handler {
	logger = logger.Named("user_ctx")

	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.Get("X-User-Email"))
		if email == "" {
			logger.Warn("X-User-Email missing on secured route", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-Email, request must come through gateway with auth context",
			})
		}

		c.Locals(UserEmailLocal, email)
		c.Locals(UserIDLocal, c.Get("X-User-ID"))
		return c.Next()
	}
}

// UserEmail returns the identity stored by UserContextMiddleware.
func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(UserEmailLocal).(string)
	return email
}
