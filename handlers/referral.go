// handlers/referral.go
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/middleware"
	"github.com/mooosty/bckndmaster/services"
)

func SetupReferralRoutes(router fiber.Router, userService *services.UserService, logger *zap.Logger) {
	logger = logger.Named("referrals")

	// Opened referral links are counted without a signed-in caller, so this route
	// is registered ahead of the user context group.
	router.Post("/api/referrals/track", func(c *fiber.Ctx) error {
		var in struct {
			RefID string `json:"refId"`
		}
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		if _, err := userService.TrackClick(c.UserContext(), in.RefID); err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{"success": true})
	})

	secured := router.Group("/api/referrals", middleware.UserContextMiddleware(logger))

	secured.Get("/link", func(c *fiber.Ctx) error {
		link, err := userService.ReferralLink(c.UserContext(), middleware.UserEmail(c))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{"referralUrl": link})
	})

	secured.Get("/stats", func(c *fiber.Ctx) error {
		sum, err := userService.ReferralStats(c.UserContext(), middleware.UserEmail(c))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(sum)
	})
}
