// handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/referral"
	"github.com/mooosty/bckndmaster/services"
)

func SetupAuthRoutes(router fiber.Router, userService *services.UserService, logger *zap.Logger) {
	logger = logger.Named("auth")
	auth := router.Group("/api/auth")

	// Registration. Unknown or reused referral tokens never fail the signup.
	auth.Post("/signup", func(c *fiber.Ctx) error {
		var in services.SignupInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		u, err := userService.Signup(c.UserContext(), in)
		if errors.Is(err, services.ErrReferralFailed) {
			// Same failure body as /signup/complete.
			return c.Status(fiber.StatusInternalServerError).JSON(referral.NewResult(referral.Outcome{}, err))
		}
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{"success": true, "userId": u.ID})
	})

	// Called by the frontend once onboarding is done, replaying the stored referral token.
	auth.Post("/signup/complete", func(c *fiber.Ctx) error {
		var in struct {
			Email      string `json:"email"`
			ReferralID string `json:"referralId"`
		}
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := userService.CompleteSignupReferral(c.UserContext(), in.Email, in.ReferralID)
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrNotOnboarded) {
				return respondError(c, logger, err)
			}
			logger.Error("complete signup referral failed", zap.String("email", in.Email), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(res)
		}
		return c.JSON(res)
	})
}
