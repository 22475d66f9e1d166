// handlers/user.go
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/middleware"
	"github.com/mooosty/bckndmaster/services"
)

type profileRequest struct {
	Email string `json:"email"`
	services.ProfileInput
}

func SetupUserRoutes(router fiber.Router, userService *services.UserService, logger *zap.Logger) {
	logger = logger.Named("user")

	// Lookups and upserts addressed by email, used by the frontend during onboarding.
	router.Get("/api/user", func(c *fiber.Ctx) error {
		u, err := userService.GetByEmail(c.UserContext(), c.Query("email"))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(u)
	})

	router.Post("/api/user", func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		u, err := userService.SaveProfile(c.UserContext(), req.Email, req.ProfileInput)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(u)
	})

	router.Post("/api/user/onboarding", func(c *fiber.Ctx) error {
		var req profileRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		u, err := userService.CompleteOnboarding(c.UserContext(), req.Email, req.ProfileInput)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(u)
	})

	// 🔐 Caller-scoped routes, identity comes from the Gateway headers.
	me := router.Group("/api/users/me", middleware.UserContextMiddleware(logger))

	me.Get("/", func(c *fiber.Ctx) error {
		u, err := userService.GetByEmail(c.UserContext(), middleware.UserEmail(c))
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(u)
	})

	me.Put("/", func(c *fiber.Ctx) error {
		var in services.ProfileInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		u, err := userService.UpdateMe(c.UserContext(), middleware.UserEmail(c), in)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(u)
	})

	me.Post("/avatar", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
		}
		u, err := userService.UploadAvatar(c.UserContext(), middleware.UserEmail(c), fileHeader)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(fiber.Map{"profile_image": u.ProfileImage})
	})
}
