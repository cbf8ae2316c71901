package auth

import (
	"backend-picfeed/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		user, err := svc.Register(c.Context(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "user registered successfully",
			"user":    user,
		})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		resp, err := svc.Login(c.Context(), req)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	})

	r.Post("/validate-token", func(c *fiber.Ctx) error {
		var req ValidateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return apperr.Validation("invalid payload")
			}
		}
		if req.Token == "" {
			req.Token = c.Get(fiber.HeaderAuthorization)
		}
		id, err := svc.Validate(req.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"valid": true, "user": id})
	})

	r.Get("/protected", authMiddleware, func(c *fiber.Ctx) error {
		id, _ := CurrentUser(c)
		return c.JSON(fiber.Map{
			"message": "protected route accessed",
			"user":    id,
		})
	})
}
