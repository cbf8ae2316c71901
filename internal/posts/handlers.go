package posts

import (
	"strings"

	"backend-picfeed/internal/auth"
	"backend-picfeed/internal/shared/apperr"
	"backend-picfeed/internal/upload"

	"github.com/gofiber/fiber/v2"
)

const imageField = "image"

func RegisterRoutes(r fiber.Router, svc *Service, store *upload.Store, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		id, ok := auth.CurrentUser(c)
		if !ok {
			return apperr.Auth("authentication required")
		}
		feed, err := svc.Feed(c.Context(), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(feed)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		id, ok := auth.CurrentUser(c)
		if !ok {
			return apperr.Auth("authentication required")
		}

		fh, err := upload.FromRequest(c, imageField)
		if err != nil {
			return err
		}
		filename, err := store.Save(fh, imageField)
		if err != nil {
			return err
		}

		post, err := svc.Create(c.Context(), id, filename, strings.TrimSpace(c.FormValue("caption")))
		if err != nil {
			_ = store.Remove(filename)
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "post created successfully",
			"post":    post,
		})
	})
}
