package users

import (
	"backend-picfeed/internal/auth"
	"backend-picfeed/internal/shared/apperr"
	"backend-picfeed/internal/upload"

	"github.com/gofiber/fiber/v2"
)

const profileImageField = "profileImage"

func RegisterRoutes(r fiber.Router, svc *Service, store *upload.Store, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/profile-picture", func(c *fiber.Ctx) error {
		id, ok := auth.CurrentUser(c)
		if !ok {
			return apperr.Auth("authentication required")
		}

		fh, err := upload.FromRequest(c, profileImageField)
		if err != nil {
			return err
		}
		filename, err := store.Save(fh, profileImageField)
		if err != nil {
			return err
		}
		if err := svc.SetProfilePicture(c.Context(), id.UserID, filename); err != nil {
			_ = store.Remove(filename)
			return err
		}
		return c.JSON(fiber.Map{
			"message":         "profile picture uploaded successfully",
			"profile_picture": upload.PublicURL(svc.baseURL, filename),
		})
	})

	r.Post("/follow/:username", func(c *fiber.Ctx) error {
		id, ok := auth.CurrentUser(c)
		if !ok {
			return apperr.Auth("authentication required")
		}
		username := c.Params("username")
		if err := svc.Follow(c.Context(), id.UserID, username); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "successfully followed " + username})
	})

	r.Post("/unfollow/:username", func(c *fiber.Ctx) error {
		id, ok := auth.CurrentUser(c)
		if !ok {
			return apperr.Auth("authentication required")
		}
		username := c.Params("username")
		if err := svc.Unfollow(c.Context(), id.UserID, username); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "successfully unfollowed " + username})
	})

	r.Get("/:username", func(c *fiber.Ctx) error {
		profile, err := svc.Profile(c.Context(), c.Params("username"))
		if err != nil {
			return err
		}
		return c.JSON(profile)
	})

	r.Get("/:username/posts", func(c *fiber.Ctx) error {
		list, err := svc.UserPosts(c.Context(), c.Params("username"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})
}
