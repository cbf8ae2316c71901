package auth

import (
	"strings"

	"backend-picfeed/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

// Middleware rejects requests without a token (401) or with a token that
// fails verification (400), and stores the caller in locals otherwise.
func Middleware(tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return apperr.Auth("access denied, no token provided")
		}

		id, err := tokens.Verify(raw)
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, "invalid token: "+err.Error(), err)
		}

		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalUsername, id.Username)
		return c.Next()
	}
}

// CurrentUser returns the identity stored by Middleware.
func CurrentUser(c *fiber.Ctx) (Identity, bool) {
	userID, _ := c.Locals(LocalUserID).(string)
	if userID == "" {
		return Identity{}, false
	}
	username, _ := c.Locals(LocalUsername).(string)
	return Identity{UserID: userID, Username: username}, true
}

// bearerToken strips an optional "Bearer " scheme.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	const scheme = "bearer "
	if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		header = header[len(scheme):]
	}
	return strings.TrimSpace(header)
}
