package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

const conductorRealm = `Basic realm="Nazigi Stamford Bus - Conductor Login"`

// ConductorAuth guards the conductor API with HTTP basic auth against the
// configured credential pair. Comparison is constant-time.
func ConductorAuth(username, password string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Authorizer: func(user, pass string) bool {
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			return userMatch && passMatch
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, conductorRealm)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		},
	})
}
