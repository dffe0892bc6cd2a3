package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"
)

// AdminBasicAuth protects admin routes with HTTP basic auth against a bcrypt
// password hash. With no credentials configured, admin routes answer 404.
func AdminBasicAuth(user, passwordHash string) fiber.Handler {
	if user == "" || passwordHash == "" {
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "admin API is disabled",
				"code":  "not_found",
			})
		}
	}
	hash := []byte(passwordHash)
	return basicauth.New(basicauth.Config{
		Realm: "Storefront Admin",
		Authorizer: func(u, p string) bool {
			if u != user {
				return false
			}
			return bcrypt.CompareHashAndPassword(hash, []byte(p)) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="Storefront Admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
				"code":  "unauthorized",
			})
		},
	})
}
