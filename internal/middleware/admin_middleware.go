package middleware

import (
	"lapak/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminRequired short-circuits requests whose principal lacks the admin role.
// It must run after AuthRequired and has no side effects on passing requests.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := c.Locals(PrincipalKey).(models.Principal)
		if !ok || !principal.Admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Unauthorized: Admin access required",
			})
		}
		return c.Next()
	}
}
