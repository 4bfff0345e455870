package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/repsync/internal/domain"
)

// Locals keys set by VerifyToken
const (
	UserIDKey   = "userID"
	DeviceIDKey = "deviceID"
)

func unauthorized(c *fiber.Ctx, reason string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": reason})
}

// VerifyToken checks the HS256 device token in the Authorization header.
// The "Bearer " prefix is optional.
func VerifyToken(jwtSecret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	key := func(*jwt.Token) (interface{}, error) { return []byte(jwtSecret), nil }

	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		raw = strings.TrimPrefix(raw, "Bearer ")
		if raw == "" {
			return unauthorized(c, "Missing authorization token")
		}

		var claims domain.DeviceClaims
		if _, err := parser.ParseWithClaims(raw, &claims, key); err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		if claims.UserID == "" {
			return unauthorized(c, "Token has no user")
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(DeviceIDKey, claims.DeviceID)
		return c.Next()
	}
}

// UserID returns the authenticated user, or "" outside VerifyToken
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
