package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"taskkeeper/internal/server/auth"
)

// userIDLocal is the request-local key under which the authenticated caller's
// user id is stored. Handlers pass this id explicitly into every service
// call; it is the sole authorization key.
const userIDLocal = "userID"

// authMiddleware verifies the bearer token on each request and resolves the
// caller's identity. All failure modes produce the same 401 body.
func (s *Server) authMiddleware(c fiber.Ctx) error {
	token := extractBearerToken(c)
	if token == "" {
		return unauthorized(c)
	}

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(userIDLocal, claims.UserID)
	return c.Next()
}

func extractBearerToken(c fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return ""
}

func callerID(c fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(messageResponse{Message: "unauthenticated"})
}
