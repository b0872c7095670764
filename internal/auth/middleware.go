package auth

import (
	"strings"

	"backend-storymap/internal/session"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

// JWTMiddleware validates bearer tokens and stores the viewer in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parseClaims(token, secretBytes, tokenAccess)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		setViewer(c, &session.Session{UserID: claims.UserID, Email: claims.Email})
		return c.Next()
	}
}

// OptionalJWT resolves the viewer when a valid token is present and
// otherwise continues anonymously. It never rejects a request.
func OptionalJWT(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return c.Next()
		}
		if claims, err := parseClaims(token, secretBytes, tokenAccess); err == nil {
			setViewer(c, &session.Session{UserID: claims.UserID, Email: claims.Email})
		}
		return c.Next()
	}
}

// Viewer returns the signed-in session, or nil for anonymous requests.
func Viewer(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(sessionLocal).(*session.Session)
	return s
}

func setViewer(c *fiber.Ctx, s *session.Session) {
	c.Locals("user_id", s.UserID)
	c.Locals(sessionLocal, s)
	c.SetUserContext(session.WithContext(c.UserContext(), s))
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
