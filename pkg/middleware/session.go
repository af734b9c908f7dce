package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/common"
)

// Session validates a bearer token when one is presented and stores the
// actor's identity in locals. Requests without a token continue
// anonymously; route handlers decide whether identity is required.
func Session(jwtSecret string, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return c.Next()
		}

		raw := strings.TrimPrefix(authorization, "Bearer ")
		if raw == authorization {
			return unauthorized(c)
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Debug("rejected session token")
			return unauthorized(c)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c)
		}

		actorID, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if actorID == "" {
			return unauthorized(c)
		}

		c.Locals(common.ActorIdContextKey, actorID)
		c.Locals(common.ActorRoleContextKey, role)
		RequestFromLocals(c).ActorID = actorID
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": "invalid or expired session",
	})
}

// ActorID returns the authenticated actor, or "" for anonymous requests.
func ActorID(c *fiber.Ctx) string {
	if id, ok := c.Locals(common.ActorIdContextKey).(string); ok {
		return id
	}
	return ""
}
