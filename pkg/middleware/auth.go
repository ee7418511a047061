// Package middleware holds the fiber middleware that turns a bearer token
// into an explicit *auth.Session for the handlers.
package middleware

import (
	"errors"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/service/auth"
)

const sessionKey = "session"

// JwtProtected verifies the bearer token with the configured HS256 secret and
// stores the parsed *jwt.Token under the "user" local.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

// WithSession resolves the verified token into a session. It must run after
// JwtProtected.
func WithSession(authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		sess, err := authSvc.SessionFrom(token)
		if err != nil {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// Protected chains JwtProtected and WithSession.
func Protected(cfg *config.Jwt, authSvc *auth.Service) []fiber.Handler {
	return []fiber.Handler{JwtProtected(cfg), WithSession(authSvc)}
}

// AdminOnly rejects sessions without the admin role.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok || !sess.IsAdmin() {
			return problem(c, fiber.StatusForbidden, "Forbidden", "admin role required")
		}
		return c.Next()
	}
}

// CurrentSession returns the session stored by WithSession.
func CurrentSession(c *fiber.Ctx) (*auth.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*auth.Session)
	return sess, ok && sess != nil
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) ||
		strings.EqualFold(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		return problem(c, fiber.StatusBadRequest, "Bad Request", "Missing or malformed JWT")
	}
	return problem(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid or expired JWT")
}

// problem writes an RFC 9457 body. webapi/common cannot be imported here
// without a cycle.
func problem(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	})
}
