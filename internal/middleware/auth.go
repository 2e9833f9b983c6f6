package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/services"
	"canteen/internal/session"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "session"

const principalKey = "principal"

// TokenValidator resolves a token to the principal of its live session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (session.Principal, error)
}

// Authenticate loads the principal of the request, if any, from a Bearer
// token or the session cookie. Requests without a valid token continue
// anonymously; use Require to gate routes. A session store failure fails
// the request with 500 instead of logging the caller out.
func Authenticate(v TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFrom(c)
		if token == "" {
			return c.Next()
		}

		p, err := v.ValidateToken(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(principalKey, p)
		case !errors.Is(err, services.ErrUnauthenticated):
			log.Printf("Error validating session token: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code":   0,
				"kind":   services.KindInternal,
				"reason": "internal_error",
				"msg":    "internal error",
			})
		}
		return c.Next()
	}
}

// Require rejects requests whose principal is not one of kinds.
func Require(kinds ...session.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if ok {
			for _, k := range kinds {
				if p.Kind == k {
					return c.Next()
				}
			}
		}

		msg := "please log in"
		if len(kinds) == 1 {
			msg = "please log in as " + string(kinds[0])
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"code":   0,
			"kind":   "unauthenticated",
			"reason": "login_required",
			"msg":    msg,
		})
	}
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c *fiber.Ctx) (session.Principal, bool) {
	p, ok := c.Locals(principalKey).(session.Principal)
	return p, ok
}

// TokenFrom extracts the raw token of a request. The Authorization header
// wins over the cookie.
func TokenFrom(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}
