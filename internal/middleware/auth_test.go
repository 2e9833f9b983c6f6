package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteen/internal/services"
	"canteen/internal/session"
)

type staticValidator map[string]session.Principal

func (v staticValidator) ValidateToken(_ context.Context, token string) (session.Principal, error) {
	if p, ok := v[token]; ok {
		return p, nil
	}
	if token == "store-down" {
		return session.Principal{}, fmt.Errorf("failed to read session: %w", errors.New("dial tcp: connection refused"))
	}
	return session.Principal{}, services.ErrUnauthenticated
}

func newApp() *fiber.App {
	v := staticValidator{
		"user-token":     {Kind: session.KindUser, ID: 1, Name: "alice"},
		"merchant-token": {Kind: session.KindMerchant, ID: 2, Name: "noodle-bar"},
	}
	app := fiber.New()
	app.Use(Authenticate(v))
	app.Get("/open", func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(p.Name)
	})
	app.Get("/user", Require(session.KindUser), func(c *fiber.Ctx) error {
		p, _ := PrincipalFrom(c)
		return c.SendString(p.Name)
	})
	app.Get("/staff", Require(session.KindMerchant, session.KindAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func withBearer(path, token string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthenticate_Sources(t *testing.T) {
	app := newApp()

	_, body := do(t, app, httptest.NewRequest("GET", "/open", nil))
	assert.Equal(t, "anonymous", body)

	_, body = do(t, app, withBearer("/open", "user-token"))
	assert.Equal(t, "alice", body)

	req := httptest.NewRequest("GET", "/open", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "merchant-token"})
	_, body = do(t, app, req)
	assert.Equal(t, "noodle-bar", body)

	_, body = do(t, app, withBearer("/open", "forged"))
	assert.Equal(t, "anonymous", body)
}

func TestRequire(t *testing.T) {
	app := newApp()

	status, body := do(t, app, withBearer("/user", "user-token"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alice", body)

	status, body = do(t, app, withBearer("/user", "merchant-token"))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, `"reason":"login_required"`)
	assert.Contains(t, body, "please log in as user")

	status, _ = do(t, app, httptest.NewRequest("GET", "/user", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, withBearer("/staff", "merchant-token"))
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, withBearer("/staff", "user-token"))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthenticate_SessionStoreFailure(t *testing.T) {
	app := newApp()

	status, body := do(t, app, withBearer("/open", "store-down"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, `"kind":"internal"`)
	assert.Contains(t, body, `"reason":"internal_error"`)
	assert.NotContains(t, body, "connection refused")

	status, _ = do(t, app, withBearer("/user", "store-down"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestTokenFrom_HeaderWinsOverCookie(t *testing.T) {
	app := newApp()
	req := withBearer("/open", "user-token")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "merchant-token"})

	_, body := do(t, app, req)
	assert.Equal(t, "alice", body)
}
