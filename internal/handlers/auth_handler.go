package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/services"
	"canteen/internal/session"
)

// AuthHandler handles HTTP requests for registration, login and logout of
// every account kind.
type AuthHandler struct {
	authService *services.AuthService
	sessionTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionTTL:  sessionTTL,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/user/register", h.HandleRegisterUser)
	router.Post("/user/login", h.login(session.KindUser))
	router.Post("/user/logout", h.HandleLogout)

	router.Post("/merchant/register", h.HandleRegisterMerchant)
	router.Post("/merchant/login", h.login(session.KindMerchant))
	router.Post("/merchant/logout", h.HandleLogout)

	router.Post("/admin/login", h.login(session.KindAdmin))
	router.Post("/admin/logout", h.HandleLogout)
}

// HandleRegisterUser handles new user registration.
func (h *AuthHandler) HandleRegisterUser(c *fiber.Ctx) error {
	var in services.RegisterUserInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}

	user, err := h.authService.RegisterUser(c.UserContext(), in)
	if err != nil {
		log.Printf("Error registering user %s: %v", in.Username, err)
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"msg":  "User registered successfully",
		"user": user,
	})
}

// HandleRegisterMerchant registers a merchant pending approval.
func (h *AuthHandler) HandleRegisterMerchant(c *fiber.Ctx) error {
	var in services.RegisterMerchantInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}

	merchant, err := h.authService.RegisterMerchant(c.UserContext(), in)
	if err != nil {
		log.Printf("Error registering merchant %s: %v", in.Username, err)
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"msg":      "Registration submitted, waiting for approval",
		"merchant": newMerchantView(merchant),
	})
}

// login returns the login handler of one account kind. The token is both
// returned and set as the session cookie.
func (h *AuthHandler) login(kind session.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cred services.Credentials
		if err := parseBody(c, &cred); err != nil {
			return fail(c, err)
		}

		token, p, err := h.authService.Login(c.UserContext(), kind, cred)
		if err != nil {
			log.Printf("Error during %s login for %s: %v", kind, cred.Username, err)
			return fail(c, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     middleware.SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(h.sessionTTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return ok(c, fiber.StatusOK, fiber.Map{
			"msg":   "Login successful",
			"token": token,
			"kind":  p.Kind,
			"id":    p.ID,
			"name":  p.Name,
		})
	}
}

// HandleLogout ends the current session, if any.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if token := middleware.TokenFrom(c); token != "" {
		if err := h.authService.Logout(c.UserContext(), token); err != nil {
			return fail(c, err)
		}
	}
	c.ClearCookie(middleware.SessionCookie)
	return ok(c, fiber.StatusOK, fiber.Map{"msg": "Logged out"})
}
