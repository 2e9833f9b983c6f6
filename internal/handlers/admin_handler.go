package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/services"
	"canteen/internal/session"
)

// AdminHandler serves merchant vetting.
type AdminHandler struct {
	audit *services.AuditService
}

func NewAdminHandler(audit *services.AuditService) *AdminHandler {
	return &AdminHandler{audit: audit}
}

// RegisterRoutes registers the admin routes with the Fiber app.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	admin := middleware.Require(session.KindAdmin)
	router.Get("/admin/merchants/pending", admin, h.HandlePending)
	router.Post("/admin/merchants/audit", admin, h.HandleAudit)
}

func (h *AdminHandler) HandlePending(c *fiber.Ctx) error {
	merchants, err := h.audit.Pending(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"merchants": newMerchantViews(merchants)})
}

// HandleAudit approves (1) or rejects (2) a pending merchant.
func (h *AdminHandler) HandleAudit(c *fiber.Ctx) error {
	var in services.AuditInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	if err := h.audit.Audit(c.UserContext(), in); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"merchant_id": in.MerchantID,
		"status":      in.Status.Text(),
	})
}
