package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/services"
	"canteen/internal/session"
)

// AddressHandler serves the saved delivery addresses of the current user.
type AddressHandler struct {
	service *services.AddressService
}

func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	user := middleware.Require(session.KindUser)
	router.Get("/addresses", user, h.HandleList)
	router.Post("/addresses", user, h.HandleCreate)
}

func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	addresses, err := h.service.List(c.UserContext(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"addresses": addresses})
}

func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	address, err := h.service.Create(c.UserContext(), principal(c).ID, in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"address": address})
}
