package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/models"
	"canteen/internal/services"
	"canteen/internal/session"
)

// CatalogHandler serves merchant browsing and menu management.
type CatalogHandler struct {
	service  *services.CatalogService
	imageURL string
}

// NewCatalogHandler creates a new CatalogHandler. imageURL is the public
// prefix dish images are served under.
func NewCatalogHandler(service *services.CatalogService, imageURL string) *CatalogHandler {
	return &CatalogHandler{service: service, imageURL: imageURL}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/merchants", h.HandleListMerchants)
	router.Get("/merchants/:id/dishes", h.HandleMenu)

	merchant := middleware.Require(session.KindMerchant)
	router.Get("/merchant/dishes", merchant, h.HandleOwnDishes)
	router.Post("/merchant/dishes", merchant, h.HandleCreateDish)
	router.Put("/merchant/dishes/:id", merchant, h.HandleUpdateDish)
	router.Delete("/merchant/dishes/:id", merchant, h.HandleDeleteDish)
	router.Post("/merchant/dishes/:id/status", merchant, h.HandleSetDishStatus)
	router.Post("/merchant/dishes/:id/image", merchant, h.HandleUploadImage)
}

func (h *CatalogHandler) dishViews(dishes []models.Dish) []dishView {
	out := make([]dishView, 0, len(dishes))
	for i := range dishes {
		out = append(out, newDishView(&dishes[i], h.imageURL))
	}
	return out
}

// HandleListMerchants lists approved merchants, optionally filtered by ?keyword=.
func (h *CatalogHandler) HandleListMerchants(c *fiber.Ctx) error {
	merchants, err := h.service.ListMerchants(c.UserContext(), c.Query("keyword"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"merchants": newMerchantViews(merchants)})
}

// HandleMenu lists the listed dishes of one merchant.
func (h *CatalogHandler) HandleMenu(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	merchant, dishes, err := h.service.MenuOf(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"merchant": newMerchantView(merchant),
		"dishes":   h.dishViews(dishes),
	})
}

func (h *CatalogHandler) HandleOwnDishes(c *fiber.Ctx) error {
	dishes, err := h.service.OwnDishes(c.UserContext(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"dishes": h.dishViews(dishes)})
}

func (h *CatalogHandler) HandleCreateDish(c *fiber.Ctx) error {
	var in services.DishInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	dish, err := h.service.CreateDish(c.UserContext(), principal(c).ID, in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"dish": newDishView(dish, h.imageURL)})
}

func (h *CatalogHandler) HandleUpdateDish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var in services.DishInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	dish, err := h.service.UpdateDish(c.UserContext(), principal(c).ID, id, in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"dish": newDishView(dish, h.imageURL)})
}

func (h *CatalogHandler) HandleDeleteDish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.DeleteDish(c.UserContext(), principal(c).ID, id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"msg": "Dish deleted"})
}

// HandleSetDishStatus lists (1) or delists (0) a dish.
func (h *CatalogHandler) HandleSetDishStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var body struct {
		Status models.DishStatus `json:"status"`
	}
	if err := parseBody(c, &body); err != nil {
		return fail(c, err)
	}
	if err := h.service.SetDishStatus(c.UserContext(), principal(c).ID, id, body.Status); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id, "status": body.Status, "status_text": body.Status.Text()})
}

// HandleUploadImage stores the multipart "image" file for a dish.
func (h *CatalogHandler) HandleUploadImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, &services.ValidationError{Fields: map[string]string{"image": "an image file is required"}})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, err)
	}
	defer f.Close()

	name, err := h.service.UploadDishImage(c.UserContext(), principal(c).ID, id, fh.Filename, f)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"image": h.imageURL + "/" + name})
}
