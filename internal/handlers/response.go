package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/models"
	"canteen/internal/services"
	"canteen/internal/session"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:      fiber.StatusBadRequest,
	services.KindNotFound:        fiber.StatusNotFound,
	services.KindConflict:        fiber.StatusConflict,
	services.KindUnauthenticated: fiber.StatusUnauthorized,
	services.KindInternal:        fiber.StatusInternalServerError,
}

// ok writes a success envelope.
func ok(c *fiber.Ctx, status int, payload fiber.Map) error {
	body := fiber.Map{"code": 1}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// fail writes the failure envelope for err. Internal errors are logged and
// never shown to the client.
func fail(c *fiber.Ctx, err error) error {
	kind, reason := services.Classify(err)
	if kind == services.KindInternal {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"code":   0,
		"kind":   kind,
		"reason": reason,
		"msg":    services.PublicMessage(err),
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["errors"] = verr.Fields
	}
	return c.Status(kindStatus[kind]).JSON(body)
}

// parseBody decodes the request body into out.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing request body of %s: %v", c.Path(), err)
		return &services.ValidationError{Fields: map[string]string{"body": "Invalid request body"}}
	}
	return nil
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &services.ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return uint(id), nil
}

// statusFilter reads the optional ?status= query parameter.
func statusFilter(c *fiber.Ctx) (*models.OrderStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"status": "must be an order status"}}
	}
	s, err := models.ParseOrderStatus(n)
	if err != nil {
		return nil, &services.ValidationError{Fields: map[string]string{"status": err.Error()}}
	}
	return &s, nil
}

// principal returns the authenticated account. Routes using it are always
// behind middleware.Require.
func principal(c *fiber.Ctx) session.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}
