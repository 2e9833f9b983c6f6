package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"canteen/internal/middleware"
	"canteen/internal/services"
	"canteen/internal/session"
)

// IdempotencyHeader lets clients retry a checkout safely.
const IdempotencyHeader = "Idempotency-Key"

// OrderHandler handles checkout, payment, fulfillment and order queries.
type OrderHandler struct {
	checkout    *services.CheckoutService
	orders      *services.OrderService
	redirectURL string
}

// NewOrderHandler creates a new OrderHandler. redirectURL is returned to
// clients after a successful payment.
func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService, redirectURL string) *OrderHandler {
	return &OrderHandler{
		checkout:    checkout,
		orders:      orders,
		redirectURL: redirectURL,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	user := middleware.Require(session.KindUser)
	router.Post("/checkout", user, h.HandleCheckout)
	router.Post("/pay", user, h.HandlePay)
	router.Post("/order/cancel", user, h.HandleCancel)
	router.Get("/orders", user, h.HandleListOrders)
	router.Get("/orders/recent", user, h.HandleRecentOrders)
	router.Get("/orders/:order_no", user, h.HandleGetOrder)
	router.Get("/orders/:order_no/qrcode", user, h.HandlePickupCode)

	merchant := middleware.Require(session.KindMerchant)
	router.Get("/merchant/orders", merchant, h.HandleMerchantOrders)
	router.Post("/merchant/order/update", merchant, h.HandleUpdateStatus)
}

// HandleCheckout creates an unpaid order from the submitted cart.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	in.IdempotencyKey = c.Get(IdempotencyHeader)

	p := principal(c)
	order, err := h.checkout.Checkout(c.UserContext(), p.ID, in)
	if err != nil {
		log.Printf("Checkout for user %d at merchant %d failed: %v", p.ID, in.MerchantID, err)
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"order_no":    order.OrderNo,
		"order_id":    order.ID,
		"total_price": order.TotalPrice.StringFixed(2),
	})
}

// HandlePay marks an unpaid order as paid.
func (h *OrderHandler) HandlePay(c *fiber.Ctx) error {
	var ref services.OrderRef
	if err := parseBody(c, &ref); err != nil {
		return fail(c, err)
	}

	if _, err := h.orders.Pay(c.UserContext(), principal(c).ID, ref); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"msg":          "success",
		"redirect_url": h.redirectURL,
	})
}

// HandleCancel cancels one of the user's unpaid orders.
func (h *OrderHandler) HandleCancel(c *fiber.Ctx) error {
	var ref services.OrderRef
	if err := parseBody(c, &ref); err != nil {
		return fail(c, err)
	}

	order, err := h.orders.Cancel(c.UserContext(), principal(c).ID, ref)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"order": newOrderView(order)})
}

// HandleListOrders lists the user's orders, optionally filtered by ?status=.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	status, err := statusFilter(c)
	if err != nil {
		return fail(c, err)
	}
	orders, err := h.orders.UserOrders(c.UserContext(), principal(c).ID, status)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"orders": newOrderViews(orders)})
}

func (h *OrderHandler) HandleRecentOrders(c *fiber.Ctx) error {
	orders, err := h.orders.RecentOrders(c.UserContext(), principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"orders": newOrderViews(orders)})
}

func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orders.UserOrder(c.UserContext(), principal(c).ID, c.Params("order_no"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"order": newOrderView(order)})
}

// HandlePickupCode renders the pickup voucher of an order as a PNG.
func (h *OrderHandler) HandlePickupCode(c *fiber.Ctx) error {
	png, err := h.orders.PickupCode(c.UserContext(), principal(c).ID, c.Params("order_no"))
	if err != nil {
		return fail(c, err)
	}
	c.Type("png")
	return c.Send(png)
}

func (h *OrderHandler) HandleMerchantOrders(c *fiber.Ctx) error {
	status, err := statusFilter(c)
	if err != nil {
		return fail(c, err)
	}
	orders, err := h.orders.MerchantOrders(c.UserContext(), principal(c).ID, status)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"orders": newOrderViews(orders)})
}

// HandleUpdateStatus moves one of the merchant's orders to accepted,
// completed or cancelled.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var in services.FulfillmentInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}

	p := principal(c)
	order, err := h.orders.UpdateFulfillment(c.UserContext(), p.ID, in)
	if err != nil {
		log.Printf("Merchant %d could not move order %d to %d: %v", p.ID, in.OrderID, in.Status, err)
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"order_id": order.ID,
		"status":   int(order.Status),
	})
}
