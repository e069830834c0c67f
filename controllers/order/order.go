package orderControllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/services"
)

type CheckoutInput struct {
	PaymentMethod   string `json:"paymentMethod"`
	ShippingAddress string `json:"shippingAddress"`
	ShippingMethod  string `json:"shippingMethod"`
	Notes           string `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// POST /api/checkout
//
// The body is optional. Retries that send the same Idempotency-Key header
// get the first order back with 200 instead of 201.
func Checkout(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		var input CheckoutInput
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
				respond.BadRequest(c, err)
				return
			}
		}

		order, replayed, err := orders.Checkout(c.Request.Context(), userID, services.CheckoutRequest{
			PaymentMethod:   input.PaymentMethod,
			ShippingAddress: input.ShippingAddress,
			ShippingMethod:  input.ShippingMethod,
			Notes:           input.Notes,
			IdempotencyKey:  c.GetHeader("Idempotency-Key"),
		})
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		status := http.StatusCreated
		if replayed {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"orderId": order.ID, "orderNumber": order.OrderNumber})
	}
}

// GET /api/orders/user
func GetUserOrders(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		list, err := orders.UserOrders(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GET /api/orders/:id
func GetOrder(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		orderID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		order, err := orders.GetOrder(c.Request.Context(), userID, orderID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/stores/:id/orders
func GetStoreOrders(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		storeID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		items, err := orders.StoreOrders(c.Request.Context(), userID, storeID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// PATCH /admin/orders/:id/status
func UpdateOrderStatus(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		order, err := orders.UpdateStatus(c.Request.Context(), orderID, req.Status)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /admin/orders/:id/payment-status
func UpdatePaymentStatus(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		order, err := orders.UpdatePaymentStatus(c.Request.Context(), orderID, req.PaymentStatus)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /admin/order-items/:id/status
func UpdateOrderItemStatus(orders *services.OrderService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		item, err := orders.UpdateItemStatus(c.Request.Context(), itemID, req.Status)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// GET /admin/orders/ws
func OrderWebSocketHandler(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeHTTP(c.Writer, c.Request)
	}
}
