package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pettag-service/internal/middleware"
	"pettag-service/internal/model"
	"pettag-service/internal/service"
	"pettag-service/pkg/database"
	"pettag-service/pkg/logger"
)

// CheckoutRequest is the body for POST /api/orders/checkout
type CheckoutRequest struct {
	Items           []service.CheckoutItem `json:"items" validate:"required"`
	ShippingAddress model.ShippingAddress  `json:"shipping_address"`
	PaymentSource   string                 `json:"payment_source" validate:"required"`
}

// OrderStatusRequest is the body for PUT /api/orders/:id/status
type OrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// Checkout captures payment and creates a paid merchandise order
func Checkout(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid checkout request", zap.Error(err))
		return BadRequest(c, "invalid request data")
	}
	if req.PaymentSource == "" {
		return BadRequest(c, "payment_source is required")
	}

	order, err := engine.Checkout(c.Request().Context(), userID, req.Items, req.ShippingAddress, req.PaymentSource)
	if err != nil {
		log.Warn("Checkout rejected", zap.Uint("user_id", userID), zap.Error(err))
		return Fail(c, err)
	}

	return OK(c, http.StatusCreated, order)
}

// ListOrders returns the caller's orders, newest first
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	page, perPage := pagination(c)
	db := database.GetDB()

	var total int64
	if err := db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		log.Error("Failed to count orders", zap.Error(err))
		return Fail(c, err)
	}

	var orders []model.Order
	err := db.Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&orders).Error
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return Fail(c, err)
	}

	return OKList(c, orders, Meta{Page: page, PerPage: perPage, Total: total})
}

// GetOrder returns one of the caller's orders with its items
func GetOrder(c echo.Context) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	orderID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid order id")
	}

	var order model.Order
	result := database.GetDB().Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order)
	if result.Error != nil {
		return Fail(c, service.ErrOrderNotFound)
	}

	return OK(c, http.StatusOK, order)
}

// CancelOrder cancels an order and reverses its tag and stock effects
func CancelOrder(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	orderID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid order id")
	}

	order, err := engine.CancelOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		log.Warn("Order cancellation rejected",
			zap.Uint("user_id", userID),
			zap.Uint("order_id", orderID),
			zap.Error(err))
		return Fail(c, err)
	}

	return OK(c, http.StatusOK, order)
}

// UpdateOrderStatus advances an order through the shipment states
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return BadRequest(c, "missing user context")
	}

	orderID, err := parseID(c)
	if err != nil {
		return BadRequest(c, "invalid order id")
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return BadRequest(c, "status is required")
	}

	order, err := engine.AdvanceOrderStatus(c.Request().Context(), userID, orderID, req.Status, service.ShipmentUpdate{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		log.Warn("Order status update rejected",
			zap.Uint("order_id", orderID),
			zap.String("status", req.Status),
			zap.Error(err))
		return Fail(c, err)
	}

	return OK(c, http.StatusOK, order)
}
