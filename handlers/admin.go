package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/apperrors"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// AdminGetAllOrders returns every order with its customer attached
func (h *OrderHandler) AdminGetAllOrders(c *gin.Context) {
	orders, err := h.orders.ListAllOrders(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// AdminUpdateOrderStatus moves an order to another status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "orderId")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Status == "" {
		respondError(c, apperrors.Validation("Status is required"))
		return
	}
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), middleware.GetIdentity(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
