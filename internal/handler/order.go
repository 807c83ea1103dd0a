package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"widget-shop/internal/model"
	"widget-shop/internal/service"
)

// OrderHandler serves the order and order-item endpoints.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// MissingNumber rejects an order fetch without an order number.
func (h *OrderHandler) MissingNumber(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "order number required"})
}

// Get returns an order with its items. Completed orders are no longer
// readable through this endpoint.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	if order.Completed {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrOrderCompleted.Error()})
		return
	}
	c.JSON(http.StatusOK, order.ToWire())
}

// Create creates an order, empty or with one initial item when the body
// carries widget_id and quantity.
func (h *OrderHandler) Create(c *gin.Context) {
	var req model.OrderCreateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}
	order, err := h.orders.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order.ToWire())
}

// Delete removes an order and its items. Committed stock is not restored.
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

// Complete runs the completion transition. On insufficient stock the
// order stays open and no widget changes.
func (h *OrderHandler) Complete(c *gin.Context) {
	order, err := h.orders.Complete(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order.ToWire())
}

// ListItems returns an order's line items.
func (h *OrderHandler) ListItems(c *gin.Context) {
	items, err := h.orders.ListItems(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]model.OrderItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToWire())
	}
	c.JSON(http.StatusOK, gin.H{"items": responses})
}

// AddItem appends a line item to an open order.
func (h *OrderHandler) AddItem(c *gin.Context) {
	var req model.OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	item, err := h.orders.AddItem(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item.ToWire())
}

// UpdateItem replaces a line item's quantity.
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.OrderItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	item, err := h.orders.UpdateItem(c.Request.Context(), c.Param("number"), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item.ToWire())
}

// RemoveItem deletes a line item; removing the last one deletes the order.
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.orders.RemoveItem(c.Request.Context(), c.Param("number"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order item deleted"})
}
