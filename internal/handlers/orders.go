package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickbites/orderflow/internal/orders"
	"github.com/quickbites/orderflow/internal/validation"
)

func (h *Handler) listMyOrders(c *gin.Context) {
	id, _ := currentIdentity(c)
	list, err := h.orders.ListMine(c.Request.Context(), id.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, _ := currentIdentity(c)
	orderID := c.Param("id")

	o, err := h.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	// Hide other users' orders behind the same response as a miss.
	if o == nil || (!id.Admin && o.UserID != id.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		return
	}
	items, err := h.orders.Items(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
}

func (h *Handler) adminListOrders(c *gin.Context) {
	archived := c.Query("archived") == "true"
	list, err := h.orders.ListAdmin(c.Request.Context(), archived)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	if !orders.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
