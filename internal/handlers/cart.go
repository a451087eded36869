package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickbites/orderflow/internal/cart"
	"github.com/quickbites/orderflow/internal/checkout"
	"github.com/quickbites/orderflow/internal/validation"
)

func (h *Handler) cartFor(c *gin.Context) *cart.Cart {
	id, _ := currentIdentity(c)
	return h.carts.For(id.UserID)
}

func (h *Handler) getCart(c *gin.Context) {
	ct := h.cartFor(c)
	c.JSON(http.StatusOK, gin.H{"items": ct.Items(), "total": ct.Total()})
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size" validate:"required"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	size, err := cart.ParseSize(req.Size)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_size"})
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
		return
	}
	ct := h.cartFor(c)
	ct.AddItem(*p, size)
	c.JSON(http.StatusOK, gin.H{"items": ct.Items(), "total": ct.Total()})
}

type updateItemRequest struct {
	Amount int `json:"amount" validate:"required,oneof=-1 1"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	ct := h.cartFor(c)
	ct.UpdateQty(c.Param("id"), req.Amount)
	c.JSON(http.StatusOK, gin.H{"items": ct.Items(), "total": ct.Total()})
}

func (h *Handler) placeOrder(c *gin.Context) {
	id, _ := currentIdentity(c)
	ct := h.carts.For(id.UserID)

	order, state, err := h.checkout.Checkout(c.Request.Context(), ct, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_cart"})
		case state == checkout.StateItemsFailed:
			// The order header exists but has no items; surface the
			// partial result so the client can retry or contact support.
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "order_incomplete",
				"order": order,
				"state": state.String(),
			})
		default:
			h.writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "state": state.String()})
}
