package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/catalog"
	"github.com/quickbites/orderflow/internal/validation"
)

// productView is a product with its storage path resolved into a
// time-limited URL clients can render directly.
type productView struct {
	catalog.Product
	ImageURL string `json:"image_url,omitempty"`
}

func (h *Handler) viewOf(c *gin.Context, p catalog.Product) productView {
	v := productView{Product: p}
	if h.images == nil || p.Image == "" {
		return v
	}
	url, err := h.images.SignedURL(c.Request.Context(), p.Image)
	if err != nil {
		h.log.Warn("signing image url failed", zap.String("path", p.Image), zap.Error(err))
		return v
	}
	v.ImageURL = url
	return v
}

func (h *Handler) listMenu(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, h.viewOf(c, p))
	}
	c.JSON(http.StatusOK, gin.H{"products": views})
}

func (h *Handler) getMenuItem(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
		return
	}
	c.JSON(http.StatusOK, h.viewOf(c, *p))
}

type productRequest struct {
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	ImageData string  `json:"image_data"`
}

// storeImage decodes and uploads inline image data, returning the
// storage path or "" when no data was sent.
func (h *Handler) storeImage(c *gin.Context, data string) (string, bool) {
	if data == "" {
		return "", true
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_image_data"})
		return "", false
	}
	path, err := h.images.Upload(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err)
		return "", false
	}
	return path, true
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	path, ok := h.storeImage(c, req.ImageData)
	if !ok {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), catalog.ProductInput{
		Name:  req.Name,
		Price: req.Price,
		Image: path,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.viewOf(c, *p))
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req productRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}
	path, ok := h.storeImage(c, req.ImageData)
	if !ok {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), c.Param("id"), catalog.ProductInput{
		Name:  req.Name,
		Price: req.Price,
		Image: path,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.viewOf(c, *p))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	if h.images != nil && p.Image != "" {
		if err := h.images.Remove(c.Request.Context(), p.Image); err != nil {
			h.log.Warn("removing product image failed", zap.String("path", p.Image), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
