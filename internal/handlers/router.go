package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/cart"
	"github.com/quickbites/orderflow/internal/catalog"
	"github.com/quickbites/orderflow/internal/checkout"
	"github.com/quickbites/orderflow/internal/orders"
	"github.com/quickbites/orderflow/internal/session"
)

// Handler carries every collaborator the HTTP surface depends on.
type Handler struct {
	catalog  *catalog.Store
	images   *catalog.ImageStore
	orders   *orders.Store
	carts    *cart.Registry
	checkout *checkout.Orchestrator
	validate *validatorv10.Validate
	log      *zap.Logger
}

type Config struct {
	Catalog  *catalog.Store
	Images   *catalog.ImageStore
	Orders   *orders.Store
	Carts    *cart.Registry
	Checkout *checkout.Orchestrator
	Sessions *session.Manager
	Validate *validatorv10.Validate
	Log      *zap.Logger
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(cfg Config) *gin.Engine {
	h := &Handler{
		catalog:  cfg.Catalog,
		images:   cfg.Images,
		orders:   cfg.Orders,
		carts:    cfg.Carts,
		checkout: cfg.Checkout,
		validate: cfg.Validate,
		log:      cfg.Log,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Authenticate(cfg.Sessions))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/menu", h.listMenu)
	r.GET("/menu/:id", h.getMenuItem)

	auth := r.Group("/", RequireAuth())
	{
		auth.GET("/cart", h.getCart)
		auth.POST("/cart/items", h.addCartItem)
		auth.PATCH("/cart/items/:id", h.updateCartItem)
		auth.POST("/cart/checkout", h.placeOrder)

		auth.GET("/orders", h.listMyOrders)
		auth.GET("/orders/:id", h.getOrder)
	}

	admin := r.Group("/admin", RequireAuth(), RequireAdmin())
	{
		admin.POST("/menu", h.createProduct)
		admin.PUT("/menu/:id", h.updateProduct)
		admin.DELETE("/menu/:id", h.deleteProduct)

		admin.GET("/orders", h.adminListOrders)
		admin.PATCH("/orders/:id", h.updateOrderStatus)
	}

	return r
}
