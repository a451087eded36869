package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickbites/orderflow/internal/gateway"
	"github.com/quickbites/orderflow/internal/validation"
)

// writeError maps store and validation failures onto HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": verr.Fields})
		return
	}
	var rerr *gateway.RemoteError
	if errors.As(err, &rerr) {
		h.log.Error("backend request failed",
			zap.String("op", rerr.Op), zap.String("table", rerr.Table), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend_unavailable"})
		return
	}
	h.log.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
