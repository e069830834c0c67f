// Package respond holds the helpers shared by the HTTP handlers: reading
// path ids and the authenticated user, and turning service errors into
// status codes.
package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

// Error writes the status and body that match err. Server-side failures are
// logged and hidden from the client.
func Error(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "empty_cart"})
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "insufficient_stock"})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// BadRequest answers 400 for a body or query that could not be bound.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}

// UserID returns the id set by the token middleware. It answers 401 and
// reports false when the request is not authenticated.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	id, ok := v.(uint)
	if !exists || !ok || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}

// ID parses the named path parameter. It answers 400 and reports false
// when the parameter is not a positive integer.
func ID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
