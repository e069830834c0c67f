package respond

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("order 7: %w", storage.ErrNotFound), http.StatusNotFound, `{"error":"order 7: record not found"}`},
		{fmt.Errorf("quantity: %w", services.ErrInvalidArgument), http.StatusBadRequest, `{"error":"quantity: invalid argument"}`},
		{services.ErrEmptyCart, http.StatusBadRequest, `{"error":"cart is empty","code":"empty_cart"}`},
		{fmt.Errorf("A: %w", services.ErrInsufficientStock), http.StatusConflict, `{"error":"A: insufficient stock","code":"insufficient_stock"}`},
		{services.ErrInvalidTransition, http.StatusConflict, `{"error":"invalid status transition"}`},
		{storage.ErrConflict, http.StatusConflict, `{"error":"record already exists"}`},
		{services.ErrForbidden, http.StatusForbidden, `{"error":"forbidden"}`},
		{errors.New("connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			var logs bytes.Buffer
			log := slog.New(slog.NewTextHandler(&logs, nil))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			Error(c, log, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
			if tc.status == http.StatusInternalServerError {
				assert.Contains(t, logs.String(), "connection refused")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestIDAndUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	id, ok := ID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok = ID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	_, ok = UserID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Set("user_id", uint(5))
	userID, ok := UserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint(5), userID)
}
