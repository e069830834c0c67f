package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"github.com/yemenmarket/marketplace-api/cache"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

const (
	jwtSecret = "routes-test-secret"
	adminKey  = "routes-test-admin-key"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  storage.Storage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemStorage()
	pricing := services.DefaultPricing()
	carts := services.NewCartService(log, store, cache.Noop{}, pricing)

	r := gin.New()
	SetupRoutes(r, Deps{
		Log:         log,
		Store:       store,
		Carts:       carts,
		Orders:      services.NewOrderService(log, store, carts, events.Noop{}, pricing),
		Catalog:     services.NewCatalogService(log, store),
		Hub:         events.NewHub(log),
		JWTSecret:   jwtSecret,
		AdminAPIKey: adminKey,
	})
	return &testAPI{t: t, router: r, store: store}
}

func (a *testAPI) request(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// do sends body as JSON. Extra headers come as name/value pairs.
func (a *testAPI) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.request(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register creates an account and returns its token and id.
func (a *testAPI) register(username string) (string, uint) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/users/register", "", gin.H{
		"username": username,
		"password": "password123",
		"name":     username,
		"email":    username + "@example.com",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}](a.t, w)
	return resp.Token, resp.User.ID
}

type idResponse struct {
	ID uint `json:"id"`
}

func (a *testAPI) createStore(token, name string) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/stores", token, gin.H{"name": name, "category": "electronics"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[idResponse](a.t, w).ID
}

func (a *testAPI) createProduct(token string, storeID uint, name, price string, quantity int) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/products", token, gin.H{
		"storeId": storeID, "name": name, "price": price, "quantity": quantity,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[idResponse](a.t, w).ID
}

func TestAuth(t *testing.T) {
	api := newTestAPI(t)
	api.register("amal")

	w := api.do(http.MethodPost, "/api/users/register", "", gin.H{
		"username": "AMAL", "password": "password123", "name": "Amal", "email": "other@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/users/register", "", gin.H{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/users/login", "", gin.H{"username": "amal", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = api.do(http.MethodPost, "/api/users/login", "", gin.H{"username": "nobody", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/users/login", "", gin.H{"username": "amal", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[map[string]any](t, w)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)
	assert.NotContains(t, w.Body.String(), "password")

	w = api.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"amal"`)
	assert.Contains(t, w.Body.String(), `"lastLoginAt"`)
}

func TestCartAndCheckout(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	buyer, _ := api.register("buyer")
	storeID := api.createStore(vendor, "Gadgets")
	a := api.createProduct(vendor, storeID, "A", "49.99", 10)
	b := api.createProduct(vendor, storeID, "B", "24.99", 10)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/cart", "", nil).Code)

	w := api.do(http.MethodPost, "/api/checkout", buyer, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"cart is empty","code":"empty_cart"}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": a, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": b, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": 999, "quantity": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": a, "quantity": 0}).Code)

	w = api.do(http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[struct {
		Items []struct {
			CartItemID uint `json:"cartItemId"`
		} `json:"items"`
		ItemCount    int             `json:"itemCount"`
		Subtotal     decimal.Decimal `json:"subtotal"`
		ShippingCost decimal.Decimal `json:"shippingCost"`
		Tax          decimal.Decimal `json:"tax"`
		Total        decimal.Decimal `json:"total"`
	}](t, w)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, "124.97", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", cart.ShippingCost.StringFixed(2))
	assert.Equal(t, "6.25", cart.Tax.StringFixed(2))
	assert.Equal(t, "141.22", cart.Total.StringFixed(2))

	// another user cannot touch the buyer's items
	itemPath := fmt.Sprintf("/api/cart/items/%d", cart.Items[0].CartItemID)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, itemPath, vendor, gin.H{"quantity": 5}).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPatch, itemPath, buyer, gin.H{"quantity": 2}).Code)

	checkout := func(key string) *httptest.ResponseRecorder {
		return api.do(http.MethodPost, "/api/checkout", buyer, gin.H{"paymentMethod": "Visa", "shippingAddress": "Aden"},
			"Idempotency-Key", key)
	}
	w = checkout("k-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[struct {
		OrderID     uint   `json:"orderId"`
		OrderNumber string `json:"orderNumber"`
	}](t, w)
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, placed.OrderNumber)

	w = checkout("k-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, placed.OrderID, decode[struct {
		OrderID uint `json:"orderId"`
	}](t, w).OrderID)

	w = api.do(http.MethodGet, "/api/cart", buyer, nil)
	assert.Contains(t, w.Body.String(), `"items":[]`)

	orderPath := fmt.Sprintf("/api/orders/%d", placed.OrderID)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, orderPath, vendor, nil).Code)
	w = api.do(http.MethodGet, orderPath, buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentMethod":"Visa"`)

	w = api.do(http.MethodGet, "/api/orders/user", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), 1)

	storeOrders := fmt.Sprintf("/api/stores/%d/orders", storeID)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, storeOrders, buyer, nil).Code)
	w = api.do(http.MethodGet, storeOrders, vendor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), 2)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	buyer, _ := api.register("buyer")
	storeID := api.createStore(vendor, "Gadgets")
	p := api.createProduct(vendor, storeID, "Rare", "5.00", 1)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": p, "quantity": 2}).Code)
	w := api.do(http.MethodPost, "/api/checkout", buyer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_stock")
}

func TestAdminOrderStatus(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	buyer, _ := api.register("buyer")
	storeID := api.createStore(vendor, "Gadgets")
	p := api.createProduct(vendor, storeID, "Lamp", "15.00", 3)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": p, "quantity": 1}).Code)
	w := api.do(http.MethodPost, "/api/checkout", buyer, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode[struct {
		OrderID uint `json:"orderId"`
	}](t, w).OrderID

	path := fmt.Sprintf("/admin/orders/%d/status", orderID)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPatch, path, "", gin.H{"status": "processing"}).Code)

	w = api.do(http.MethodPatch, path, "", gin.H{"status": "shipped"}, "X-API-KEY", adminKey)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = api.do(http.MethodPatch, path, "", gin.H{"status": "teleported"}, "X-API-KEY", adminKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(http.MethodPatch, path, "", gin.H{"status": "processing"}, "X-API-KEY", adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)

	w = api.do(http.MethodPatch, fmt.Sprintf("/admin/orders/%d/payment-status", orderID), "",
		gin.H{"paymentStatus": "paid"}, "X-API-KEY", adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentStatus":"paid"`)

	w = api.do(http.MethodPatch, "/admin/orders/999/status", "", gin.H{"status": "processing"}, "X-API-KEY", adminKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogReads(t *testing.T) {
	api := newTestAPI(t)
	require.NoError(t, storage.Seed(context.Background(), api.store))

	w := api.do(http.MethodGet, "/api/products/featured?limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), 2)

	w = api.do(http.MethodGet, "/api/stores/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), storage.DefaultFeaturedStores)

	w = api.do(http.MethodGet, "/api/reviews/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), storage.DefaultFeaturedReviews)

	for _, path := range []string{
		"/api/products", "/api/products/offers", "/api/products/1", "/api/products/1/reviews",
		"/api/stores", "/api/stores/1", "/api/stores/1/products", "/api/stores/1/reviews",
		"/api/reviews", "/api/reviews/1", "/api/payment-methods", "/api/categories",
		"/api/advertisements", "/api/users/1", "/health",
	} {
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, "", nil).Code, path)
	}

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/products/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/products/abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/products?minPrice=cheap", "", nil).Code)
	assert.NotContains(t, api.do(http.MethodGet, "/api/users/1", "", nil).Body.String(), "password")
}

func TestVendorWrites(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	intruder, _ := api.register("intruder")
	storeID := api.createStore(vendor, "Gadgets")

	w := api.do(http.MethodPost, "/api/products", intruder, gin.H{"storeId": storeID, "name": "Fake", "price": "1.00"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPost, "/api/products", vendor, gin.H{"storeId": storeID, "name": "Free", "price": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p := api.createProduct(vendor, storeID, "Mouse", "12.00", 20)
	w = api.do(http.MethodPatch, fmt.Sprintf("/api/products/%d/inventory", p), vendor, gin.H{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/stores/%d/low-stock", storeID), vendor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idResponse](t, w), 1)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/stores/%d/subscribe", storeID), vendor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isSubscribed":true`)

	w = api.do(http.MethodPost, "/api/reviews", intruder, gin.H{"productId": p, "content": "ok", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(http.MethodPost, "/api/reviews", intruder, gin.H{"productId": p, "content": "ok", "rating": 4})
	require.Equal(t, http.StatusCreated, w.Code)
	reviewID := decode[idResponse](t, w).ID

	replyPath := fmt.Sprintf("/api/reviews/%d/reply", reviewID)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, replyPath, intruder, gin.H{"content": "me too"}).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPost, replyPath, vendor, gin.H{"content": "thanks"}).Code)

	productPath := fmt.Sprintf("/api/products/%d", p)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, productPath, intruder, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, productPath, vendor, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, productPath, "", nil).Code)
}

func TestAdminCatalog(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/admin/categories", "", gin.H{"name": "Books", "icon": "book"}, "X-API-KEY", adminKey)
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(http.MethodPost, "/admin/payment-methods", "", gin.H{"name": "Visa", "image": "visa.png"}, "X-API-KEY", adminKey)
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(http.MethodPost, "/admin/advertisements", "", gin.H{"title": "Sale", "image": "sale.png", "isActive": false}, "X-API-KEY", adminKey)
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodGet, "/api/advertisements", "", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = api.do(http.MethodGet, "/admin/advertisements", "", nil, "X-API-KEY", adminKey)
	assert.Len(t, decode[[]idResponse](t, w), 1)

	w = api.do(http.MethodGet, "/api/categories", "", nil)
	assert.Len(t, decode[[]idResponse](t, w), 1)
	w = api.do(http.MethodGet, "/api/payment-methods", "", nil)
	assert.Len(t, decode[[]idResponse](t, w), 1)
}

func TestProductSpreadsheets(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	source := api.createStore(vendor, "Source")
	target := api.createStore(vendor, "Target")
	api.createProduct(vendor, source, "Cable", "3.50", 20)
	api.createProduct(vendor, source, "Adapter", "8.00", 5)

	w := api.do(http.MethodGet, fmt.Sprintf("/api/stores/%d/products/export", source), vendor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	exported := w.Body.Bytes()

	sheet, err := xlsx.OpenBinary(exported)
	require.NoError(t, err)
	require.Len(t, sheet.Sheets[0].Rows, 3)
	assert.Equal(t, "ID", sheet.Sheets[0].Rows[0].Cells[0].String())
	assert.Equal(t, "Cable", sheet.Sheets[0].Rows[1].Cells[1].String())

	upload := func(storeID uint, token string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "products.xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/stores/%d/products/import", storeID), &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return api.request(req)
	}

	w = upload(target, vendor, exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"created_count":2`)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/stores/%d/products", target), "", nil)
	assert.Len(t, decode[[]idResponse](t, w), 2)

	outsider, _ := api.register("outsider")
	assert.Equal(t, http.StatusForbidden, upload(target, outsider, exported).Code)
	assert.Equal(t, http.StatusBadRequest, upload(target, vendor, []byte("not a spreadsheet")).Code)
}

func TestAddItemDefaultsToOneUnit(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	buyer, _ := api.register("buyer")
	storeID := api.createStore(vendor, "Gadgets")
	p := api.createProduct(vendor, storeID, "Cable", "5.00", 10)

	w := api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": p})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[struct {
		Quantity int `json:"quantity"`
	}](t, w).Quantity)

	w = api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": p, "quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		ItemCount int `json:"itemCount"`
	}](t, w).ItemCount)
}

func TestCheckoutChunkedBody(t *testing.T) {
	api := newTestAPI(t)
	vendor, _ := api.register("vendor")
	buyer, _ := api.register("buyer")
	storeID := api.createStore(vendor, "Gadgets")
	p := api.createProduct(vendor, storeID, "Cable", "5.00", 10)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/cart/items", buyer, gin.H{"productId": p}).Code)

	// a reader of unknown length makes the request chunked
	body := io.MultiReader(strings.NewReader(`{"shippingAddress":"Taiz","paymentMethod":"Cash"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", body)
	require.EqualValues(t, -1, req.ContentLength)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buyer)

	w := api.request(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode[struct {
		OrderID uint `json:"orderId"`
	}](t, w).OrderID

	w = api.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), buyer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"shippingAddress":"Taiz"`)
	assert.Contains(t, w.Body.String(), `"paymentMethod":"Cash"`)

	// a malformed body is still rejected
	req = httptest.NewRequest(http.MethodPost, "/api/checkout", io.MultiReader(strings.NewReader(`{"notes":`)))
	req.Header.Set("Authorization", "Bearer "+buyer)
	assert.Equal(t, http.StatusBadRequest, api.request(req).Code)
}
