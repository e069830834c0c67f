// Package storage holds the catalog, cart and order records behind a single
// interface with an in-memory and a GORM implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yemenmarket/marketplace-api/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Default limits for the featured queries.
const (
	DefaultFeaturedStores   = 4
	DefaultFeaturedProducts = 5
	DefaultFeaturedReviews  = 3
)

type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	RecordLogin(ctx context.Context, id uint, at time.Time) error

	// Stores
	CreateStore(ctx context.Context, store *models.Store) error
	GetStore(ctx context.Context, id uint) (*models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	FeaturedStores(ctx context.Context, limit int) ([]models.Store, error)
	UpdateStoreSubscription(ctx context.Context, id uint, subscribed bool, expiresAt time.Time) (*models.Store, error)

	// Products
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error)
	DiscountedProducts(ctx context.Context) ([]models.Product, error)
	LowStockProducts(ctx context.Context, storeID uint) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error

	// Reviews
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id uint) (*models.Review, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
	ProductReviews(ctx context.Context, productID uint) ([]models.Review, error)
	StoreReviews(ctx context.Context, storeID uint) ([]models.Review, error)
	FeaturedReviews(ctx context.Context, limit int) ([]models.Review, error)
	ReplyToReview(ctx context.Context, id uint, content string, at time.Time) (*models.Review, error)

	// Payment methods, categories, advertisements
	CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateAdvertisement(ctx context.Context, ad *models.Advertisement) error
	GetAdvertisement(ctx context.Context, id uint) (*models.Advertisement, error)
	ListAdvertisements(ctx context.Context) ([]models.Advertisement, error)
	ActiveAdvertisements(ctx context.Context) ([]models.Advertisement, error)

	// Carts. GetCartByUser returns ErrNotFound when the user has no cart yet.
	GetCartByUser(ctx context.Context, userID uint) (*models.Cart, error)
	GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error)
	GetCartItem(ctx context.Context, id uint) (*models.CartItem, error)
	AddCartItem(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) (*models.CartItem, error)
	RemoveCartItem(ctx context.Context, id uint) error
	ClearCart(ctx context.Context, cartID uint) error

	// Orders
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error)
	UserOrders(ctx context.Context, userID uint) ([]models.Order, error)
	StoreOrderItems(ctx context.Context, storeID uint) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Order, error)
	GetOrderItem(ctx context.Context, id uint) (*models.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderItem, error)

	// InTx runs fn against a transactional view of the store. Either every
	// write made through tx is kept or none is. Reads of carts and products
	// through tx lock the rows for the rest of the transaction.
	InTx(ctx context.Context, fn func(tx Storage) error) error
}

func featuredLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
