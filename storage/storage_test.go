package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yemenmarket/marketplace-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteStorage(t *testing.T) *GormStorage {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "market.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := NewGormStorage(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

// eachStorage runs fn against every implementation.
func eachStorage(t *testing.T, fn func(t *testing.T, s Storage)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemStorage()) })
	t.Run("gorm", func(t *testing.T) { fn(t, newSQLiteStorage(t)) })
}

func mustStore(t *testing.T, s Storage, name string, rating float64) *models.Store {
	t.Helper()
	st := &models.Store{UserID: 1, Name: name, Description: name + " store", Category: "electronics", Rating: rating}
	require.NoError(t, s.CreateStore(context.Background(), st))
	return st
}

func mustProduct(t *testing.T, s Storage, storeID uint, name, price string, sales int) *models.Product {
	t.Helper()
	p := &models.Product{
		StoreID:           storeID,
		Name:              name,
		Description:       name,
		Price:             decimal.RequireFromString(price),
		Category:          "electronics",
		Quantity:          20,
		LowStockThreshold: models.DefaultLowStockThreshold,
		IsInStock:         true,
		SalesCount:        sales,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func TestStorage_Users(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		u := &models.User{Username: "mohammed", Email: "mohammed@example.com", Name: "Mohammed", PasswordHash: "x"}
		require.NoError(t, s.CreateUser(ctx, u))
		assert.NotZero(t, u.ID)
		assert.Equal(t, models.RoleUser, u.Role)
		assert.Equal(t, "standard", u.MembershipTier)

		dup := &models.User{Username: "Mohammed", Email: "other@example.com", Name: "Other", PasswordHash: "x"}
		assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrConflict)

		got, err := s.GetUserByUsername(ctx, "MOHAMMED")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.GetUser(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_ProductCountTracksCreateAndDelete(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		st := mustStore(t, s, "Gadgets", 4.5)
		p1 := mustProduct(t, s, st.ID, "Charger", "24.99", 0)
		mustProduct(t, s, st.ID, "Cable", "5.00", 0)

		got, err := s.GetStore(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ProductCount)

		cart, err := s.GetOrCreateCart(ctx, 7)
		require.NoError(t, err)
		_, err = s.AddCartItem(ctx, cart.ID, p1.ID, 1)
		require.NoError(t, err)

		require.NoError(t, s.DeleteProduct(ctx, p1.ID))

		got, err = s.GetStore(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ProductCount)

		cart, err = s.GetCartByUser(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, cart.Items, "deleted product must leave every cart")

		_, err = s.GetProduct(ctx, p1.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteProduct(ctx, p1.ID), ErrNotFound)
	})
}

func TestStorage_CreateProductUnknownStore(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		p := &models.Product{StoreID: 42, Name: "Ghost", Description: "none", Price: decimal.NewFromInt(1)}
		assert.ErrorIs(t, s.CreateProduct(context.Background(), p), ErrNotFound)
	})
}

func TestStorage_FeaturedProductsStableOrder(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		st := mustStore(t, s, "Electronics", 4.8)
		var ids []uint
		for i, sales := range []int{10, 30, 30, 5, 20} {
			p := mustProduct(t, s, st.ID, string(rune('A'+i)), "10.00", sales)
			ids = append(ids, p.ID)
		}

		top, err := s.FeaturedProducts(ctx, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, []uint{ids[1], ids[2], ids[4]}, []uint{top[0].ID, top[1].ID, top[2].ID})

		all, err := s.FeaturedProducts(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, DefaultFeaturedProducts)
	})
}

func TestStorage_FeaturedStoresAndReviews(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		for i, rating := range []float64{4.8, 4.5, 4.7, 4.9, 3.0} {
			mustStore(t, s, string(rune('a'+i)), rating)
		}
		stores, err := s.FeaturedStores(ctx, -1)
		require.NoError(t, err)
		require.Len(t, stores, DefaultFeaturedStores)
		assert.Equal(t, 4.9, stores[0].Rating)
		assert.Equal(t, 4.5, stores[3].Rating)

		for _, likes := range []int{24, 18, 42, 1} {
			require.NoError(t, s.CreateReview(ctx, &models.Review{UserID: 1, Content: "ok", Rating: 5, Likes: likes}))
		}
		reviews, err := s.FeaturedReviews(ctx, 0)
		require.NoError(t, err)
		require.Len(t, reviews, DefaultFeaturedReviews)
		assert.Equal(t, []int{42, 24, 18}, []int{reviews[0].Likes, reviews[1].Likes, reviews[2].Likes})
	})
}

func TestStorage_ListProductsFilters(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		st1 := mustStore(t, s, "One", 1)
		st2 := mustStore(t, s, "Two", 1)
		mustProduct(t, s, st1.ID, "Smart Watch", "89.99", 0)
		mustProduct(t, s, st1.ID, "Backpack", "34.99", 0)
		mustProduct(t, s, st2.ID, "Smart Light", "29.99", 0)

		byStore, err := s.ListProducts(ctx, models.ProductFilter{StoreID: st1.ID})
		require.NoError(t, err)
		assert.Len(t, byStore, 2)

		smart, err := s.ListProducts(ctx, models.ProductFilter{Search: "smart"})
		require.NoError(t, err)
		assert.Len(t, smart, 2)

		cheap, err := s.ListProducts(ctx, models.ProductFilter{
			MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(35)),
			MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(30)),
		})
		require.NoError(t, err)
		require.Len(t, cheap, 1)
		assert.Equal(t, "Backpack", cheap[0].Name)
	})
}

func TestStorage_LowStockAndDiscounted(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		st := mustStore(t, s, "Health", 4.9)
		p := mustProduct(t, s, st.ID, "Vitamins", "12.00", 0)
		mustProduct(t, s, st.ID, "Soap", "2.00", 0)

		p.Quantity = 3
		p.OldPrice = decimal.NewNullDecimal(decimal.RequireFromString("15.00"))
		require.NoError(t, s.UpdateProduct(ctx, p))

		low, err := s.LowStockProducts(ctx, st.ID)
		require.NoError(t, err)
		require.Len(t, low, 1)
		assert.Equal(t, p.ID, low[0].ID)

		offers, err := s.DiscountedProducts(ctx)
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.True(t, offers[0].OldPrice.Decimal.Equal(decimal.RequireFromString("15.00")))
	})
}

func TestStorage_CartItems(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		st := mustStore(t, s, "Fashion", 4.5)
		p := mustProduct(t, s, st.ID, "Backpack", "34.99", 0)

		_, err := s.GetCartByUser(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		cart, err := s.GetOrCreateCart(ctx, 1)
		require.NoError(t, err)
		again, err := s.GetOrCreateCart(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, again.ID)

		first, err := s.AddCartItem(ctx, cart.ID, p.ID, 1)
		require.NoError(t, err)
		second, err := s.AddCartItem(ctx, cart.ID, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 3, second.Quantity)

		_, err = s.AddCartItem(ctx, cart.ID, 999, 1)
		assert.ErrorIs(t, err, ErrNotFound)

		updated, err := s.UpdateCartItemQuantity(ctx, first.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Quantity)

		_, err = s.UpdateCartItemQuantity(ctx, 999, 5)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.RemoveCartItem(ctx, 999))
		require.NoError(t, s.RemoveCartItem(ctx, first.ID))
		require.NoError(t, s.RemoveCartItem(ctx, first.ID))

		_, err = s.AddCartItem(ctx, cart.ID, p.ID, 1)
		require.NoError(t, err)
		require.NoError(t, s.ClearCart(ctx, cart.ID))
		cart, err = s.GetCartByUser(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})
}

func TestStorage_Orders(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		key := "checkout-1"
		order := &models.Order{
			UserID:         3,
			OrderNumber:    "ORD-20240101120000-ABCDEF12",
			IdempotencyKey: &key,
			Subtotal:       decimal.RequireFromString("20.00"),
			ShippingCost:   decimal.RequireFromString("10.00"),
			TaxAmount:      decimal.RequireFromString("1.00"),
			TotalAmount:    decimal.RequireFromString("31.00"),
			Status:         models.OrderStatusPending,
			PaymentStatus:  models.PaymentStatusPending,
			Items: []models.OrderItem{
				{ProductID: 1, StoreID: 1, ProductName: "A", Quantity: 2, Price: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00"), Status: models.OrderStatusPending},
			},
		}
		require.NoError(t, s.CreateOrder(ctx, order))
		require.NotZero(t, order.ID)

		byNumber, err := s.GetOrderByNumber(ctx, order.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, order.ID, byNumber.ID)
		require.Len(t, byNumber.Items, 1)
		assert.True(t, byNumber.Items[0].Price.Equal(decimal.NewFromInt(10)))

		byKey, err := s.GetOrderByIdempotencyKey(ctx, 3, key)
		require.NoError(t, err)
		assert.Equal(t, order.ID, byKey.ID)

		_, err = s.GetOrderByIdempotencyKey(ctx, 4, key)
		assert.ErrorIs(t, err, ErrNotFound)

		dup := &models.Order{UserID: 3, OrderNumber: order.OrderNumber, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
		assert.ErrorIs(t, s.CreateOrder(ctx, dup), ErrConflict)

		second := &models.Order{UserID: 3, OrderNumber: "ORD-2", Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
		require.NoError(t, s.CreateOrder(ctx, second))

		orders, err := s.UserOrders(ctx, 3)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)

		shipped, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, shipped.Status)

		paid, err := s.UpdateOrderPaymentStatus(ctx, order.ID, models.PaymentStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

		items, err := s.StoreOrderItems(ctx, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)

		item, err := s.UpdateOrderItemStatus(ctx, items[0].ID, models.OrderStatusProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusProcessing, item.Status)

		_, err = s.UpdateOrderStatus(ctx, 999, models.OrderStatusShipped)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_InTxRollsBack(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		boom := errors.New("boom")
		err := s.InTx(ctx, func(tx Storage) error {
			require.NoError(t, tx.CreateCategory(ctx, &models.Category{Name: "Toys", Icon: "gamepad", IsActive: true}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		categories, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)

		require.NoError(t, s.InTx(ctx, func(tx Storage) error {
			return tx.CreateCategory(ctx, &models.Category{Name: "Toys", Icon: "gamepad", IsActive: true})
		}))
		categories, err = s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 1)
	})
}

func TestStorage_ReplyAndSubscription(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		r := &models.Review{UserID: 1, Content: "great", Rating: 5}
		require.NoError(t, s.CreateReview(ctx, r))

		replied, err := s.ReplyToReview(ctx, r.ID, "thanks", r.CreatedAt)
		require.NoError(t, err)
		assert.True(t, replied.IsReplied)
		assert.Equal(t, "thanks", replied.ReplyContent)

		st := mustStore(t, s, "Sub", 1)
		updated, err := s.UpdateStoreSubscription(ctx, st.ID, true, r.CreatedAt)
		require.NoError(t, err)
		assert.True(t, updated.IsSubscribed)
		require.NotNil(t, updated.SubscriptionExpiresAt)

		_, err = s.UpdateStoreSubscription(ctx, 999, true, r.CreatedAt)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSeed(t *testing.T) {
	eachStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()
		require.NoError(t, Seed(ctx, s))
		require.NoError(t, Seed(ctx, s))

		stores, err := s.ListStores(ctx)
		require.NoError(t, err)
		assert.Len(t, stores, 4)
		assert.Equal(t, 2, stores[0].ProductCount)

		products, err := s.ListProducts(ctx, models.ProductFilter{})
		require.NoError(t, err)
		assert.Len(t, products, 5)

		ads, err := s.ActiveAdvertisements(ctx)
		require.NoError(t, err)
		assert.Len(t, ads, 3)

		pms, err := s.ListPaymentMethods(ctx)
		require.NoError(t, err)
		assert.Len(t, pms, 5)

		featured, err := s.FeaturedReviews(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 42, featured[0].Likes)
	})
}
