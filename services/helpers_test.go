package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yemenmarket/marketplace-api/cache"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	vendorID   uint = 100
	customerID uint = 1
	otherID    uint = 2
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store   storage.Storage
	carts   *CartService
	orders  *OrderService
	catalog *CatalogService
	events  *recorder
	shop    *models.Store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteStorage(t *testing.T) *storage.GormStorage {
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

	s := storage.NewGormStorage(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

// eachBackend runs fn against every storage implementation.
func eachBackend(t *testing.T, fn func(t *testing.T, s storage.Storage)) {
	t.Run("memory", func(t *testing.T) { fn(t, storage.NewMemStorage()) })
	t.Run("gorm", func(t *testing.T) { fn(t, newSQLiteStorage(t)) })
}

// eachStorage runs fn with a fresh fixture on every storage implementation.
func eachStorage(t *testing.T, fn func(t *testing.T, f *fixture)) {
	eachBackend(t, func(t *testing.T, s storage.Storage) {
		fn(t, newFixtureWith(t, s, cache.Noop{}))
	})
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, storage.NewMemStorage(), cache.Noop{})
}

func newFixtureWith(t *testing.T, store storage.Storage, c cache.CartCache) *fixture {
	t.Helper()
	log := discardLogger()
	rec := &recorder{}
	carts := NewCartService(log, store, c, DefaultPricing())
	f := &fixture{
		store:   store,
		carts:   carts,
		orders:  NewOrderService(log, store, carts, rec, DefaultPricing()),
		catalog: NewCatalogService(log, store),
		events:  rec,
		shop:    &models.Store{Name: "Electronics", Description: "gadgets", Category: "electronics"},
	}
	require.NoError(t, f.catalog.CreateStore(context.Background(), vendorID, f.shop))
	return f
}

func (f *fixture) product(t *testing.T, name, price string, quantity int) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), vendorID, f.shop.ID, ProductInput{
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return p
}

// exampleCart fills the customer's cart with A (49.99 x2) and B (24.99 x1).
func (f *fixture) exampleCart(t *testing.T) (a, b *models.Product) {
	t.Helper()
	ctx := context.Background()
	a = f.product(t, "A", "49.99", 10)
	b = f.product(t, "B", "24.99", 10)
	_, err := f.carts.AddItem(ctx, customerID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, customerID, b.ID, 1)
	require.NoError(t, err)
	return a, b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
