package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/cache"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
	"golang.org/x/sync/singleflight"
)

// CartLine is one priced cart item.
type CartLine struct {
	CartItemID   uint            `json:"cartItemId"`
	Product      models.Product  `json:"product"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
}

// CartView is the priced cart returned to clients. Amounts are rounded to
// cents; CartID is 0 when the user has never added anything.
type CartView struct {
	CartID    uint       `json:"cartId"`
	UserID    uint       `json:"userId"`
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"itemCount"`
	Totals
}

type CartService struct {
	log     *slog.Logger
	store   storage.Storage
	cache   cache.CartCache
	pricing Pricing
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(log *slog.Logger, store storage.Storage, c cache.CartCache, pricing Pricing) *CartService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CartService{
		log:     log,
		store:   store,
		cache:   c,
		pricing: pricing,
	}
}

// GetCart returns the priced cart. A user without a cart gets an empty view.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

func (s *CartService) loadCart(ctx context.Context, userID uint) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", "user_id", userID, "err", err)
		}

		// the version is read before the cart so a concurrent invalidation
		// makes the fill below a no-op
		version, verErr := s.cache.Version(ctx, userID)
		if verErr != nil {
			s.log.Warn("cart cache version failed", "user_id", userID, "err", verErr)
		}

		cart, err = s.store.GetCartByUser(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			now := time.Now()
			return &models.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		if verErr == nil {
			err := s.cache.Set(ctx, userID, version, cart)
			if err != nil && !errors.Is(err, cache.ErrStale) {
				s.log.Warn("cart cache set failed", "user_id", userID, "err", err)
			}
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// price joins every item with its live product. Items whose product has
// disappeared are left out.
func (s *CartService) price(ctx context.Context, cart *models.Cart) (*CartView, error) {
	lines, subtotal, err := priceItems(ctx, s.store, cart.Items)
	if err != nil {
		return nil, err
	}
	view := &CartView{
		CartID: cart.ID,
		UserID: cart.UserID,
		Items:  lines,
		Totals: s.pricing.Totals(subtotal).Rounded(),
	}
	for _, l := range lines {
		view.ItemCount += l.Quantity
	}
	return view, nil
}

func priceItems(ctx context.Context, store storage.Storage, items []models.CartItem) ([]CartLine, decimal.Decimal, error) {
	lines := make([]CartLine, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		product, err := store.GetProduct(ctx, item.ProductID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, decimal.Zero, err
		}
		line := CartLine{
			CartItemID:   item.ID,
			Product:      *product,
			Quantity:     item.Quantity,
			LineSubtotal: product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		subtotal = subtotal.Add(line.LineSubtotal)
		lines = append(lines, line)
	}
	return lines, subtotal, nil
}

// AddItem puts quantity units of a product into the user's cart, creating
// the cart on first use. Adding a product already in the cart increments it.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidArgument)
	}

	var item *models.CartItem
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		cart, err := tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		item, err = tx.AddCartItem(ctx, cart.ID, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return item, nil
}

// UpdateQuantity sets the quantity of one of the user's cart items. Items
// that belong to another user are reported as not found.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, cartItemID uint, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidArgument)
	}

	var item *models.CartItem
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		if err := ownItem(ctx, tx, userID, cartItemID); err != nil {
			return err
		}
		var err error
		item, err = tx.UpdateCartItemQuantity(ctx, cartItemID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return item, nil
}

// RemoveItem deletes one of the user's cart items. Removing an item that is
// already gone, or is not the user's, does nothing.
func (s *CartService) RemoveItem(ctx context.Context, userID, cartItemID uint) error {
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		if err := ownItem(ctx, tx, userID, cartItemID); err != nil {
			return err
		}
		return tx.RemoveCartItem(ctx, cartItemID)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// ClearCart empties the user's cart and keeps the cart itself.
func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	cart, err := s.store.GetCartByUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.ClearCart(ctx, cart.ID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func ownItem(ctx context.Context, tx storage.Storage, userID, cartItemID uint) error {
	item, err := tx.GetCartItem(ctx, cartItemID)
	if err != nil {
		return err
	}
	cart, err := tx.GetCartByUser(ctx, userID)
	if err != nil {
		return err
	}
	if item.CartID != cart.ID {
		return fmt.Errorf("cart item %d: %w", cartItemID, storage.ErrNotFound)
	}
	return nil
}

func (s *CartService) invalidate(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate failed", "user_id", userID, "err", err)
	}
}
