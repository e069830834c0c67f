package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
)

type CheckoutRequest struct {
	PaymentMethod   string
	ShippingAddress string
	ShippingMethod  string
	Notes           string
	// IdempotencyKey makes retries of the same checkout return the first
	// order instead of creating another one.
	IdempotencyKey string
}

type OrderService struct {
	log       *slog.Logger
	store     storage.Storage
	carts     *CartService
	publisher events.Publisher
	pricing   Pricing
	now       func() time.Time
}

func NewOrderService(log *slog.Logger, store storage.Storage, carts *CartService, publisher events.Publisher, pricing Pricing) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &OrderService{
		log:       log,
		store:     store,
		carts:     carts,
		publisher: publisher,
		pricing:   pricing,
		now:       time.Now,
	}
}

// generateOrderNumber builds a readable, practically unique reference,
// e.g. ORD-20250908130500-1F3A9C2E.
func generateOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102150405") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

// Checkout turns the user's cart into an order. The order, its items, the
// stock changes and the emptied cart are committed together. The second
// return value reports whether an earlier order was replayed for the same
// idempotency key.
func (s *OrderService) Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*models.Order, bool, error) {
	var key *string
	if k := strings.TrimSpace(req.IdempotencyKey); k != "" {
		key = &k
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, userID, k)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, false, err
		}
	}

	var (
		order    *models.Order
		replayed bool
	)
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		if key != nil {
			// a retry may have committed while this one waited for the lock
			existing, err := tx.GetOrderByIdempotencyKey(ctx, userID, *key)
			if err == nil {
				order, replayed = existing, true
				return nil
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}

		cart, err := tx.GetCartByUser(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		subtotal := decimal.Zero
		for _, ci := range cart.Items {
			product, err := tx.GetProduct(ctx, ci.ProductID)
			if err != nil {
				return err
			}
			if product.Quantity < ci.Quantity {
				return fmt.Errorf("%s: %d requested, %d available: %w",
					product.Name, ci.Quantity, product.Quantity, ErrInsufficientStock)
			}

			product.Quantity -= ci.Quantity
			product.SalesCount += ci.Quantity
			product.IsInStock = product.Quantity > 0
			if err := tx.UpdateProduct(ctx, product); err != nil {
				return err
			}

			lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				StoreID:     product.StoreID,
				ProductName: product.Name,
				Quantity:    ci.Quantity,
				Price:       product.Price,
				Subtotal:    lineSubtotal,
				Status:      models.OrderStatusPending,
			})
		}

		totals := s.pricing.Totals(subtotal).Rounded()
		order = &models.Order{
			UserID:          userID,
			OrderNumber:     generateOrderNumber(s.now()),
			IdempotencyKey:  key,
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			TaxAmount:       totals.Tax,
			TotalAmount:     totals.Total,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			ShippingMethod:  req.ShippingMethod,
			Notes:           req.Notes,
			Items:           items,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		// a concurrent retry with the same key won the race
		if key != nil && (errors.Is(err, storage.ErrConflict) || errors.Is(err, ErrEmptyCart)) {
			if existing, getErr := s.store.GetOrderByIdempotencyKey(ctx, userID, *key); getErr == nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}
	if replayed {
		return order, true, nil
	}

	s.carts.invalidate(userID)
	s.log.Info("order placed", "order_id", order.ID, "order_number", order.OrderNumber,
		"user_id", userID, "total", order.TotalAmount.StringFixed(2))
	s.publish(ctx, events.OrderCreated, *order)
	return order, false, nil
}

func (s *OrderService) publish(ctx context.Context, t events.Type, order models.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(t, order)); err != nil {
		s.log.Warn("order event publish failed", "type", t, "order_id", order.ID, "err", err)
	}
}

// UserOrders lists the user's orders, newest first.
func (s *OrderService) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.store.UserOrders(ctx, userID)
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", orderID, storage.ErrNotFound)
	}
	return order, nil
}

// StoreOrders lists the order items sold by a store. Only the store owner
// may see them.
func (s *OrderService) StoreOrders(ctx context.Context, userID, storeID uint) ([]models.OrderItem, error) {
	store, err := s.store.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, fmt.Errorf("store %d: %w", storeID, ErrForbidden)
	}
	return s.store.StoreOrderItems(ctx, storeID)
}

// UpdateStatus moves an order one step through its lifecycle. Cancelling
// returns the stock of every item that has not shipped and cancels it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", err, status, ErrInvalidArgument)
	}

	var order *models.Order
	err = s.store.InTx(ctx, func(tx storage.Storage) error {
		current, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("order %d: %s to %s: %w", orderID, current.Status, next, ErrInvalidTransition)
		}
		if next == models.OrderStatusCancelled {
			if err := restock(ctx, tx, current.Items); err != nil {
				return err
			}
		}
		order, err = tx.UpdateOrderStatus(ctx, orderID, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated", "order_id", orderID, "status", next)
	s.publish(ctx, events.OrderStatusChanged, *order)
	return order, nil
}

// restock cancels the given items and returns their stock. Each item is read
// again under lock, so an item cancelled by a concurrent transaction is
// never restocked twice.
func restock(ctx context.Context, tx storage.Storage, items []models.OrderItem) error {
	for _, stale := range items {
		item, err := tx.GetOrderItem(ctx, stale.ID)
		if err != nil {
			return err
		}
		if !item.Status.CanTransitionTo(models.OrderStatusCancelled) {
			continue
		}
		product, err := tx.GetProduct(ctx, item.ProductID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// deleted products have nothing to return stock to
		case err != nil:
			return err
		default:
			product.Quantity += item.Quantity
			product.SalesCount = max(product.SalesCount-item.Quantity, 0)
			product.IsInStock = product.Quantity > 0
			if err := tx.UpdateProduct(ctx, product); err != nil {
				return err
			}
		}
		if _, err := tx.UpdateOrderItemStatus(ctx, item.ID, models.OrderStatusCancelled); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePaymentStatus records the payment outcome of an order.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	next, err := models.ParsePaymentStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", err, status, ErrInvalidArgument)
	}
	order, err := s.store.UpdateOrderPaymentStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}

	s.log.Info("order payment status updated", "order_id", orderID, "payment_status", next)
	s.publish(ctx, events.OrderPaymentStatusChanged, *order)
	return order, nil
}

// UpdateItemStatus moves a single order item through the same lifecycle as
// orders, so a store can ship its part of a mixed order.
func (s *OrderService) UpdateItemStatus(ctx context.Context, itemID uint, status string) (*models.OrderItem, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", err, status, ErrInvalidArgument)
	}

	found, err := s.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var item *models.OrderItem
	err = s.store.InTx(ctx, func(tx storage.Storage) error {
		// the order is locked before the item, in the same order UpdateStatus
		// takes them
		if _, err := tx.GetOrder(ctx, found.OrderID); err != nil {
			return err
		}
		current, err := tx.GetOrderItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("order item %d: %s to %s: %w", itemID, current.Status, next, ErrInvalidTransition)
		}
		if next == models.OrderStatusCancelled {
			return restock(ctx, tx, []models.OrderItem{*current})
		}
		item, err = tx.UpdateOrderItemStatus(ctx, itemID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		if item, err = s.store.GetOrderItem(ctx, itemID); err != nil {
			return nil, err
		}
	}

	if order, err := s.store.GetOrder(ctx, item.OrderID); err == nil {
		s.publish(ctx, events.OrderItemStatusChanged, *order)
	}
	return item, nil
}
