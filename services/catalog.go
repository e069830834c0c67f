package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
)

const SubscriptionPeriod = 30 * 24 * time.Hour

// ProductInput carries the vendor-editable product fields. Nil pointers
// take the defaults.
type ProductInput struct {
	Name              string
	Description       string
	Image             string
	Category          string
	SKU               string
	Price             decimal.Decimal
	OldPrice          decimal.NullDecimal
	Quantity          int
	LowStockThreshold *int
	IsInStock         *bool
	IsNew             bool
	HasDiscount       bool
	IsBestseller      bool
	Weight            float64
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("product name is required: %w", ErrInvalidArgument)
	case !in.Price.IsPositive():
		return fmt.Errorf("price must be greater than 0: %w", ErrInvalidArgument)
	case in.OldPrice.Valid && !in.OldPrice.Decimal.GreaterThan(in.Price):
		return fmt.Errorf("old price must be greater than price: %w", ErrInvalidArgument)
	case in.Quantity < 0:
		return fmt.Errorf("quantity must not be negative: %w", ErrInvalidArgument)
	case in.LowStockThreshold != nil && *in.LowStockThreshold < 0:
		return fmt.Errorf("low stock threshold must not be negative: %w", ErrInvalidArgument)
	}
	return nil
}

// apply copies the input onto p, filling defaults for omitted fields.
func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Image = in.Image
	p.Category = in.Category
	p.SKU = in.SKU
	p.Price = in.Price.Round(2)
	p.OldPrice = in.OldPrice
	if p.OldPrice.Valid {
		p.OldPrice.Decimal = p.OldPrice.Decimal.Round(2)
	}
	p.Quantity = in.Quantity
	p.LowStockThreshold = models.DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	p.IsInStock = in.Quantity > 0
	if in.IsInStock != nil {
		p.IsInStock = *in.IsInStock
	}
	p.IsNew = in.IsNew
	p.HasDiscount = in.HasDiscount || in.OldPrice.Valid
	p.IsBestseller = in.IsBestseller
	p.Weight = in.Weight
}

type CatalogService struct {
	log   *slog.Logger
	store storage.Storage
	now   func() time.Time
}

func NewCatalogService(log *slog.Logger, store storage.Storage) *CatalogService {
	return &CatalogService{log: log, store: store, now: time.Now}
}

func ownStore(ctx context.Context, st storage.Storage, userID, storeID uint) (*models.Store, error) {
	store, err := st.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, fmt.Errorf("store %d: %w", storeID, ErrForbidden)
	}
	return store, nil
}

// ──────────────── Stores ────────────────

func (s *CatalogService) CreateStore(ctx context.Context, ownerID uint, store *models.Store) error {
	store.Name = strings.TrimSpace(store.Name)
	if store.Name == "" {
		return fmt.Errorf("store name is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(store.Category) == "" {
		return fmt.Errorf("store category is required: %w", ErrInvalidArgument)
	}
	store.UserID = ownerID
	store.IsSubscribed = false
	store.SubscriptionExpiresAt = nil
	store.Rating = 0
	store.ProductCount = 0
	if err := s.store.CreateStore(ctx, store); err != nil {
		return err
	}
	s.log.Info("store created", "store_id", store.ID, "user_id", ownerID)
	return nil
}

// Subscribe activates the store's subscription for the next 30 days.
func (s *CatalogService) Subscribe(ctx context.Context, userID, storeID uint) (*models.Store, error) {
	if _, err := ownStore(ctx, s.store, userID, storeID); err != nil {
		return nil, err
	}
	return s.store.UpdateStoreSubscription(ctx, storeID, true, s.now().Add(SubscriptionPeriod))
}

func (s *CatalogService) LowStock(ctx context.Context, userID, storeID uint) ([]models.Product, error) {
	if _, err := ownStore(ctx, s.store, userID, storeID); err != nil {
		return nil, err
	}
	return s.store.LowStockProducts(ctx, storeID)
}

// ──────────────── Products ────────────────

// StoreInventory lists every product of a store for its owner.
func (s *CatalogService) StoreInventory(ctx context.Context, userID, storeID uint) ([]models.Product, error) {
	if _, err := ownStore(ctx, s.store, userID, storeID); err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx, models.ProductFilter{StoreID: storeID})
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID, storeID uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := ownStore(ctx, s.store, userID, storeID); err != nil {
		return nil, err
	}
	p := &models.Product{StoreID: storeID}
	in.apply(p)
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportProducts creates every product in one transaction; one invalid row
// rejects the whole batch.
func (s *CatalogService) ImportProducts(ctx context.Context, userID, storeID uint, inputs []ProductInput) ([]models.Product, error) {
	for i, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if _, err := ownStore(ctx, s.store, userID, storeID); err != nil {
		return nil, err
	}

	created := make([]models.Product, 0, len(inputs))
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		for _, in := range inputs {
			p := &models.Product{StoreID: storeID}
			in.apply(p)
			if err := tx.CreateProduct(ctx, p); err != nil {
				return err
			}
			created = append(created, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("products imported", "store_id", storeID, "count", len(created))
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, userID, productID uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p *models.Product
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		if p, err = tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		if _, err := ownStore(ctx, tx, userID, p.StoreID); err != nil {
			return err
		}
		in.apply(p)
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInventory sets the stock level and, when given, the low stock
// threshold. The in-stock flag follows the quantity.
func (s *CatalogService) UpdateInventory(ctx context.Context, userID, productID uint, quantity int, threshold *int) (*models.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrInvalidArgument)
	}
	if threshold != nil && *threshold < 0 {
		return nil, fmt.Errorf("low stock threshold must not be negative: %w", ErrInvalidArgument)
	}
	var p *models.Product
	err := s.store.InTx(ctx, func(tx storage.Storage) error {
		var err error
		if p, err = tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		if _, err := ownStore(ctx, tx, userID, p.StoreID); err != nil {
			return err
		}
		p.Quantity = quantity
		if threshold != nil {
			p.LowStockThreshold = *threshold
		}
		p.IsInStock = quantity > 0
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if p.IsLowStock() {
		s.log.Info("product low on stock", "product_id", p.ID, "store_id", p.StoreID, "quantity", p.Quantity)
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, userID, productID uint) error {
	return s.store.InTx(ctx, func(tx storage.Storage) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := ownStore(ctx, tx, userID, p.StoreID); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, productID)
	})
}

// ──────────────── Reviews ────────────────

// CreateReview stores a review by userID. A review of a product is filed
// under the product's store and marked verified when the user has ordered
// the product.
func (s *CatalogService) CreateReview(ctx context.Context, userID uint, r *models.Review) error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return fmt.Errorf("review content is required: %w", ErrInvalidArgument)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5: %w", ErrInvalidArgument)
	}

	r.UserID = userID
	r.Likes, r.Comments = 0, 0
	r.IsReplied, r.ReplyContent, r.ReplyCreatedAt = false, "", nil
	r.VerifiedPurchase = false
	r.CreatedAt = s.now()

	if r.ProductID != 0 {
		p, err := s.store.GetProduct(ctx, r.ProductID)
		if err != nil {
			return err
		}
		r.StoreID = p.StoreID

		orders, err := s.store.UserOrders(ctx, userID)
		if err != nil {
			return err
		}
		r.VerifiedPurchase = orderedProduct(orders, r.ProductID)
	} else if r.StoreID != 0 {
		if _, err := s.store.GetStore(ctx, r.StoreID); err != nil {
			return err
		}
	}
	return s.store.CreateReview(ctx, r)
}

func orderedProduct(orders []models.Order, productID uint) bool {
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

// ReplyToReview lets the owner of the reviewed store answer a review.
func (s *CatalogService) ReplyToReview(ctx context.Context, userID, reviewID uint, content string) (*models.Review, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("reply content is required: %w", ErrInvalidArgument)
	}
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.StoreID == 0 {
		return nil, fmt.Errorf("review %d is not about a store: %w", reviewID, ErrForbidden)
	}
	if _, err := ownStore(ctx, s.store, userID, r.StoreID); err != nil {
		return nil, err
	}
	return s.store.ReplyToReview(ctx, reviewID, content, s.now())
}

// ──────────────── Admin catalog ────────────────

func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Icon) == "" {
		return fmt.Errorf("category name and icon are required: %w", ErrInvalidArgument)
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *CatalogService) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	if strings.TrimSpace(pm.Name) == "" || strings.TrimSpace(pm.Image) == "" {
		return fmt.Errorf("payment method name and image are required: %w", ErrInvalidArgument)
	}
	return s.store.CreatePaymentMethod(ctx, pm)
}

func (s *CatalogService) CreateAdvertisement(ctx context.Context, ad *models.Advertisement) error {
	if strings.TrimSpace(ad.Title) == "" || strings.TrimSpace(ad.Image) == "" {
		return fmt.Errorf("advertisement title and image are required: %w", ErrInvalidArgument)
	}
	return s.store.CreateAdvertisement(ctx, ad)
}
