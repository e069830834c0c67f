package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yemenmarket/marketplace-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorage persists records through GORM. Inside InTx it wraps the
// transaction handle and locks cart and product rows it reads.
type GormStorage struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// AutoMigrate creates or updates every table the store needs.
func (s *GormStorage) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Product{},
		&models.Review{},
		&models.PaymentMethod{},
		&models.Category{},
		&models.Advertisement{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
}

func (s *GormStorage) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// locking returns a query that takes row locks when running inside InTx.
func (s *GormStorage) locking(ctx context.Context) *gorm.DB {
	if s.inTx {
		return s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.conn(ctx)
}

func (s *GormStorage) InTx(ctx context.Context, fn func(tx Storage) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStorage{db: tx, inTx: true})
	})
}

func notFound(err error, subject string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// ──────────────── Users ────────────────

func (s *GormStorage) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := s.conn(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", user.Username, user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("username or email: %w", ErrConflict)
	}
	user.ApplyDefaults()
	if err := s.conn(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username or email: %w", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *GormStorage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("LOWER(username) = LOWER(?)", username).First(&u).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %q", username))
	}
	return &u, nil
}

func (s *GormStorage) RecordLogin(ctx context.Context, id uint, at time.Time) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

// ──────────────── Stores ────────────────

func (s *GormStorage) CreateStore(ctx context.Context, store *models.Store) error {
	return s.conn(ctx).Create(store).Error
}

func (s *GormStorage) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	var st models.Store
	if err := s.conn(ctx).First(&st, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("store %d", id))
	}
	return &st, nil
}

func (s *GormStorage) ListStores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := s.conn(ctx).Order("id ASC").Find(&stores).Error
	return stores, err
}

func (s *GormStorage) FeaturedStores(ctx context.Context, limit int) ([]models.Store, error) {
	var stores []models.Store
	err := s.conn(ctx).
		Order("COALESCE(rating, 0) DESC").Order("id ASC").
		Limit(featuredLimit(limit, DefaultFeaturedStores)).
		Find(&stores).Error
	return stores, err
}

func (s *GormStorage) UpdateStoreSubscription(ctx context.Context, id uint, subscribed bool, expiresAt time.Time) (*models.Store, error) {
	res := s.conn(ctx).Model(&models.Store{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_subscribed":           subscribed,
		"subscription_expires_at": expiresAt,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
	}
	return s.GetStore(ctx, id)
}

// ──────────────── Products ────────────────

func (s *GormStorage) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.InTx(ctx, func(txs Storage) error {
		tx := txs.(*GormStorage)
		var st models.Store
		if err := tx.locking(ctx).First(&st, product.StoreID).Error; err != nil {
			return notFound(err, fmt.Sprintf("store %d", product.StoreID))
		}
		if err := tx.conn(ctx).Create(product).Error; err != nil {
			return err
		}
		return tx.conn(ctx).Model(&models.Store{}).Where("id = ?", st.ID).
			Update("product_count", gorm.Expr("COALESCE(product_count, 0) + 1")).Error
	})
}

func (s *GormStorage) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.locking(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func (s *GormStorage) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	query := s.conn(ctx).Model(&models.Product{})
	if f.StoreID != 0 {
		query = query.Where("store_id = ?", f.StoreID)
	}
	if f.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.MinPrice.Valid {
		query = query.Where("price >= ?", f.MinPrice.Decimal)
	}
	if f.MaxPrice.Valid {
		query = query.Where("price <= ?", f.MaxPrice.Decimal)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		likePattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", likePattern, likePattern)
	}
	var products []models.Product
	err := query.Order("id ASC").Find(&products).Error
	return products, err
}

func (s *GormStorage) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).
		Order("COALESCE(sales_count, 0) DESC").Order("id ASC").
		Limit(featuredLimit(limit, DefaultFeaturedProducts)).
		Find(&products).Error
	return products, err
}

func (s *GormStorage) DiscountedProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.conn(ctx).Where("old_price IS NOT NULL").Order("id ASC").Find(&products).Error
	return products, err
}

func (s *GormStorage) LowStockProducts(ctx context.Context, storeID uint) ([]models.Product, error) {
	query := s.conn(ctx).Where("quantity <= low_stock_threshold")
	if storeID != 0 {
		query = query.Where("store_id = ?", storeID)
	}
	var products []models.Product
	err := query.Order("id ASC").Find(&products).Error
	return products, err
}

func (s *GormStorage) UpdateProduct(ctx context.Context, product *models.Product) error {
	existing, err := s.GetProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	product.StoreID = existing.StoreID
	product.CreatedAt = existing.CreatedAt
	return s.conn(ctx).Save(product).Error
}

func (s *GormStorage) DeleteProduct(ctx context.Context, id uint) error {
	return s.InTx(ctx, func(txs Storage) error {
		tx := txs.(*GormStorage)
		var p models.Product
		if err := tx.locking(ctx).First(&p, id).Error; err != nil {
			return notFound(err, fmt.Sprintf("product %d", id))
		}
		if err := tx.conn(ctx).Delete(&p).Error; err != nil {
			return err
		}
		if err := tx.conn(ctx).Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.conn(ctx).Model(&models.Store{}).
			Where("id = ? AND product_count > 0", p.StoreID).
			Update("product_count", gorm.Expr("product_count - 1")).Error
	})
}

// ──────────────── Reviews ────────────────

func (s *GormStorage) CreateReview(ctx context.Context, review *models.Review) error {
	return s.conn(ctx).Create(review).Error
}

func (s *GormStorage) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var r models.Review
	if err := s.conn(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("review %d", id))
	}
	return &r, nil
}

func (s *GormStorage) ListReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := s.conn(ctx).Order("id ASC").Find(&reviews).Error
	return reviews, err
}

func (s *GormStorage) ProductReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.conn(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&reviews).Error
	return reviews, err
}

func (s *GormStorage) StoreReviews(ctx context.Context, storeID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.conn(ctx).Where("store_id = ?", storeID).Order("id ASC").Find(&reviews).Error
	return reviews, err
}

func (s *GormStorage) FeaturedReviews(ctx context.Context, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := s.conn(ctx).
		Order("COALESCE(likes, 0) DESC").Order("id ASC").
		Limit(featuredLimit(limit, DefaultFeaturedReviews)).
		Find(&reviews).Error
	return reviews, err
}

func (s *GormStorage) ReplyToReview(ctx context.Context, id uint, content string, at time.Time) (*models.Review, error) {
	res := s.conn(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_replied":       true,
		"reply_content":    content,
		"reply_created_at": at,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	return s.GetReview(ctx, id)
}

// ──────────────── Payment methods, categories, advertisements ────────────────

func (s *GormStorage) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	return s.conn(ctx).Create(pm).Error
}

func (s *GormStorage) GetPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := s.conn(ctx).First(&pm, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("payment method %d", id))
	}
	return &pm, nil
}

func (s *GormStorage) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var pms []models.PaymentMethod
	err := s.conn(ctx).Order("id ASC").Find(&pms).Error
	return pms, err
}

func (s *GormStorage) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.conn(ctx).Create(category).Error
}

func (s *GormStorage) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("category %d", id))
	}
	return &c, nil
}

func (s *GormStorage) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.conn(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

func (s *GormStorage) CreateAdvertisement(ctx context.Context, ad *models.Advertisement) error {
	return s.conn(ctx).Create(ad).Error
}

func (s *GormStorage) GetAdvertisement(ctx context.Context, id uint) (*models.Advertisement, error) {
	var ad models.Advertisement
	if err := s.conn(ctx).First(&ad, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("advertisement %d", id))
	}
	return &ad, nil
}

func (s *GormStorage) ListAdvertisements(ctx context.Context) ([]models.Advertisement, error) {
	var ads []models.Advertisement
	err := s.conn(ctx).Order("id ASC").Find(&ads).Error
	return ads, err
}

func (s *GormStorage) ActiveAdvertisements(ctx context.Context) ([]models.Advertisement, error) {
	var ads []models.Advertisement
	err := s.conn(ctx).Where("is_active = ?", true).Order("id ASC").Find(&ads).Error
	return ads, err
}

// ──────────────── Carts ────────────────

func (s *GormStorage) GetCartByUser(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.locking(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("cart for user %d", userID))
	}
	return &cart, nil
}

func (s *GormStorage) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	// Two first-time adds may race to create the cart; the unique user_id
	// index lets only one insert land.
	cart := models.Cart{UserID: userID}
	if err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, err
	}
	return s.GetCartByUser(ctx, userID)
}

func (s *GormStorage) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.locking(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("cart item %d", id))
	}
	return &item, nil
}

func (s *GormStorage) touchCart(ctx context.Context, cartID uint) error {
	return s.conn(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}

func (s *GormStorage) AddCartItem(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error) {
	var result *models.CartItem
	err := s.InTx(ctx, func(txs Storage) error {
		tx := txs.(*GormStorage)
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}
		item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity, AddedAt: time.Now()}
		// Atomic upsert: concurrent adds of the same product both land as increments.
		err := tx.conn(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + ?", quantity)}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
		var stored models.CartItem
		if err := tx.conn(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&stored).Error; err != nil {
			return notFound(err, fmt.Sprintf("cart item for product %d", productID))
		}
		result = &stored
		return tx.touchCart(ctx, cartID)
	})
	return result, err
}

func (s *GormStorage) UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) (*models.CartItem, error) {
	res := s.conn(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("cart item %d: %w", id, ErrNotFound)
	}
	item, err := s.GetCartItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, s.touchCart(ctx, item.CartID)
}

func (s *GormStorage) RemoveCartItem(ctx context.Context, id uint) error {
	// Deleting a missing row is not an error; double submits are expected.
	return s.conn(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

func (s *GormStorage) ClearCart(ctx context.Context, cartID uint) error {
	if err := s.conn(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return s.touchCart(ctx, cartID)
}

// ──────────────── Orders ────────────────

// orderQuery locks the order row inside InTx, so status changes of one
// order run one after another.
func (s *GormStorage) orderQuery(ctx context.Context) *gorm.DB {
	return s.locking(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (s *GormStorage) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.conn(ctx).Create(order).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %q: %w", order.OrderNumber, ErrConflict)
		}
		return err
	}
	return nil
}

func (s *GormStorage) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.orderQuery(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("order %d", id))
	}
	return &o, nil
}

func (s *GormStorage) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var o models.Order
	if err := s.orderQuery(ctx).Where("order_number = ?", orderNumber).First(&o).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("order %q", orderNumber))
	}
	return &o, nil
}

func (s *GormStorage) GetOrderByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	var o models.Order
	if err := s.orderQuery(ctx).Where("user_id = ? AND idempotency_key = ?", userID, key).First(&o).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("order with idempotency key %q", key))
	}
	return &o, nil
}

func (s *GormStorage) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.orderQuery(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	return orders, err
}

func (s *GormStorage) StoreOrderItems(ctx context.Context, storeID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.conn(ctx).Where("store_id = ?", storeID).Order("id DESC").Find(&items).Error
	return items, err
}

func (s *GormStorage) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return s.GetOrder(ctx, id)
}

func (s *GormStorage) UpdateOrderPaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Order, error) {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("payment_status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return s.GetOrder(ctx, id)
}

func (s *GormStorage) GetOrderItem(ctx context.Context, id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := s.locking(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("order item %d", id))
	}
	return &item, nil
}

func (s *GormStorage) UpdateOrderItemStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderItem, error) {
	res := s.conn(ctx).Model(&models.OrderItem{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("order item %d: %w", id, ErrNotFound)
	}
	return s.GetOrderItem(ctx, id)
}
