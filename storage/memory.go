package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yemenmarket/marketplace-api/models"
)

type memData struct {
	users          map[uint]models.User
	stores         map[uint]models.Store
	products       map[uint]models.Product
	reviews        map[uint]models.Review
	paymentMethods map[uint]models.PaymentMethod
	categories     map[uint]models.Category
	advertisements map[uint]models.Advertisement
	carts          map[uint]models.Cart
	cartItems      map[uint]models.CartItem
	orders         map[uint]models.Order
	orderItems     map[uint]models.OrderItem

	lastID map[string]uint
}

func newMemData() *memData {
	return &memData{
		users:          map[uint]models.User{},
		stores:         map[uint]models.Store{},
		products:       map[uint]models.Product{},
		reviews:        map[uint]models.Review{},
		paymentMethods: map[uint]models.PaymentMethod{},
		categories:     map[uint]models.Category{},
		advertisements: map[uint]models.Advertisement{},
		carts:          map[uint]models.Cart{},
		cartItems:      map[uint]models.CartItem{},
		orders:         map[uint]models.Order{},
		orderItems:     map[uint]models.OrderItem{},
		lastID:         map[string]uint{},
	}
}

func (d *memData) clone() *memData {
	return &memData{
		users:          maps.Clone(d.users),
		stores:         maps.Clone(d.stores),
		products:       maps.Clone(d.products),
		reviews:        maps.Clone(d.reviews),
		paymentMethods: maps.Clone(d.paymentMethods),
		categories:     maps.Clone(d.categories),
		advertisements: maps.Clone(d.advertisements),
		carts:          maps.Clone(d.carts),
		cartItems:      maps.Clone(d.cartItems),
		orders:         maps.Clone(d.orders),
		orderItems:     maps.Clone(d.orderItems),
		lastID:         maps.Clone(d.lastID),
	}
}

func (d *memData) nextID(table string) uint {
	d.lastID[table]++
	return d.lastID[table]
}

// values returns the records of m in id (insertion) order.
func values[T any](m map[uint]T) []T {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		return in[:n]
	}
	return in
}

// MemStorage keeps every record in process memory. It is safe for concurrent
// use; all operations are serialized by a single mutex.
type MemStorage struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

func NewMemStorage() *MemStorage {
	return &MemStorage{mu: &sync.Mutex{}, data: newMemData()}
}

func (s *MemStorage) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemStorage) InTx(ctx context.Context, fn func(tx Storage) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemStorage{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// ──────────────── Users ────────────────

func (s *MemStorage) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	for _, u := range s.data.users {
		if strings.EqualFold(u.Username, user.Username) {
			return fmt.Errorf("username %q: %w", user.Username, ErrConflict)
		}
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %q: %w", user.Email, ErrConflict)
		}
	}
	user.ApplyDefaults()
	user.ID = s.data.nextID("users")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.data.users[user.ID] = *user
	return nil
}

func (s *MemStorage) GetUser(ctx context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	u, ok := s.data.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (s *MemStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer s.lock()()
	for _, u := range s.data.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (s *MemStorage) RecordLogin(ctx context.Context, id uint, at time.Time) error {
	defer s.lock()()
	u, ok := s.data.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	u.LastLoginAt = &at
	s.data.users[id] = u
	return nil
}

// ──────────────── Stores ────────────────

func (s *MemStorage) CreateStore(ctx context.Context, store *models.Store) error {
	defer s.lock()()
	store.ID = s.data.nextID("stores")
	s.data.stores[store.ID] = *store
	return nil
}

func (s *MemStorage) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	defer s.lock()()
	st, ok := s.data.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
	}
	return &st, nil
}

func (s *MemStorage) ListStores(ctx context.Context) ([]models.Store, error) {
	defer s.lock()()
	return values(s.data.stores), nil
}

func (s *MemStorage) FeaturedStores(ctx context.Context, limit int) ([]models.Store, error) {
	defer s.lock()()
	stores := values(s.data.stores)
	sort.SliceStable(stores, func(i, j int) bool { return stores[i].Rating > stores[j].Rating })
	return head(stores, featuredLimit(limit, DefaultFeaturedStores)), nil
}

func (s *MemStorage) UpdateStoreSubscription(ctx context.Context, id uint, subscribed bool, expiresAt time.Time) (*models.Store, error) {
	defer s.lock()()
	st, ok := s.data.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
	}
	st.IsSubscribed = subscribed
	st.SubscriptionExpiresAt = &expiresAt
	s.data.stores[id] = st
	return &st, nil
}

// ──────────────── Products ────────────────

func (s *MemStorage) CreateProduct(ctx context.Context, product *models.Product) error {
	defer s.lock()()
	st, ok := s.data.stores[product.StoreID]
	if !ok {
		return fmt.Errorf("store %d: %w", product.StoreID, ErrNotFound)
	}
	now := time.Now()
	product.ID = s.data.nextID("products")
	product.CreatedAt, product.UpdatedAt = now, now
	s.data.products[product.ID] = *product

	st.ProductCount++
	s.data.stores[st.ID] = st
	return nil
}

func (s *MemStorage) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	defer s.lock()()
	p, ok := s.data.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *MemStorage) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	defer s.lock()()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	return filter(values(s.data.products), func(p models.Product) bool {
		if f.StoreID != 0 && p.StoreID != f.StoreID {
			return false
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			return false
		}
		if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
			return false
		}
		if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			return false
		}
		return true
	}), nil
}

func (s *MemStorage) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	defer s.lock()()
	products := values(s.data.products)
	sort.SliceStable(products, func(i, j int) bool { return products[i].SalesCount > products[j].SalesCount })
	return head(products, featuredLimit(limit, DefaultFeaturedProducts)), nil
}

func (s *MemStorage) DiscountedProducts(ctx context.Context) ([]models.Product, error) {
	defer s.lock()()
	return filter(values(s.data.products), func(p models.Product) bool { return p.OldPrice.Valid }), nil
}

func (s *MemStorage) LowStockProducts(ctx context.Context, storeID uint) ([]models.Product, error) {
	defer s.lock()()
	return filter(values(s.data.products), func(p models.Product) bool {
		return (storeID == 0 || p.StoreID == storeID) && p.IsLowStock()
	}), nil
}

func (s *MemStorage) UpdateProduct(ctx context.Context, product *models.Product) error {
	defer s.lock()()
	existing, ok := s.data.products[product.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", product.ID, ErrNotFound)
	}
	// the owning store and creation time are fixed
	product.StoreID = existing.StoreID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	s.data.products[product.ID] = *product
	return nil
}

func (s *MemStorage) DeleteProduct(ctx context.Context, id uint) error {
	defer s.lock()()
	p, ok := s.data.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	delete(s.data.products, id)
	for itemID, item := range s.data.cartItems {
		if item.ProductID == id {
			delete(s.data.cartItems, itemID)
		}
	}
	if st, ok := s.data.stores[p.StoreID]; ok && st.ProductCount > 0 {
		st.ProductCount--
		s.data.stores[st.ID] = st
	}
	return nil
}

// ──────────────── Reviews ────────────────

func (s *MemStorage) CreateReview(ctx context.Context, review *models.Review) error {
	defer s.lock()()
	review.ID = s.data.nextID("reviews")
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	s.data.reviews[review.ID] = *review
	return nil
}

func (s *MemStorage) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	defer s.lock()()
	r, ok := s.data.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (s *MemStorage) ListReviews(ctx context.Context) ([]models.Review, error) {
	defer s.lock()()
	return values(s.data.reviews), nil
}

func (s *MemStorage) ProductReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	defer s.lock()()
	return filter(values(s.data.reviews), func(r models.Review) bool { return r.ProductID == productID }), nil
}

func (s *MemStorage) StoreReviews(ctx context.Context, storeID uint) ([]models.Review, error) {
	defer s.lock()()
	return filter(values(s.data.reviews), func(r models.Review) bool { return r.StoreID == storeID }), nil
}

func (s *MemStorage) FeaturedReviews(ctx context.Context, limit int) ([]models.Review, error) {
	defer s.lock()()
	reviews := values(s.data.reviews)
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].Likes > reviews[j].Likes })
	return head(reviews, featuredLimit(limit, DefaultFeaturedReviews)), nil
}

func (s *MemStorage) ReplyToReview(ctx context.Context, id uint, content string, at time.Time) (*models.Review, error) {
	defer s.lock()()
	r, ok := s.data.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	r.IsReplied = true
	r.ReplyContent = content
	r.ReplyCreatedAt = &at
	s.data.reviews[id] = r
	return &r, nil
}

// ──────────────── Payment methods, categories, advertisements ────────────────

func (s *MemStorage) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	defer s.lock()()
	pm.ID = s.data.nextID("payment_methods")
	s.data.paymentMethods[pm.ID] = *pm
	return nil
}

func (s *MemStorage) GetPaymentMethod(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	defer s.lock()()
	pm, ok := s.data.paymentMethods[id]
	if !ok {
		return nil, fmt.Errorf("payment method %d: %w", id, ErrNotFound)
	}
	return &pm, nil
}

func (s *MemStorage) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	defer s.lock()()
	return values(s.data.paymentMethods), nil
}

func (s *MemStorage) CreateCategory(ctx context.Context, category *models.Category) error {
	defer s.lock()()
	category.ID = s.data.nextID("categories")
	s.data.categories[category.ID] = *category
	return nil
}

func (s *MemStorage) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	defer s.lock()()
	c, ok := s.data.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (s *MemStorage) ListCategories(ctx context.Context) ([]models.Category, error) {
	defer s.lock()()
	return values(s.data.categories), nil
}

func (s *MemStorage) CreateAdvertisement(ctx context.Context, ad *models.Advertisement) error {
	defer s.lock()()
	ad.ID = s.data.nextID("advertisements")
	s.data.advertisements[ad.ID] = *ad
	return nil
}

func (s *MemStorage) GetAdvertisement(ctx context.Context, id uint) (*models.Advertisement, error) {
	defer s.lock()()
	ad, ok := s.data.advertisements[id]
	if !ok {
		return nil, fmt.Errorf("advertisement %d: %w", id, ErrNotFound)
	}
	return &ad, nil
}

func (s *MemStorage) ListAdvertisements(ctx context.Context) ([]models.Advertisement, error) {
	defer s.lock()()
	return values(s.data.advertisements), nil
}

func (s *MemStorage) ActiveAdvertisements(ctx context.Context) ([]models.Advertisement, error) {
	defer s.lock()()
	return filter(values(s.data.advertisements), func(a models.Advertisement) bool { return a.IsActive }), nil
}

// ──────────────── Carts ────────────────

func (s *MemStorage) cartByUser(userID uint) (models.Cart, bool) {
	for _, c := range s.data.carts {
		if c.UserID == userID {
			c.Items = filter(values(s.data.cartItems), func(i models.CartItem) bool { return i.CartID == c.ID })
			return c, true
		}
	}
	return models.Cart{}, false
}

func (s *MemStorage) touchCart(cartID uint) {
	if c, ok := s.data.carts[cartID]; ok {
		c.UpdatedAt = time.Now()
		s.data.carts[cartID] = c
	}
}

func (s *MemStorage) GetCartByUser(ctx context.Context, userID uint) (*models.Cart, error) {
	defer s.lock()()
	c, ok := s.cartByUser(userID)
	if !ok {
		return nil, fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
	}
	return &c, nil
}

func (s *MemStorage) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	defer s.lock()()
	if c, ok := s.cartByUser(userID); ok {
		return &c, nil
	}
	now := time.Now()
	c := models.Cart{ID: s.data.nextID("carts"), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.data.carts[c.ID] = c
	return &c, nil
}

func (s *MemStorage) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	defer s.lock()()
	item, ok := s.data.cartItems[id]
	if !ok {
		return nil, fmt.Errorf("cart item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

func (s *MemStorage) AddCartItem(ctx context.Context, cartID, productID uint, quantity int) (*models.CartItem, error) {
	defer s.lock()()
	if _, ok := s.data.carts[cartID]; !ok {
		return nil, fmt.Errorf("cart %d: %w", cartID, ErrNotFound)
	}
	if _, ok := s.data.products[productID]; !ok {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	defer s.touchCart(cartID)

	for id, item := range s.data.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			item.Quantity += quantity
			s.data.cartItems[id] = item
			return &item, nil
		}
	}
	item := models.CartItem{
		ID:        s.data.nextID("cart_items"),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	s.data.cartItems[item.ID] = item
	return &item, nil
}

func (s *MemStorage) UpdateCartItemQuantity(ctx context.Context, id uint, quantity int) (*models.CartItem, error) {
	defer s.lock()()
	item, ok := s.data.cartItems[id]
	if !ok {
		return nil, fmt.Errorf("cart item %d: %w", id, ErrNotFound)
	}
	item.Quantity = quantity
	s.data.cartItems[id] = item
	s.touchCart(item.CartID)
	return &item, nil
}

func (s *MemStorage) RemoveCartItem(ctx context.Context, id uint) error {
	defer s.lock()()
	if item, ok := s.data.cartItems[id]; ok {
		delete(s.data.cartItems, id)
		s.touchCart(item.CartID)
	}
	return nil
}

func (s *MemStorage) ClearCart(ctx context.Context, cartID uint) error {
	defer s.lock()()
	for id, item := range s.data.cartItems {
		if item.CartID == cartID {
			delete(s.data.cartItems, id)
		}
	}
	s.touchCart(cartID)
	return nil
}

// ──────────────── Orders ────────────────

func (s *MemStorage) withItems(o models.Order) models.Order {
	o.Items = filter(values(s.data.orderItems), func(i models.OrderItem) bool { return i.OrderID == o.ID })
	return o
}

func (s *MemStorage) CreateOrder(ctx context.Context, order *models.Order) error {
	defer s.lock()()
	for _, o := range s.data.orders {
		if o.OrderNumber == order.OrderNumber {
			return fmt.Errorf("order number %q: %w", order.OrderNumber, ErrConflict)
		}
		if order.IdempotencyKey != nil && o.IdempotencyKey != nil &&
			o.UserID == order.UserID && *o.IdempotencyKey == *order.IdempotencyKey {
			return fmt.Errorf("idempotency key %q: %w", *order.IdempotencyKey, ErrConflict)
		}
	}
	now := time.Now()
	order.ID = s.data.nextID("orders")
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentStatusPending
	}
	for i := range order.Items {
		item := &order.Items[i]
		item.ID = s.data.nextID("order_items")
		item.OrderID = order.ID
		if item.Status == "" {
			item.Status = models.OrderStatusPending
		}
		s.data.orderItems[item.ID] = *item
	}
	stored := *order
	stored.Items = nil
	s.data.orders[order.ID] = stored
	return nil
}

func (s *MemStorage) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	defer s.lock()()
	o, ok := s.data.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	o = s.withItems(o)
	return &o, nil
}

func (s *MemStorage) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	defer s.lock()()
	for _, o := range s.data.orders {
		if o.OrderNumber == orderNumber {
			o = s.withItems(o)
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order %q: %w", orderNumber, ErrNotFound)
}

func (s *MemStorage) GetOrderByIdempotencyKey(ctx context.Context, userID uint, key string) (*models.Order, error) {
	defer s.lock()()
	for _, o := range s.data.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			o = s.withItems(o)
			return &o, nil
		}
	}
	return nil, fmt.Errorf("order with idempotency key %q: %w", key, ErrNotFound)
}

func (s *MemStorage) UserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	defer s.lock()()
	orders := filter(values(s.data.orders), func(o models.Order) bool { return o.UserID == userID })
	slices.Reverse(orders) // newest first
	for i := range orders {
		orders[i] = s.withItems(orders[i])
	}
	return orders, nil
}

func (s *MemStorage) StoreOrderItems(ctx context.Context, storeID uint) ([]models.OrderItem, error) {
	defer s.lock()()
	items := filter(values(s.data.orderItems), func(i models.OrderItem) bool { return i.StoreID == storeID })
	slices.Reverse(items)
	return items, nil
}

func (s *MemStorage) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	defer s.lock()()
	o, ok := s.data.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	s.data.orders[id] = o
	o = s.withItems(o)
	return &o, nil
}

func (s *MemStorage) UpdateOrderPaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Order, error) {
	defer s.lock()()
	o, ok := s.data.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	s.data.orders[id] = o
	o = s.withItems(o)
	return &o, nil
}

func (s *MemStorage) GetOrderItem(ctx context.Context, id uint) (*models.OrderItem, error) {
	defer s.lock()()
	item, ok := s.data.orderItems[id]
	if !ok {
		return nil, fmt.Errorf("order item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

func (s *MemStorage) UpdateOrderItemStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.OrderItem, error) {
	defer s.lock()()
	item, ok := s.data.orderItems[id]
	if !ok {
		return nil, fmt.Errorf("order item %d: %w", id, ErrNotFound)
	}
	item.Status = status
	s.data.orderItems[id] = item
	return &item, nil
}
