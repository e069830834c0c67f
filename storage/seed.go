package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedPassword      = "password123"
	seedStockQuantity = 100
	subscriptionDays  = 30
)

// Seed loads the sample marketplace into s. It does nothing when stores
// already exist, so it is safe to call on every start.
func Seed(ctx context.Context, s Storage) error {
	existing, err := s.ListStores(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return s.InTx(ctx, func(tx Storage) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}

		users := []*models.User{
			{Username: "mohammed", Name: "محمد أحمد", Email: "mohammed@example.com", Avatar: "https://randomuser.me/api/portraits/men/1.jpg", Phone: "+967123456789", IsVerified: true, Role: models.RoleVendor},
			{Username: "sara", Name: "سارة محمد", Email: "sara@example.com", Avatar: "https://randomuser.me/api/portraits/women/1.jpg", Phone: "+967987654321", IsVerified: true, Role: models.RoleVendor},
			{Username: "khaled", Name: "خالد العمري", Email: "khaled@example.com", Avatar: "https://randomuser.me/api/portraits/men/2.jpg", Phone: "+967456789123", IsVerified: true, Role: models.RoleVendor},
		}
		for _, u := range users {
			u.PasswordHash = string(hash)
			if err := tx.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Username, err)
			}
		}

		expires := time.Now().AddDate(0, 0, subscriptionDays)
		stores := []*models.Store{
			{UserID: users[0].ID, Name: "متجر الإلكترونيات", Description: "إلكترونيات وأجهزة منزلية", Logo: "https://placehold.co/100x100?text=E", CoverImage: "https://placehold.co/500x300?text=Electronics", Category: "electronics", Rating: 4.8},
			{UserID: users[1].ID, Name: "متجر الأزياء", Description: "ملابس وإكسسوارات", Logo: "https://placehold.co/100x100?text=F", CoverImage: "https://placehold.co/500x300?text=Fashion", Category: "fashion", Rating: 4.5},
			{UserID: users[2].ID, Name: "متجر الأجهزة", Description: "أجهزة ذكية وملحقاتها", Logo: "https://placehold.co/100x100?text=G", CoverImage: "https://placehold.co/500x300?text=Gadgets", Category: "electronics", Rating: 4.7},
			{UserID: users[0].ID, Name: "متجر الصحة", Description: "منتجات صحية وغذائية", Logo: "https://placehold.co/100x100?text=H", CoverImage: "https://placehold.co/500x300?text=Health", Category: "health", Rating: 4.9},
		}
		for _, st := range stores {
			st.IsSubscribed = true
			st.SubscriptionExpiresAt = &expires
			if err := tx.CreateStore(ctx, st); err != nil {
				return fmt.Errorf("seed store %s: %w", st.Name, err)
			}
		}

		products := []*models.Product{
			{StoreID: stores[0].ID, Name: "سماعات لاسلكية فاخرة", Description: "سماعات بلوتوث لاسلكية بجودة صوت عالية ومدة بطارية طويلة", Image: "https://placehold.co/400x400?text=Headphones", Price: decimal.RequireFromString("49.99"), OldPrice: decimal.NewNullDecimal(decimal.RequireFromString("79.99")), Category: "electronics", Rating: 4.8, SalesCount: 150, IsNew: true, HasDiscount: true},
			{StoreID: stores[2].ID, Name: "ساعة ذكية متطورة", Description: "ساعة ذكية بشاشة لمس وميزات صحية متعددة ومقاومة للماء", Image: "https://placehold.co/400x400?text=SmartWatch", Price: decimal.RequireFromString("89.99"), OldPrice: decimal.NewNullDecimal(decimal.RequireFromString("129.99")), Category: "electronics", Rating: 4.7, SalesCount: 85, HasDiscount: true},
			{StoreID: stores[1].ID, Name: "حقيبة ظهر عصرية", Description: "حقيبة ظهر مقاومة للماء مناسبة للجامعة والرحلات مع مساحة للحاسوب المحمول", Image: "https://placehold.co/400x400?text=Backpack", Price: decimal.RequireFromString("34.99"), OldPrice: decimal.NewNullDecimal(decimal.RequireFromString("44.99")), Category: "fashion", Rating: 4.5, SalesCount: 120, HasDiscount: true},
			{StoreID: stores[0].ID, Name: "مصباح ذكي RGB", Description: "مصباح ذكي قابل للتحكم عبر التطبيق مع 16 مليون لون وإعدادات مختلفة", Image: "https://placehold.co/400x400?text=SmartLight", Price: decimal.RequireFromString("29.99"), OldPrice: decimal.NewNullDecimal(decimal.RequireFromString("39.99")), Category: "electronics", Rating: 4.6, SalesCount: 75, HasDiscount: true},
			{StoreID: stores[2].ID, Name: "شاحن لاسلكي سريع", Description: "شاحن لاسلكي سريع متوافق مع جميع الهواتف الذكية الحديثة", Image: "https://placehold.co/400x400?text=WirelessCharger", Price: decimal.RequireFromString("24.99"), OldPrice: decimal.NewNullDecimal(decimal.RequireFromString("39.99")), Category: "electronics", Rating: 4.9, SalesCount: 200, HasDiscount: true, IsBestseller: true},
		}
		for _, p := range products {
			p.Quantity = seedStockQuantity
			p.LowStockThreshold = models.DefaultLowStockThreshold
			p.IsInStock = true
			if err := tx.CreateProduct(ctx, p); err != nil {
				return fmt.Errorf("seed product %s: %w", p.Name, err)
			}
		}

		now := time.Now()
		reviews := []*models.Review{
			{UserID: users[0].ID, ProductID: products[4].ID, StoreID: stores[2].ID, Content: "تجربة رائعة مع المنصة، سهولة في التصفح والشراء وسرعة في التوصيل. أنصح الجميع بتجربتها!", Rating: 5, Likes: 24, Comments: 3, CreatedAt: now.AddDate(0, 0, -3)},
			{UserID: users[1].ID, ProductID: products[0].ID, StoreID: stores[0].ID, Content: "المنتجات ذات جودة عالية والأسعار معقولة. التوصيل كان متأخراً قليلاً لكن خدمة العملاء كانت متعاونة جداً.", Rating: 4, Likes: 18, Comments: 5, CreatedAt: now.AddDate(0, 0, -7)},
			{UserID: users[2].ID, ProductID: products[2].ID, StoreID: stores[1].ID, Content: "أفضل منصة للتسوق اليمني! وجدت كل ما أحتاجه بسهولة والدفع آمن وسريع. سأستمر بالشراء منها بالتأكيد.", Rating: 5, Likes: 42, Comments: 7, CreatedAt: now.AddDate(0, 0, -30)},
		}
		for _, r := range reviews {
			if err := tx.CreateReview(ctx, r); err != nil {
				return fmt.Errorf("seed review: %w", err)
			}
		}

		paymentMethods := []*models.PaymentMethod{
			{Name: "Visa", Image: "https://upload.wikimedia.org/wikipedia/commons/5/5e/Visa_Inc._logo.svg"},
			{Name: "Mastercard", Image: "https://upload.wikimedia.org/wikipedia/commons/thumb/2/2a/Mastercard-logo.svg/1280px-Mastercard-logo.svg.png"},
			{Name: "PayPal", Image: "https://upload.wikimedia.org/wikipedia/commons/thumb/b/b5/PayPal.svg/1200px-PayPal.svg.png"},
			{Name: "Apple Pay", Image: "https://upload.wikimedia.org/wikipedia/commons/thumb/f/fa/Apple_logo_black.svg/1200px-Apple_logo_black.svg.png"},
			{Name: "Google Pay", Image: "https://upload.wikimedia.org/wikipedia/commons/thumb/f/f2/Google_Pay_Logo.svg/512px-Google_Pay_Logo.svg.png"},
		}
		for _, pm := range paymentMethods {
			pm.IsActive = true
			if err := tx.CreatePaymentMethod(ctx, pm); err != nil {
				return fmt.Errorf("seed payment method %s: %w", pm.Name, err)
			}
		}

		categories := []*models.Category{
			{Name: "الإلكترونيات", Icon: "mobile-alt"},
			{Name: "الملابس", Icon: "tshirt"},
			{Name: "المنزل والمطبخ", Icon: "home"},
			{Name: "الصحة والجمال", Icon: "heartbeat"},
			{Name: "ألعاب وهوايات", Icon: "gamepad"},
		}
		for _, c := range categories {
			c.IsActive = true
			if err := tx.CreateCategory(ctx, c); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}

		ads := []*models.Advertisement{
			{Title: "عروض رمضان الحصرية", Description: "خصومات تصل إلى 50% على جميع المنتجات", Image: "https://placehold.co/1050x400?text=Ramadan+Offers", Link: "/offers"},
			{Title: "تخفيضات الصيف", Description: "خصومات رائعة على كل ما تحتاجه للصيف", Image: "https://placehold.co/1050x400?text=Summer+Sale", Link: "/summer-sale"},
			{Title: "منتجات جديدة", Description: "تصفح أحدث المنتجات المضافة هذا الشهر", Image: "https://placehold.co/1050x400?text=New+Arrivals", Link: "/new-arrivals"},
		}
		for _, ad := range ads {
			ad.IsActive = true
			if err := tx.CreateAdvertisement(ctx, ad); err != nil {
				return fmt.Errorf("seed advertisement %s: %w", ad.Title, err)
			}
		}
		return nil
	})
}
