package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultLowStockThreshold = 5

type Product struct {
	ID                uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID           uint                `gorm:"index;not null" json:"storeId"`
	Name              string              `gorm:"not null" json:"name"`
	Description       string              `gorm:"not null" json:"description"`
	Image             string              `json:"image"`
	Price             decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	OldPrice          decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"oldPrice"`
	Category          string              `gorm:"index" json:"category"`
	SKU               string              `json:"sku,omitempty"`
	Quantity          int                 `gorm:"default:0" json:"quantity"`
	LowStockThreshold int                 `json:"lowStockThreshold"`
	IsInStock         bool                `json:"isInStock"`
	Rating            float64             `gorm:"default:0" json:"rating"`
	SalesCount        int                 `gorm:"default:0" json:"salesCount"`
	IsNew             bool                `gorm:"default:false" json:"isNew"`
	HasDiscount       bool                `gorm:"default:false" json:"hasDiscount"`
	IsBestseller      bool                `gorm:"default:false" json:"isBestseller"`
	Weight            float64             `json:"weight,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"`
}

// IsLowStock reports whether the product needs restocking.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// ProductFilter narrows product listings. Zero values are ignored.
type ProductFilter struct {
	Search   string
	Category string
	StoreID  uint
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}
