package models

import "time"

type Store struct {
	ID                    uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                uint       `gorm:"index;not null" json:"userId"`
	Name                  string     `gorm:"not null" json:"name"`
	Description           string     `gorm:"not null" json:"description"`
	Logo                  string     `json:"logo,omitempty"`
	CoverImage            string     `json:"coverImage,omitempty"`
	Category              string     `gorm:"not null" json:"category"`
	IsSubscribed          bool       `gorm:"default:false" json:"isSubscribed"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	Rating                float64    `gorm:"default:0" json:"rating"`
	ProductCount          int        `gorm:"default:0" json:"productCount"`
}

type Review struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint       `gorm:"index;not null" json:"userId"`
	ProductID        uint       `gorm:"index" json:"productId"`
	StoreID          uint       `gorm:"index" json:"storeId"`
	Title            string     `json:"title,omitempty"`
	Content          string     `gorm:"not null" json:"content"`
	Rating           int        `gorm:"not null" json:"rating"`
	Likes            int        `gorm:"default:0" json:"likes"`
	Comments         int        `gorm:"default:0" json:"comments"`
	IsReplied        bool       `gorm:"default:false" json:"isReplied"`
	ReplyContent     string     `json:"replyContent,omitempty"`
	ReplyCreatedAt   *time.Time `json:"replyCreatedAt,omitempty"`
	VerifiedPurchase bool       `gorm:"default:false" json:"verifiedPurchase"`
	CreatedAt        time.Time  `json:"createdAt"`
}
