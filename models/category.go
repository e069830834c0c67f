package models

type Category struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Icon     string `gorm:"not null" json:"icon"`
	IsActive bool   `json:"isActive"`
}

type PaymentMethod struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Image    string `gorm:"not null" json:"image"`
	IsActive bool   `json:"isActive"`
}

// Advertisement is a homepage banner.
type Advertisement struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Image       string `gorm:"not null" json:"image"`
	Link        string `json:"link,omitempty"`
	IsActive    bool   `json:"isActive"`
}
