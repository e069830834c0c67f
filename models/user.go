package models

import "time"

type UserRole string

const (
	RoleUser   UserRole = "user"
	RoleVendor UserRole = "vendor"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	Name           string     `gorm:"not null" json:"name"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Avatar         string     `json:"avatar,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	Role           UserRole   `gorm:"type:VARCHAR(20);default:'user';not null" json:"role"`
	IsVerified     bool       `gorm:"default:false" json:"isVerified"`
	LoyaltyPoints  int        `gorm:"default:0" json:"loyaltyPoints"`
	MembershipTier string     `gorm:"default:'standard'" json:"membershipTier"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
}

// ApplyDefaults fills the optional fields a caller left empty.
func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.MembershipTier == "" {
		u.MembershipTier = "standard"
	}
}
