package domain

import "time"

// Admin represents a platform administrator, stored apart from users
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // Hashed password
	FirstName string    `gorm:"type:varchar(64);not null" json:"firstName"`
	LastName  string    `gorm:"type:varchar(64);not null" json:"lastName"`
	Role      string    `gorm:"type:varchar(32);not null;default:admin" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"` // Only active admins authenticate
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
